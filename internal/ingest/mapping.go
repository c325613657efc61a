package ingest

import (
	"fmt"
	"sort"
	"strings"

	"csvcert/pkg/contracts/domain"
)

// MissingColumnsError reports required fields that cannot be satisfied by
// the file's headers, even after applying the caller's column mapping. It is
// an expected, recoverable outcome: the caller is given the available
// headers so it can offer a mapping step.
type MissingColumnsError struct {
	Missing   []string
	Available []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("required columns missing in file: %s", strings.Join(e.Missing, ", "))
}

// DuplicateTargetError reports a column mapping in which several source
// columns claim the same schema field, which would make value resolution
// ambiguous.
type DuplicateTargetError struct {
	Target  string
	Sources []string
}

func (e *DuplicateTargetError) Error() string {
	return fmt.Sprintf("column mapping claims field %q from multiple columns: %s",
		e.Target, strings.Join(e.Sources, ", "))
}

// Reconcile checks that the mapping is unambiguous and that every required
// field is reachable, either directly as a header or through the supplied
// mapping. Matching is case-insensitive.
func Reconcile(columns, required []string, mapping domain.ColumnMapping) error {
	targetSources := make(map[string][]string, len(mapping))
	for source, target := range mapping {
		key := strings.ToLower(target)
		targetSources[key] = append(targetSources[key], source)
	}
	for target, sources := range targetSources {
		if len(sources) > 1 {
			sort.Strings(sources)
			return &DuplicateTargetError{Target: target, Sources: sources}
		}
	}

	available := make(map[string]bool, len(columns)+len(mapping))
	for _, col := range columns {
		available[strings.ToLower(col)] = true
	}
	for source, target := range mapping {
		if available[strings.ToLower(source)] {
			available[strings.ToLower(target)] = true
		}
	}

	var missing []string
	for _, field := range required {
		if !available[strings.ToLower(field)] {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Missing: missing, Available: columns}
	}
	return nil
}

// commonPrefixes are leading tokens frequently prepended by export tools.
var commonPrefixes = []string{"customer", "user", "account", "contact"}

// SuggestMapping proposes a source-to-target column mapping for headers that
// do not match required fields directly. Pass one maps exact normalized
// matches, pass two maps substring matches among whatever is left. The
// result is best-effort and the caller's explicit mapping always wins.
func SuggestMapping(sources, targets []string) domain.ColumnMapping {
	mapping := make(domain.ColumnMapping)
	claimedTargets := make(map[string]bool)
	usedSources := make(map[string]bool)

	normalizedTargets := make(map[string]string, len(targets))
	for _, target := range targets {
		normalizedTargets[target] = normalizeColumn(target)
	}

	// Pass 1: exact normalized matches.
	for _, source := range sources {
		ns := normalizeColumn(source)
		for _, target := range targets {
			if claimedTargets[target] || ns != normalizedTargets[target] {
				continue
			}
			mapping[source] = target
			claimedTargets[target] = true
			usedSources[source] = true
			break
		}
	}

	// Pass 2: substring matches among the remainder.
	for _, source := range sources {
		if usedSources[source] {
			continue
		}
		ns := normalizeColumn(source)
		if ns == "" {
			continue
		}
		for _, target := range targets {
			if claimedTargets[target] {
				continue
			}
			nt := normalizedTargets[target]
			if nt == "" || (!strings.Contains(ns, nt) && !strings.Contains(nt, ns)) {
				continue
			}
			mapping[source] = target
			claimedTargets[target] = true
			usedSources[source] = true
			break
		}
	}

	return mapping
}

// normalizeColumn lowercases, strips separator characters, and removes one
// leading common-prefix token.
func normalizeColumn(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, prefix := range commonPrefixes {
		for _, sep := range []string{"_", " ", "-"} {
			if strings.HasPrefix(n, prefix+sep) {
				n = n[len(prefix)+len(sep):]
			}
		}
	}
	n = strings.NewReplacer("_", "", " ", "", "-", "").Replace(n)
	return n
}
