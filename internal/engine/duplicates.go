package engine

import (
	"fmt"
	"strings"

	"csvcert/pkg/contracts/domain"
)

// DuplicateKey describes one dataset-wide uniqueness check. CaseFold
// controls whether values are compared case-insensitively.
type DuplicateKey struct {
	Field    string
	Label    string
	CaseFold bool
}

// DefaultDuplicateKeys are the identity fields checked on every dataset.
// Email and username compare case-insensitively; document numbers compare
// verbatim after trimming.
func DefaultDuplicateKeys() []DuplicateKey {
	return []DuplicateKey{
		{Field: "email", Label: "Duplicate email", CaseFold: true},
		{Field: "username", Label: "Duplicate username", CaseFold: true},
		{Field: "personalid", Label: "Duplicate personal ID", CaseFold: false},
		{Field: "idcardno", Label: "Duplicate ID card number", CaseFold: false},
	}
}

// DuplicateError is one duplicate finding for one row. Category is the key
// label used for the error histogram; Message carries the offending value
// and the row it first appeared in.
type DuplicateError struct {
	Category string
	Message  string
}

// Duplicates is the outcome of the whole-dataset pass: findings keyed by row
// index, plus the count of distinct duplicated values per key field.
type Duplicates struct {
	ByRow          map[int][]DuplicateError
	DistinctValues map[string]int
}

// FindDuplicates makes one ordered pass over the rows, flagging every
// occurrence of a value after its first. The first occurrence is never
// flagged. Later rows depend on earlier ones, so this pass is sequential; it
// runs alongside, not inside, the parallel field pass.
func FindDuplicates(rows []domain.Row, mapping domain.ColumnMapping, keys []DuplicateKey) *Duplicates {
	d := &Duplicates{
		ByRow:          make(map[int][]DuplicateError),
		DistinctValues: make(map[string]int),
	}

	for _, key := range keys {
		firstSeen := make(map[string]int)
		flagged := make(map[string]bool)

		for _, row := range rows {
			value := strings.TrimSpace(mapping.Resolve(row, key.Field))
			if value == "" {
				continue
			}
			norm := value
			if key.CaseFold {
				norm = strings.ToLower(norm)
			}

			first, seen := firstSeen[norm]
			if !seen {
				firstSeen[norm] = row.Index
				continue
			}

			if !flagged[norm] {
				flagged[norm] = true
				d.DistinctValues[key.Field]++
			}
			d.ByRow[row.Index] = append(d.ByRow[row.Index], DuplicateError{
				Category: key.Label,
				Message:  fmt.Sprintf("%s: %s (also in row %d)", key.Label, norm, first),
			})
		}
	}

	return d
}
