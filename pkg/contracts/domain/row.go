package domain

import "strings"

// Row is a single parsed record: raw string values keyed by (cleaned) column
// name, plus the record's 1-based position in the source file. Rows are
// immutable once parsed and safe to share across goroutines.
type Row struct {
	Index  int
	Values map[string]string
}

// Get returns the raw value for a column, matching case-insensitively.
// Missing columns yield the empty string.
func (r Row) Get(column string) string {
	if v, ok := r.Values[column]; ok {
		return v
	}
	for k, v := range r.Values {
		if strings.EqualFold(k, column) {
			return v
		}
	}
	return ""
}

// ColumnMapping maps a source CSV header to the schema field it stands for.
// A mapping is valid only if no source is used twice and no target is
// claimed twice.
type ColumnMapping map[string]string

// SourceFor returns the source column mapped to the given target field, if
// any. When several sources claim the same target the lexicographically
// smallest wins, so resolution never depends on map iteration order.
// Ingestion rejects such mappings up front; this keeps results reproducible
// even for a mapping that bypassed that check.
func (m ColumnMapping) SourceFor(target string) (string, bool) {
	var best string
	found := false
	for src, tgt := range m {
		if !strings.EqualFold(tgt, target) {
			continue
		}
		if !found || src < best {
			best = src
			found = true
		}
	}
	return best, found
}

// Resolve looks up the row value for a schema field, preferring an explicit
// mapping over a direct header match.
func (m ColumnMapping) Resolve(row Row, field string) string {
	if src, ok := m.SourceFor(field); ok {
		return row.Get(src)
	}
	return row.Get(field)
}
