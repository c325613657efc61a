package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"csvcert/pkg/contracts/domain"
)

// Dataset is the parsed form of one uploaded file: the cleaned header list,
// every data row in input order, and what detection concluded about the
// source format.
type Dataset struct {
	Columns   []string
	Rows      []domain.Row
	Delimiter rune
	Encoding  string
}

// ErrNoHeader is returned for files with no parseable header row.
var ErrNoHeader = errors.New("no valid headers found")

// ReadCSV parses raw CSV bytes into a Dataset. Encoding and delimiter are
// auto-detected from the content; rows keep their 1-based source position.
func ReadCSV(data []byte) (*Dataset, error) {
	text, encoding := Decode(data)
	delimiter := DetectDelimiter(text)
	return readDelimited(text, delimiter, encoding)
}

// ReadCSVWithDelimiter parses with a caller-supplied delimiter, skipping
// delimiter detection. Used when re-reading a stored upload whose format is
// already known.
func ReadCSVWithDelimiter(data []byte, delimiter rune) (*Dataset, error) {
	text, encoding := Decode(data)
	return readDelimited(text, delimiter, encoding)
}

func readDelimited(text string, delimiter rune, encoding string) (*Dataset, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := CleanColumns(header)
	if len(columns) == 0 {
		return nil, ErrNoHeader
	}

	var rows []domain.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		if isBlank(record) {
			continue
		}
		rows = append(rows, makeRow(columns, record, len(rows)+1))
	}

	return &Dataset{
		Columns:   columns,
		Rows:      rows,
		Delimiter: delimiter,
		Encoding:  encoding,
	}, nil
}

// CleanColumns trims whitespace and stray enclosure quotes from a header
// record and drops empty names.
func CleanColumns(header []string) []string {
	var columns []string
	for _, col := range header {
		cleaned := strings.TrimSpace(col)
		for _, enclosure := range []string{`"`, `'`} {
			if len(cleaned) >= 2 && strings.HasPrefix(cleaned, enclosure) && strings.HasSuffix(cleaned, enclosure) {
				cleaned = cleaned[1 : len(cleaned)-1]
			}
		}
		if cleaned == "" {
			continue
		}
		columns = append(columns, cleaned)
	}
	return columns
}

// makeRow pairs a record's values with the cleaned column names. Short
// records leave trailing columns empty; extra values are dropped.
func makeRow(columns []string, record []string, index int) domain.Row {
	values := make(map[string]string, len(columns))
	for i, col := range columns {
		if i < len(record) {
			values[col] = record[i]
		} else {
			values[col] = ""
		}
	}
	return domain.Row{Index: index, Values: values}
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Sample returns up to n rows as plain maps for previews.
func (d *Dataset) Sample(n int) []map[string]string {
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	out := make([]map[string]string, 0, n)
	for _, row := range d.Rows[:n] {
		out = append(out, row.Values)
	}
	return out
}
