package ingest

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"csvcert/pkg/contracts/domain"
)

// ReadWorkbook parses the first sheet of an XLSX workbook into a Dataset.
// The first row is the header; blank rows are skipped like in CSV input.
// Workbooks carry no delimiter or byte encoding, so the dataset records the
// canonical CSV equivalents for downstream reporting.
func ReadWorkbook(data []byte) (*Dataset, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}

	records, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, ErrNoHeader
	}

	columns := CleanColumns(records[0])
	if len(columns) == 0 {
		return nil, ErrNoHeader
	}

	var rows []domain.Row
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		rows = append(rows, makeRow(columns, record, len(rows)+1))
	}

	return &Dataset{
		Columns:   columns,
		Rows:      rows,
		Delimiter: ',',
		Encoding:  "utf-8",
	}, nil
}
