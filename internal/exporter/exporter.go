// Package exporter serializes validation reports as downloadable CSV.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"csvcert/pkg/contracts/domain"
)

// errorReportHeader is the fixed header of the invalid-row report.
var errorReportHeader = []string{"row", "code", "errors"}

// Options configures report serialization.
type Options struct {
	// BOMPrefix writes a UTF-8 BOM so Excel recognizes the encoding.
	BOMPrefix bool
	// Separator joins a row's error messages into one cell. Defaults to "; ".
	Separator string
}

// WriteErrorReport writes one CSV line per invalid row: its position, its
// identifying code, and the joined error messages. Valid rows are omitted
// and the output is never truncated, regardless of any display limit the
// caller applies elsewhere.
func WriteErrorReport(w io.Writer, report *domain.ValidationReport, opts Options) error {
	separator := opts.Separator
	if separator == "" {
		separator = "; "
	}

	if opts.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(errorReportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	written := 0
	for _, result := range report.Results {
		if result.Valid {
			continue
		}
		record := []string{
			strconv.Itoa(result.Row),
			result.Code,
			strings.Join(result.Errors, separator),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", result.Row, err)
		}
		written++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	slog.Debug("wrote error report",
		slog.Int("invalid_rows", written),
		slog.Int("total_rows", report.TotalRows))
	return nil
}
