// The validatecsv command validates a delimited file or workbook against a
// regulation from the command line, without running the HTTP service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"csvcert/internal/config"
	"csvcert/internal/engine"
	"csvcert/internal/exporter"
	"csvcert/internal/infrastructure"
	"csvcert/internal/ingest"
	"csvcert/internal/regulation"
	"csvcert/pkg/contracts/domain"
)

func main() {
	regulationCode := flag.String("regulation", "", "regulation code (CO, PE, IMS); empty runs format checks only")
	requiredList := flag.String("required", "", "comma-separated required columns, overrides the regulation's list")
	mappingList := flag.String("map", "", "column mappings as column=field pairs (source CSV header first), comma-separated")
	errorsOut := flag.String("errors", "", "write invalid rows to this CSV file")
	workers := flag.Int("workers", 0, "validation workers (0 = derive from CPU count)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: validatecsv [flags] <file.csv|file.xlsx>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	logger, closeLogger, err := infrastructure.NewLogger(config.LoggingConfig{
		Level:  "warn",
		Format: "text",
		Output: "console",
	})
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer closeLogger()
	slog.SetDefault(logger)

	report, err := run(path, *regulationCode, *requiredList, *mappingList, *workers)
	if err != nil {
		logger.Error("validation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *errorsOut != "" {
		if err := writeErrorReport(*errorsOut, report); err != nil {
			logger.Error("failed to write error report", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("failed to encode report", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if report.InvalidRows > 0 {
		os.Exit(1)
	}
}

func run(path, regulationCode, requiredList, mappingList string, workers int) (*domain.ValidationReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var dataset *ingest.Dataset
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		dataset, err = ingest.ReadWorkbook(data)
	} else {
		dataset, err = ingest.ReadCSV(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}

	schema := regulation.Default()
	if regulationCode != "" {
		schema, err = regulation.NewRegistry().Get(regulationCode)
		if err != nil {
			return nil, err
		}
	}

	required := schema.RequiredFields
	if requiredList != "" {
		required = splitList(requiredList)
	}
	mapping, err := parseMapping(mappingList)
	if err != nil {
		return nil, err
	}

	if err := ingest.Reconcile(dataset.Columns, required, mapping); err != nil {
		return nil, err
	}

	eng := engine.New(engine.WithWorkers(workers))
	results, err := eng.Validate(context.Background(), dataset.Rows, schema, required, mapping)
	if err != nil {
		return nil, err
	}
	dups := engine.FindDuplicates(dataset.Rows, mapping, engine.DefaultDuplicateKeys())
	return engine.Aggregate(results, dups), nil
}

func writeErrorReport(path string, report *domain.ValidationReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return exporter.WriteErrorReport(f, report, exporter.Options{BOMPrefix: true})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseMapping(s string) (domain.ColumnMapping, error) {
	if s == "" {
		return nil, nil
	}
	mapping := make(domain.ColumnMapping)
	for _, pair := range strings.Split(s, ",") {
		column, field, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || column == "" || field == "" {
			return nil, fmt.Errorf("invalid mapping %q, want column=field", pair)
		}
		mapping[column] = field
	}
	return mapping, nil
}
