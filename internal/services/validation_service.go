// Package services implements the application's use cases on top of the
// ingestion, regulation, and engine layers. Handlers stay thin; all decisions
// about datasets and validation runs live here.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"csvcert/internal/config"
	"csvcert/internal/engine"
	apierrors "csvcert/internal/errors"
	"csvcert/internal/exporter"
	"csvcert/internal/ingest"
	"csvcert/internal/regulation"
	"csvcert/internal/store"
	"csvcert/pkg/contracts/domain"
)

// ValidationService owns the upload-then-validate workflow.
type ValidationService struct {
	cfg      *config.Config
	registry *regulation.Registry
	engine   *engine.Engine
	store    *store.Store
	logger   *slog.Logger
}

// NewValidationService wires the service with its collaborators.
func NewValidationService(cfg *config.Config, registry *regulation.Registry, eng *engine.Engine, st *store.Store, logger *slog.Logger) *ValidationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidationService{
		cfg:      cfg,
		registry: registry,
		engine:   eng,
		store:    st,
		logger:   logger.With(slog.String("component", "validation_service")),
	}
}

// UploadParams carries the client's intent alongside the raw file.
type UploadParams struct {
	Filename        string
	RequiredColumns []string
	Mapping         domain.ColumnMapping
	Regulation      string
}

// UploadResult is returned after a successful upload: a handle to the stored
// dataset plus a preview for the client to confirm parsing looked right.
type UploadResult struct {
	FileID            string              `json:"file_id"`
	Rows              int                 `json:"rows"`
	Data              []map[string]string `json:"data"`
	Columns           []string            `json:"columns"`
	DetectedDelimiter string              `json:"detected_delimiter"`
	DetectedEncoding  string              `json:"detected_encoding"`
}

// ValidateParams overrides the parameters remembered from upload time. Empty
// values fall back to what the upload recorded.
type ValidateParams struct {
	RequiredColumns []string
	Mapping         domain.ColumnMapping
	Regulation      string
}

// RegulationInfo is one registered schema, for listing.
type RegulationInfo struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Fields int    `json:"fields"`
}

// Upload parses and stores an uploaded dataset. The file is parsed once here
// so malformed uploads fail fast, before any validation run is attempted.
func (s *ValidationService) Upload(ctx context.Context, data []byte, params UploadParams) (*UploadResult, error) {
	start := time.Now()

	if int64(len(data)) > s.cfg.Upload.MaxFileSize {
		return nil, apierrors.ErrPayloadTooLarge
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(params.Filename)), ".")
	if !s.cfg.Upload.AllowsExtension(ext) {
		return nil, apierrors.ErrUnsupportedMedia
	}

	dataset, err := s.readDataset(data, ext, 0)
	if err != nil {
		return nil, err
	}

	// Reconcile against the caller's list or the regulation's. A plain
	// upload with neither is stored as-is; the default expected-fields
	// list binds at validation time, so mismatched files can still be
	// uploaded and mapped before a run.
	if len(params.RequiredColumns) > 0 || params.Regulation != "" {
		required, _, err := s.resolveRequiredFields(params.RequiredColumns, params.Regulation)
		if err != nil {
			return nil, err
		}
		if err := ingest.Reconcile(dataset.Columns, required, params.Mapping); err != nil {
			return nil, err
		}
	} else if err := ingest.Reconcile(dataset.Columns, nil, params.Mapping); err != nil {
		return nil, err
	}

	entry, err := s.store.Save(data, store.Entry{
		Filename:        params.Filename,
		Columns:         dataset.Columns,
		RowCount:        len(dataset.Rows),
		Delimiter:       dataset.Delimiter,
		Encoding:        dataset.Encoding,
		Mapping:         params.Mapping,
		RequiredColumns: params.RequiredColumns,
		Regulation:      params.Regulation,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "file uploaded",
		slog.String("file_id", entry.ID),
		slog.String("filename", params.Filename),
		slog.Int("rows", len(dataset.Rows)),
		slog.String("delimiter", string(dataset.Delimiter)),
		slog.String("encoding", dataset.Encoding),
		slog.Duration("duration", time.Since(start)))

	return &UploadResult{
		FileID:            entry.ID,
		Rows:              len(dataset.Rows),
		Data:              dataset.Sample(s.cfg.Upload.PreviewRows),
		Columns:           dataset.Columns,
		DetectedDelimiter: string(dataset.Delimiter),
		DetectedEncoding:  dataset.Encoding,
	}, nil
}

// Validate runs the full pipeline against a stored dataset: row validation,
// whole-dataset duplicate detection, then aggregation. The report is attached
// to the stored entry for later export.
func (s *ValidationService) Validate(ctx context.Context, fileID string, params ValidateParams) (*domain.ValidationReport, error) {
	start := time.Now()

	entry, err := s.store.Get(fileID)
	if err != nil {
		return nil, s.mapStoreError(err)
	}
	data, err := s.store.ReadFile(fileID)
	if err != nil {
		return nil, s.mapStoreError(err)
	}

	required := params.RequiredColumns
	if required == nil {
		required = entry.RequiredColumns
	}
	mapping := params.Mapping
	if mapping == nil {
		mapping = entry.Mapping
	}
	regulationCode := params.Regulation
	if regulationCode == "" {
		regulationCode = entry.Regulation
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(entry.Filename)), ".")
	dataset, err := s.readDataset(data, ext, entry.Delimiter)
	if err != nil {
		return nil, err
	}

	required, schema, err := s.resolveRequiredFields(required, regulationCode)
	if err != nil {
		return nil, err
	}
	if err := ingest.Reconcile(dataset.Columns, required, mapping); err != nil {
		return nil, err
	}

	results, err := s.engine.Validate(ctx, dataset.Rows, schema, required, mapping)
	if err != nil {
		return nil, err
	}
	dups := engine.FindDuplicates(dataset.Rows, mapping, engine.DefaultDuplicateKeys())
	report := engine.Aggregate(results, dups)

	if err := s.store.SetValidation(fileID, required, mapping, regulationCode, report); err != nil {
		return nil, s.mapStoreError(err)
	}

	s.logger.InfoContext(ctx, "validation completed",
		slog.String("file_id", fileID),
		slog.String("regulation", regulationCode),
		slog.Int("total_rows", report.TotalRows),
		slog.Int("valid_rows", report.ValidRows),
		slog.Int("invalid_rows", report.InvalidRows),
		slog.Duration("duration", time.Since(start)))

	return report, nil
}

// ErrorReportCSV renders the invalid rows of the latest report as CSV. If the
// dataset has never been validated, a run with the upload-time parameters is
// performed first.
func (s *ValidationService) ErrorReportCSV(ctx context.Context, fileID string) ([]byte, string, error) {
	entry, err := s.store.Get(fileID)
	if err != nil {
		return nil, "", s.mapStoreError(err)
	}

	report := entry.Report
	if report == nil {
		report, err = s.Validate(ctx, fileID, ValidateParams{})
		if err != nil {
			return nil, "", err
		}
	}

	var buf bytes.Buffer
	if err := exporter.WriteErrorReport(&buf, report, exporter.Options{BOMPrefix: true}); err != nil {
		return nil, "", fmt.Errorf("write error report: %w", err)
	}

	base := strings.TrimSuffix(entry.Filename, filepath.Ext(entry.Filename))
	if base == "" {
		base = fileID
	}
	return buf.Bytes(), base + "_errors.csv", nil
}

// Regulations lists the registered schemas, sorted by code.
func (s *ValidationService) Regulations() []RegulationInfo {
	var infos []RegulationInfo
	for code, name := range s.registry.List() {
		fields, _ := s.registry.RequiredFields(code)
		infos = append(infos, RegulationInfo{Code: code, Name: name, Fields: len(fields)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Code < infos[j].Code })
	return infos
}

// RegulationFields returns one regulation's display name and its ordered
// required fields.
func (s *ValidationService) RegulationFields(code string) (string, []string, error) {
	schema, err := s.registry.Get(code)
	if err != nil {
		return "", nil, err
	}
	return schema.Name, schema.RequiredFields, nil
}

// SuggestColumnMapping proposes source columns for each wanted target field,
// based on the stored dataset's header.
func (s *ValidationService) SuggestColumnMapping(fileID string, targets []string) (domain.ColumnMapping, error) {
	entry, err := s.store.Get(fileID)
	if err != nil {
		return nil, s.mapStoreError(err)
	}
	return ingest.SuggestMapping(entry.Columns, targets), nil
}

// DeleteFile discards a stored upload.
func (s *ValidationService) DeleteFile(fileID string) error {
	if err := s.store.Delete(fileID); err != nil {
		return s.mapStoreError(err)
	}
	return nil
}

// readDataset parses raw upload bytes. Workbooks carry their own structure;
// text is decoded and delimiter-sniffed unless a known delimiter is supplied.
func (s *ValidationService) readDataset(data []byte, ext string, delimiter rune) (*ingest.Dataset, error) {
	if ext == "xlsx" {
		return ingest.ReadWorkbook(data)
	}
	if delimiter != 0 {
		return ingest.ReadCSVWithDelimiter(data, delimiter)
	}
	return ingest.ReadCSV(data)
}

// resolveRequiredFields decides which fields a run must check. Explicitly
// requested columns always win; otherwise the regulation's field list is
// used. The returned schema still applies regulation-specific rules either
// way.
func (s *ValidationService) resolveRequiredFields(explicit []string, regulationCode string) ([]string, *regulation.Schema, error) {
	schema := regulation.Default()
	if regulationCode != "" {
		var err error
		schema, err = s.registry.Get(regulationCode)
		if err != nil {
			return nil, nil, err
		}
	}
	if len(explicit) > 0 {
		return explicit, schema, nil
	}
	return schema.RequiredFields, schema, nil
}

func (s *ValidationService) mapStoreError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apierrors.ErrFileNotFound
	}
	return err
}
