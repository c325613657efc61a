// Package http exposes the validation service over a chi-routed JSON API
// with RFC 7807 error responses.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "csvcert/internal/errors"
	"csvcert/internal/middleware"
	"csvcert/internal/services"
	"csvcert/pkg/contracts/domain"
)

// multipartMemoryLimit bounds the in-memory part of multipart parsing;
// larger files spill to disk.
const multipartMemoryLimit = 10 << 20

// ValidationHandler handles dataset upload and validation requests.
type ValidationHandler struct {
	service       *services.ValidationService
	validation    *middleware.ValidationMiddleware
	logger        *slog.Logger
	errorHandler  *apierrors.ErrorHandler
	maxUploadSize int64
}

// NewValidationHandler creates the handler.
func NewValidationHandler(service *services.ValidationService, validation *middleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUploadSize int64) *ValidationHandler {
	return &ValidationHandler{
		service:       service,
		validation:    validation,
		logger:        logger.With(slog.String("component", "validation_handler")),
		errorHandler:  errorHandler,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the validation API routes.
func (h *ValidationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/upload", h.Upload)
	r.Post("/validate", h.Validate)
	r.Get("/validate/{fileID}/errors.csv", h.DownloadErrorReport)
	r.Post("/suggest-mappings", h.SuggestMappings)
	r.Delete("/files/{fileID}", h.DeleteFile)

	r.Get("/regulations", h.ListRegulations)
	r.Get("/regulation-fields/{code}", h.RegulationFields)

	return r
}

// validateRequest is the POST /validate body. Omitted parameters fall back
// to the values recorded at upload time.
type validateRequest struct {
	FileID          string               `json:"file_id" validate:"required,uuid4"`
	RequiredColumns []string             `json:"required_columns" validate:"omitempty,dive,column_name"`
	ColumnMappings  domain.ColumnMapping `json:"column_mappings"`
	Regulation      string               `json:"regulation" validate:"omitempty,regulation_code"`
}

// suggestMappingsRequest is the POST /suggest-mappings body.
type suggestMappingsRequest struct {
	FileID  string   `json:"file_id" validate:"required,uuid4"`
	Targets []string `json:"targets" validate:"required,min=1,dive,column_name"`
}

// Upload handles POST /upload. The dataset arrives as multipart form data:
// the file itself plus optional JSON-encoded required_columns,
// column_mappings, and a regulation code.
func (h *ValidationHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartMemoryLimit)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest, "MISSING_PARAMETER", "No file provided in the 'file' form field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	params := services.UploadParams{
		Filename:   header.Filename,
		Regulation: r.FormValue("regulation"),
	}
	if err := decodeFormJSON(r.FormValue("required_columns"), &params.RequiredColumns); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest, "INVALID_REQUEST", "required_columns must be a JSON array of strings"))
		return
	}
	if err := decodeFormJSON(r.FormValue("column_mappings"), &params.Mapping); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest, "INVALID_REQUEST", "column_mappings must be a JSON object of strings"))
		return
	}

	result, err := h.service.Upload(r.Context(), data, params)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// Validate handles POST /validate.
func (h *ValidationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.Validate(r.Context(), req.FileID, services.ValidateParams{
		RequiredColumns: req.RequiredColumns,
		Mapping:         req.ColumnMappings,
		Regulation:      req.Regulation,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// DownloadErrorReport handles GET /validate/{fileID}/errors.csv.
func (h *ValidationHandler) DownloadErrorReport(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	data, filename, err := h.service.ErrorReportCSV(r.Context(), fileID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.Write(data)
}

// SuggestMappings handles POST /suggest-mappings.
func (h *ValidationHandler) SuggestMappings(w http.ResponseWriter, r *http.Request) {
	var req suggestMappingsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	mapping, err := h.service.SuggestColumnMapping(req.FileID, req.Targets)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"file_id":  req.FileID,
		"mappings": mapping,
	})
}

// DeleteFile handles DELETE /files/{fileID}.
func (h *ValidationHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	if err := h.service.DeleteFile(fileID); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// ListRegulations handles GET /regulations.
func (h *ValidationHandler) ListRegulations(w http.ResponseWriter, r *http.Request) {
	regulations := make(map[string]string)
	for _, info := range h.service.Regulations() {
		regulations[info.Code] = info.Name
	}
	render.JSON(w, r, map[string]interface{}{
		"regulations": regulations,
	})
}

// RegulationFields handles GET /regulation-fields/{code}.
func (h *ValidationHandler) RegulationFields(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	name, fields, err := h.service.RegulationFields(code)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"code":            code,
		"name":            name,
		"required_fields": fields,
	})
}

func decodeFormJSON(value string, dst interface{}) error {
	if value == "" {
		return nil
	}
	return json.Unmarshal([]byte(value), dst)
}
