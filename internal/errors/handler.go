package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/render"

	"csvcert/internal/infrastructure"
	"csvcert/internal/ingest"
	"csvcert/internal/regulation"
)

// ErrorHandler converts errors to RFC 7807 responses in one place, so
// handlers never hand-roll error bodies.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates the central error handler. includeStack attaches
// stack traces to 500 responses and is meant for development only.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError logs the error and writes its problem response.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := infrastructure.TraceID(r.Context())
	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", reqID)
	render.Render(w, r, problem)
}

// ErrorToProblem maps an error to its RFC 7807 representation. Expected,
// recoverable outcomes carry the structured detail the caller needs to
// self-correct.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	var missingErr *ingest.MissingColumnsError
	if errors.As(err, &missingErr) {
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeMissingColumns,
			"Required Columns Missing",
			"Required columns missing in file",
			r.URL.Path,
		).
			WithExtension("missing_columns", missingErr.Missing).
			WithExtension("available_columns", missingErr.Available)
	}

	var dupTargetErr *ingest.DuplicateTargetError
	if errors.As(err, &dupTargetErr) {
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeInvalidMapping,
			"Ambiguous Column Mapping",
			err.Error(),
			r.URL.Path,
		).
			WithExtension("target", dupTargetErr.Target).
			WithExtension("sources", dupTargetErr.Sources)
	}

	if errors.Is(err, regulation.ErrUnknownRegulation) {
		return NewProblemDetails(
			http.StatusNotFound,
			TypeUnknownRegulation,
			"Unknown Regulation",
			err.Error(),
			r.URL.Path,
		)
	}

	if errors.Is(err, ingest.ErrNoHeader) {
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeUnreadableFile,
			"Unreadable File",
			"No valid headers found in the uploaded file",
			r.URL.Path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	)
}

func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.StatusCode {
	case http.StatusBadRequest:
		problemType = TypeValidation
	case http.StatusNotFound:
		problemType = TypeNotFound
	case http.StatusTooManyRequests:
		problemType = TypeRateLimit
	case http.StatusRequestEntityTooLarge:
		problemType = TypePayloadTooLarge
	}
	if apiErr.ErrorCode == "UNKNOWN_REGULATION" {
		problemType = TypeUnknownRegulation
	}
	if apiErr.ErrorCode == "FILE_NOT_FOUND" {
		problemType = TypeFileNotFound
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// HandlePanic reports a recovered panic as a 500 problem.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := infrastructure.TraceID(r.Context())
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.String("panic", fmt.Sprint(recovered)),
		slog.String("request_id", reqID),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprint(recovered)).
			WithExtension("stack", string(debug.Stack()))
	}
	render.Render(w, r, problem)
}

// NotFound is the router's fallback handler.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		fmt.Sprintf("The requested resource %s was not found", r.URL.Path),
		r.URL.Path,
	))
}

// MethodNotAllowed is the router's fallback for unsupported methods.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeValidation,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for %s", r.Method, r.URL.Path),
		r.URL.Path,
	))
}
