package middleware

import (
	"log/slog"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "csvcert/internal/errors"
)

var regulationCodePattern = regexp.MustCompile(`^[A-Z]{2,10}$`)

// ValidationMiddleware validates request DTOs against their struct tags.
type ValidationMiddleware struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxBodySize  int64
}

// NewValidationMiddleware registers the domain validators and returns the
// middleware.
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New()

	v.RegisterValidation("regulation_code", isRegulationCode)
	v.RegisterValidation("column_name", isColumnName)

	// Error messages name fields by their JSON tag.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ValidationMiddleware{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
		maxBodySize:  1 << 20,
	}
}

// ValidateStruct checks a decoded DTO and wraps failures as one APIError.
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs []apierrors.ValidationError
	for _, fe := range err.(validator.ValidationErrors) {
		fieldErrs = append(fieldErrs, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatFieldError(fe),
		})
	}
	return apierrors.NewValidationErrors(fieldErrs)
}

// LimitJSONBody caps request bodies for the JSON endpoints. File uploads are
// bounded separately by the upload size limit.
func (m *ValidationMiddleware) LimitJSONBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > m.maxBodySize {
			m.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusRequestEntityTooLarge,
				"PAYLOAD_TOO_LARGE",
				"Request body exceeds maximum allowed size",
				map[string]interface{}{"max_size": m.maxBodySize, "size": r.ContentLength},
			))
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, m.maxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid4", "uuid":
		return "must be a valid UUID"
	case "regulation_code":
		return "must be an uppercase regulation code"
	case "column_name":
		return "contains invalid characters"
	case "max":
		return "exceeds maximum length of " + fe.Param()
	default:
		return "failed validation rule " + fe.Tag()
	}
}

func isRegulationCode(fl validator.FieldLevel) bool {
	return regulationCodePattern.MatchString(fl.Field().String())
}

func isColumnName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return name != "" && !strings.ContainsAny(name, "\r\n\x00")
}
