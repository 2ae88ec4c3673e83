package errors

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/render"

	"shelfsense/internal/infrastructure"
	"shelfsense/internal/ingest"
)

// Problem types following RFC 7807
const (
	TypeValidation      = "/errors/validation"
	TypeNotFound        = "/errors/not-found"
	TypeRateLimit       = "/errors/rate-limit"
	TypeInternal        = "/errors/internal"
	TypeTimeout         = "/errors/timeout"
	TypePayloadTooLarge = "/errors/payload-too-large"
)

// Domain-specific problem types
const (
	TypeMissingColumns    = "/errors/ingest/missing-columns"
	TypeEmptyFile         = "/errors/ingest/empty-file"
	TypeUnsupportedFormat = "/errors/ingest/unsupported-format"
	TypeMalformedFile     = "/errors/ingest/malformed-file"
	TypeNoSnapshot        = "/errors/snapshot/not-loaded"
)

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Additional fields for extensibility
	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON custom marshaler to include extensions
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{})
	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status
	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}
	for k, v := range pd.Extensions {
		data[k] = v
	}
	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	traceID := infrastructure.GetTraceID(r.Context())

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr),
	)

	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", traceID)

	if h.includeStack {
		problem.WithExtension("stack", string(debug.Stack()))
	}

	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
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

	// Ingestion errors carry structured detail the UI renders directly
	var missingErr *ingest.MissingColumnError
	if errors.As(err, &missingErr) {
		problem := NewProblemDetails(
			http.StatusBadRequest,
			TypeMissingColumns,
			"Missing Required Columns",
			missingErr.Error(),
			r.URL.Path,
		)
		problem.WithExtension("missing_columns", missingErr.Columns)
		if len(missingErr.Suggestions) > 0 {
			problem.WithExtension("suggestions", missingErr.Suggestions)
		}
		return problem
	}

	var emptyErr *ingest.EmptyFileError
	if errors.As(err, &emptyErr) {
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeEmptyFile,
			"Empty File",
			emptyErr.Error(),
			r.URL.Path,
		)
	}

	var formatErr *ingest.UnsupportedFormatError
	if errors.As(err, &formatErr) {
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeUnsupportedFormat,
			"Unsupported File Format",
			formatErr.Error(),
			r.URL.Path,
		)
	}

	var malformedErr *ingest.MalformedFileError
	if errors.As(err, &malformedErr) {
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeMalformedFile,
			"Malformed File",
			malformedErr.Error(),
			r.URL.Path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		problem := NewProblemDetails(
			apiErr.StatusCode,
			problemTypeForCode(apiErr.ErrorCode),
			http.StatusText(apiErr.StatusCode),
			apiErr.Message,
			r.URL.Path,
		)
		if apiErr.Details != nil {
			problem.WithExtension("details", apiErr.Details)
		}
		return problem
	}

	// Fall through to a generic internal error without leaking internals
	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	)
}

// problemTypeForCode maps APIError codes to problem type URIs
func problemTypeForCode(code string) string {
	switch code {
	case "VALIDATION_FAILED", "INVALID_REQUEST", "MISSING_PARAMETER":
		return TypeValidation
	case "NOT_FOUND":
		return TypeNotFound
	case "NO_SNAPSHOT":
		return TypeNoSnapshot
	case "RATE_LIMIT_EXCEEDED":
		return TypeRateLimit
	case "PAYLOAD_TOO_LARGE":
		return TypePayloadTooLarge
	default:
		return TypeInternal
	}
}
