package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/hanko-field/orders/internal/platform/requestctx"
)

// Stable machine-readable error codes returned in the envelope.
const (
	CodeValidation             = "VALIDATION_ERROR"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeNotFound               = "RESOURCE_NOT_FOUND"
	CodeCustomerNotFound       = "CUSTOMER_NOT_FOUND"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeIdempotencyConflict    = "IDEMPOTENCY_CONFLICT"
	CodePayloadTooLarge        = "PAYLOAD_TOO_LARGE"
	CodeMethodNotAllowed       = "METHOD_NOT_ALLOWED"
	CodeRateLimited            = "RATE_LIMITED"
	CodeServer                 = "SERVER_ERROR"
	CodeUnavailable            = "SERVICE_UNAVAILABLE"
)

// Envelope is the response shape shared by every endpoint.
type Envelope struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Data      any          `json:"data,omitempty"`
	Code      string       `json:"code,omitempty"`
	Errors    []FieldError `json:"errors,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	TraceID   string       `json:"trace_id,omitempty"`
}

// FieldError reports a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error represents a failed response before it is rendered into an Envelope.
type Error struct {
	Code    string
	Message string
	Status  int
	Fields  []FieldError
}

// NewError constructs a new Error with the provided parameters.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    sanitize(code, 80),
		Message: sanitize(message, 512),
		Status:  status,
	}
}

// WithFields attaches per-field validation failures.
func (e Error) WithFields(fields ...FieldError) Error {
	if len(fields) == 0 {
		return e
	}
	out := make([]FieldError, 0, len(fields))
	for _, f := range fields {
		out = append(out, FieldError{Field: sanitize(f.Field, 80), Message: sanitize(f.Message, 256)})
	}
	e.Fields = out
	return e
}

// WriteError writes the structured error envelope.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	code := err.Code
	if code == "" {
		code = CodeServer
	}
	writeEnvelope(ctx, w, status, Envelope{
		Success: false,
		Message: err.Message,
		Code:    code,
		Errors:  err.Fields,
	})
}

// WriteSuccess writes a successful envelope carrying data.
func WriteSuccess(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	if status == 0 {
		status = http.StatusOK
	}
	writeEnvelope(ctx, w, status, Envelope{
		Success: true,
		Message: sanitize(message, 512),
		Data:    data,
	})
}

func writeEnvelope(ctx context.Context, w http.ResponseWriter, status int, env Envelope) {
	env.RequestID = sanitize(middleware.GetReqID(ctx), 80)
	env.TraceID = sanitize(requestctx.TraceID(ctx), 64)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func sanitize(value string, limit int) string {
	if limit <= 0 {
		limit = 256
	}
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
