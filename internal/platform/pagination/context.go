package pagination

import (
	"context"
	"errors"
	"net/http"

	"github.com/hanko-field/orders/internal/platform/httpx"
)

type contextKey string

const paramsContextKey contextKey = "github.com/hanko-field/orders/internal/platform/pagination/params"

// WithParams stores parsed parameters on the context.
func WithParams(ctx context.Context, params Params) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, paramsContextKey, params)
}

// FromContext returns parameters stored by WithParams or Middleware.
func FromContext(ctx context.Context) (Params, bool) {
	if ctx == nil {
		return Params{}, false
	}
	params, ok := ctx.Value(paramsContextKey).(Params)
	return params, ok
}

// Middleware parses list parameters once per request and rejects malformed ones with a
// VALIDATION_ERROR envelope.
func Middleware(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			params, err := FromRequest(r, opts)
			if err != nil {
				apiErr := httpx.NewError(httpx.CodeValidation, "invalid query parameters", http.StatusBadRequest)
				var paramErr *ParamError
				if errors.As(err, &paramErr) {
					apiErr = apiErr.WithFields(httpx.FieldError{Field: paramErr.Param, Message: paramErr.Message})
				}
				httpx.WriteError(r.Context(), w, apiErr)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithParams(r.Context(), params)))
		})
	}
}
