package idempotency

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hanko-field/orders/internal/platform/auth"
	"github.com/hanko-field/orders/internal/platform/httpx"
	"github.com/hanko-field/orders/internal/platform/requestctx"
)

const (
	// DefaultHeader carries the client-chosen key.
	DefaultHeader = "Idempotency-Key"
	// ReplayHeader is set on responses served from a stored record.
	ReplayHeader = "X-Idempotent-Replay"

	maxKeyLength = 255
	anonymous    = "anonymous"
)

type middlewareConfig struct {
	header   string
	ttl      time.Duration
	required bool
	clock    func() time.Time
	logger   *zap.Logger
}

// MiddlewareOption customises Middleware.
type MiddlewareOption func(*middlewareConfig)

// WithHeader overrides the header holding the key.
func WithHeader(name string) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if name = strings.TrimSpace(name); name != "" {
			cfg.header = name
		}
	}
}

// WithTTL sets how long records are retained.
func WithTTL(ttl time.Duration) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if ttl > 0 {
			cfg.ttl = ttl
		}
	}
}

// WithKeyRequired rejects requests that omit the key instead of passing them through.
func WithKeyRequired() MiddlewareOption {
	return func(cfg *middlewareConfig) { cfg.required = true }
}

// WithLogger sets the fallback logger used when the request context carries none.
func WithLogger(logger *zap.Logger) MiddlewareOption {
	return func(cfg *middlewareConfig) { cfg.logger = logger }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

// Middleware makes the wrapped handler safe to retry. The first request with a given key
// runs the handler and stores its response; later requests with the same key and body
// replay it, while a different body under the same key is rejected with 409.
func Middleware(store Store, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if store == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	cfg := middlewareConfig{header: DefaultHeader, ttl: DefaultTTL, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := cfg.logger
			if fromCtx := requestctx.Logger(ctx); fromCtx != requestctx.NoopLogger() || logger == nil {
				logger = fromCtx
			}

			key := strings.TrimSpace(r.Header.Get(cfg.header))
			if key == "" {
				if cfg.required {
					httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeValidation, "missing "+cfg.header+" header", http.StatusBadRequest))
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxKeyLength {
				httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeValidation, cfg.header+" header is too long", http.StatusBadRequest))
				return
			}

			body, err := bufferBody(r)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					httpx.WriteError(ctx, w, httpx.NewError(httpx.CodePayloadTooLarge, "request body too large", http.StatusRequestEntityTooLarge))
					return
				}
				httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeValidation, "unable to read request body", http.StatusBadRequest))
				return
			}

			requester := requesterID(r)
			scoped := key + "|" + requester
			fingerprint := fingerprintRequest(r, body, requester)

			reservation, err := store.Reserve(ctx, scoped, fingerprint, cfg.clock().UTC(), cfg.ttl)
			if err != nil {
				if errors.Is(err, ErrFingerprintMismatch) {
					httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeIdempotencyConflict, "idempotency key already used for a different request", http.StatusConflict))
					return
				}
				logger.Error("idempotency.reserve.failed", zap.Error(err))
				httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeUnavailable, "unable to process idempotency key", http.StatusServiceUnavailable))
				return
			}

			switch reservation.State {
			case ReservationStateCompleted:
				replay(w, reservation.Record)
				return
			case ReservationStatePending:
				httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeIdempotencyConflict, "a request with this idempotency key is still in progress", http.StatusConflict))
				return
			}

			rec := newRecorder()
			next.ServeHTTP(rec, r)

			// Server errors are not cached so the client can retry with the same key.
			if rec.Status() >= http.StatusInternalServerError {
				if err := store.Release(ctx, scoped); err != nil {
					logger.Warn("idempotency.release.failed", zap.Error(err))
				}
				rec.flush(w)
				return
			}

			resp := Response{Status: rec.Status(), Headers: rec.header.Clone(), Body: rec.body.Bytes()}
			if err := store.SaveResponse(ctx, scoped, fingerprint, resp, cfg.clock().UTC(), cfg.ttl); err != nil {
				logger.Error("idempotency.save.failed", zap.Error(err))
				if err := store.Release(ctx, scoped); err != nil {
					logger.Warn("idempotency.release.failed", zap.Error(err))
				}
			}
			rec.flush(w)
		})
	}
}

func bufferBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

func requesterID(r *http.Request) string {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok && identity.UID != "" {
		return identity.UID
	}
	return anonymous
}

func fingerprintRequest(r *http.Request, body []byte, requester string) string {
	var b strings.Builder
	for _, part := range []string{
		strings.ToUpper(r.Method),
		r.URL.Path,
		r.URL.RawQuery,
		r.Header.Get("Content-Type"),
		requester,
	} {
		b.WriteString(part)
		b.WriteByte('|')
	}
	if len(body) > 0 {
		b.WriteString(sha256Hex(body))
	}
	return sha256Hex([]byte(b.String()))
}

func replay(w http.ResponseWriter, record Record) {
	header := w.Header()
	for name, values := range record.ResponseHeaders {
		header[name] = append([]string(nil), values...)
	}
	header.Set(ReplayHeader, "true")
	status := record.ResponseStatus
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(record.ResponseBody) > 0 {
		_, _ = w.Write(record.ResponseBody)
	}
}

type recorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header)}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
}

func (r *recorder) Write(data []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(data)
}

func (r *recorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (r *recorder) flush(w http.ResponseWriter) {
	dst := w.Header()
	for name, values := range r.header {
		dst[name] = values
	}
	w.WriteHeader(r.Status())
	if r.body.Len() > 0 {
		_, _ = w.Write(r.body.Bytes())
	}
}
