package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	domain "github.com/hanko-field/orders/internal/domain"
	"github.com/hanko-field/orders/internal/platform/httpx"
	"github.com/hanko-field/orders/internal/services"
)

func TestNewRouter_DefaultMounts(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	healthHandlers := NewHealthHandlers(
		WithHealthSystemService(&stubSystemService{
			report: services.SystemHealthReport{
				Status:      domain.HealthStatusOK,
				Uptime:      5 * time.Second,
				GeneratedAt: now,
				Checks: map[string]domain.SystemHealthCheck{
					"firestore": {Status: domain.HealthStatusOK},
				},
			},
		}),
		WithHealthClock(func() time.Time { return now }),
	)

	router := NewRouter(WithHealthHandlers(healthHandlers))

	t.Run("healthz", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("expected content-type application/json, got %s", ct)
		}
	})

	t.Run("readyz", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
	})

	for _, path := range []string{"/api/cart/quote", "/api/orders", "/api/admin/orders"} {
		t.Run("not implemented "+path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

			if rr.Code != http.StatusNotImplemented {
				t.Fatalf("expected status 501, got %d", rr.Code)
			}
			if env := decodeEnvelope(t, rr.Body.Bytes()); env.Success || env.Code != "NOT_IMPLEMENTED" {
				t.Fatalf("unexpected envelope %+v", env)
			}
		})
	}

	t.Run("unknown route", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rr.Code)
		}
		if env := decodeEnvelope(t, rr.Body.Bytes()); env.Code != httpx.CodeNotFound {
			t.Fatalf("expected %s, got %s", httpx.CodeNotFound, env.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/healthz", nil))

		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405, got %d", rr.Code)
		}
		if env := decodeEnvelope(t, rr.Body.Bytes()); env.Code != httpx.CodeMethodNotAllowed {
			t.Fatalf("expected %s, got %s", httpx.CodeMethodNotAllowed, env.Code)
		}
	})
}

func TestNewRouter_CustomRegistrars(t *testing.T) {
	var hits []string
	register := func(name string) RouteRegistrar {
		return func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, req *http.Request) {
				hits = append(hits, name)
				w.WriteHeader(http.StatusNoContent)
			})
		}
	}

	var seenRequestID bool
	router := NewRouter(
		WithBasePath("/v2"),
		WithMiddlewares(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenRequestID = seenRequestID || middleware.GetReqID(r.Context()) != ""
				next.ServeHTTP(w, r)
			})
		}),
		WithCartRoutes(register("cart")),
		WithOrderRoutes(register("orders")),
		WithAdminRoutes(register("admin")),
	)

	for _, path := range []string{"/v2/cart", "/v2/orders", "/v2/admin"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusNoContent {
			t.Fatalf("%s: expected 204, got %d", path, rr.Code)
		}
	}
	if len(hits) != 3 || hits[0] != "cart" || hits[2] != "admin" {
		t.Fatalf("unexpected hits %v", hits)
	}
	if !seenRequestID {
		t.Fatalf("expected request id middleware to run before custom middleware")
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected old prefix to be unmounted, got %d", rr.Code)
	}
}
