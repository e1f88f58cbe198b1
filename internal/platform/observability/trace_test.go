package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hanko-field/orders/internal/platform/requestctx"
)

func TestParseCloudTraceContext(t *testing.T) {
	info, spanCtx, ok := parseCloudTraceContext("105445aa7843bc8bf206b12000100000/1;o=1")
	if !ok {
		t.Fatal("expected header to parse")
	}
	if info.TraceID != "105445aa7843bc8bf206b12000100000" {
		t.Fatalf("unexpected trace id %s", info.TraceID)
	}
	if info.SpanID != "0000000000000001" {
		t.Fatalf("expected decimal span id to be converted, got %s", info.SpanID)
	}
	if !info.Sampled || !spanCtx.IsSampled() {
		t.Fatal("expected sampled flag")
	}
}

func TestParseCloudTraceContextRejectsMalformed(t *testing.T) {
	for _, header := range []string{"", "abc", "short/1", "105445aa7843bc8bf206b12000100000/"} {
		if _, _, ok := parseCloudTraceContext(header); ok {
			t.Fatalf("expected %q to be rejected", header)
		}
	}
}

func TestTraceMiddlewareStoresTraceInfo(t *testing.T) {
	var captured requestctx.TraceInfo
	handler := TraceMiddleware("shop-dev")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = requestctx.Trace(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders/ORD-20260101-0001", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured.TraceID != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("expected traceparent trace id to propagate, got %q", captured.TraceID)
	}
	if captured.ProjectID != "shop-dev" {
		t.Fatalf("expected project id, got %q", captured.ProjectID)
	}
}
