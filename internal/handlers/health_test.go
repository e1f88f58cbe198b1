package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "github.com/hanko-field/orders/internal/domain"
	"github.com/hanko-field/orders/internal/platform/httpx"
	"github.com/hanko-field/orders/internal/services"
)

func TestHealthzReportsBuildInfo(t *testing.T) {
	started := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	now := started.Add(90 * time.Second)
	h := NewHealthHandlers(
		WithHealthBuildInfo(services.BuildInfo{Version: "1.4.0", Environment: "staging", StartedAt: started}),
		WithHealthClock(func() time.Time { return now }),
	)

	rr := httptest.NewRecorder()
	h.Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var payload healthPayload
	decodeData(t, decodeEnvelope(t, rr.Body.Bytes()), &payload)
	if payload.Status != domain.HealthStatusOK || payload.Version != "1.4.0" || payload.Environment != "staging" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.Uptime != "1m30s" || payload.Timestamp != "2025-03-01T09:01:30Z" {
		t.Fatalf("unexpected timing %+v", payload)
	}
}

func TestReadyz(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	cases := map[string]struct {
		system     *stubSystemService
		wantStatus int
		wantCode   string
	}{
		"ok": {
			system: &stubSystemService{report: services.SystemHealthReport{
				Status:      domain.HealthStatusOK,
				GeneratedAt: now,
				Checks:      map[string]domain.SystemHealthCheck{"firestore": {Status: domain.HealthStatusOK, Latency: 3 * time.Millisecond}},
			}},
			wantStatus: http.StatusOK,
		},
		"degraded still serves": {
			system: &stubSystemService{report: services.SystemHealthReport{
				Status:      domain.HealthStatusDegraded,
				GeneratedAt: now,
				Checks:      map[string]domain.SystemHealthCheck{"storage": {Status: domain.HealthStatusDegraded, Detail: "slow"}},
			}},
			wantStatus: http.StatusOK,
		},
		"error fails": {
			system: &stubSystemService{report: services.SystemHealthReport{
				Status:      domain.HealthStatusError,
				GeneratedAt: now,
				Checks:      map[string]domain.SystemHealthCheck{"firestore": {Status: domain.HealthStatusError, Error: "deadline exceeded"}},
			}},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   httpx.CodeUnavailable,
		},
		"report failure": {
			system:     &stubSystemService{err: errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   httpx.CodeServer,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := NewHealthHandlers(WithHealthSystemService(tc.system))
			rr := httptest.NewRecorder()
			h.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rr.Code)
			}
			env := decodeEnvelope(t, rr.Body.Bytes())
			if env.Code != tc.wantCode {
				t.Fatalf("expected code %q, got %q", tc.wantCode, env.Code)
			}
			if tc.wantStatus == http.StatusOK {
				var payload healthPayload
				decodeData(t, env, &payload)
				if len(payload.Checks) != 1 {
					t.Fatalf("expected checks in payload, got %+v", payload)
				}
			}
		})
	}
}

func TestReadyzWithoutSystemFallsBackToLiveness(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHealthHandlers().Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
