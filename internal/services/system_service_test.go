package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/hanko-field/orders/internal/domain"
)

type stubHealthRepository struct {
	report domain.SystemHealthReport
	err    error
	calls  int
}

func (s *stubHealthRepository) Collect(context.Context) (domain.SystemHealthReport, error) {
	s.calls++
	return s.report, s.err
}

func TestSystemServiceHealthReportEnrichesMetadata(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(5 * time.Minute)
	repo := &stubHealthRepository{
		report: domain.SystemHealthReport{
			Checks: map[string]domain.SystemHealthCheck{
				"orders": {Status: domain.HealthStatusOK},
			},
		},
	}

	svc, err := NewSystemService(SystemServiceDeps{
		HealthRepository: repo,
		Clock:            func() time.Time { return now },
		Build: BuildInfo{
			Version:     "1.2.3",
			Environment: "prod",
			StartedAt:   start,
		},
	})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}

	report, err := svc.HealthReport(context.Background())
	if err != nil {
		t.Fatalf("HealthReport: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("expected repository called once, got %d", repo.calls)
	}
	if report.Status != domain.HealthStatusOK {
		t.Fatalf("expected ok status, got %s", report.Status)
	}
	if report.Version != "1.2.3" || report.Environment != "prod" {
		t.Fatalf("expected build metadata, got %+v", report)
	}
	if report.Uptime != 5*time.Minute {
		t.Fatalf("expected uptime 5m, got %s", report.Uptime)
	}
	if !report.GeneratedAt.Equal(now) {
		t.Fatalf("expected generated at %s, got %s", now, report.GeneratedAt)
	}
}

func TestSystemServiceHealthReportDerivesStatus(t *testing.T) {
	cases := map[string]struct {
		checks map[string]domain.SystemHealthCheck
		want   string
	}{
		"no checks": {want: domain.HealthStatusOK},
		"degraded": {
			checks: map[string]domain.SystemHealthCheck{
				"orders": {Status: domain.HealthStatusOK},
				"events": {Status: domain.HealthStatusDegraded},
			},
			want: domain.HealthStatusDegraded,
		},
		"error wins": {
			checks: map[string]domain.SystemHealthCheck{
				"events": {Status: domain.HealthStatusDegraded},
				"orders": {Status: domain.HealthStatusError},
			},
			want: domain.HealthStatusError,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, err := NewSystemService(SystemServiceDeps{
				HealthRepository: &stubHealthRepository{report: domain.SystemHealthReport{Checks: tc.checks}},
			})
			if err != nil {
				t.Fatalf("NewSystemService: %v", err)
			}
			report, err := svc.HealthReport(context.Background())
			if err != nil {
				t.Fatalf("HealthReport: %v", err)
			}
			if report.Status != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, report.Status)
			}
			if report.Checks == nil {
				t.Fatalf("expected non-nil checks map")
			}
		})
	}
}

func TestSystemServiceHealthReportPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	svc, err := NewSystemService(SystemServiceDeps{HealthRepository: &stubHealthRepository{err: boom}})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}
	if _, err := svc.HealthReport(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected repository error, got %v", err)
	}
}

func TestSystemServiceListAuditLogs(t *testing.T) {
	audit := &stubAuditService{result: []AuditLogEntry{{ID: "aud_1"}}}
	svc, err := NewSystemService(SystemServiceDeps{HealthRepository: &stubHealthRepository{}, Audit: audit})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}

	entries, err := svc.ListAuditLogs(context.Background(), AuditLogFilter{TargetRef: "/orders/ord_1", Limit: 10})
	if err != nil {
		t.Fatalf("ListAuditLogs: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "aud_1" {
		t.Fatalf("unexpected entries %#v", entries)
	}
	if audit.filter.TargetRef != "/orders/ord_1" || audit.filter.Limit != 10 {
		t.Fatalf("expected filter forwarded, got %+v", audit.filter)
	}

	unconfigured, err := NewSystemService(SystemServiceDeps{HealthRepository: &stubHealthRepository{}})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}
	if _, err := unconfigured.ListAuditLogs(context.Background(), AuditLogFilter{}); err == nil {
		t.Fatalf("expected error without audit service")
	}
}

func TestNewSystemServiceRequiresHealthRepository(t *testing.T) {
	if _, err := NewSystemService(SystemServiceDeps{}); err == nil {
		t.Fatalf("expected error")
	}
}
