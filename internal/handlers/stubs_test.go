package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hanko-field/orders/internal/platform/auth"
	"github.com/hanko-field/orders/internal/platform/httpx"
	"github.com/hanko-field/orders/internal/services"
)

var errNotImplemented = errors.New("not implemented")

type stubOrderService struct {
	createFn     func(context.Context, services.CreateOrderCommand) (services.Order, error)
	transitionFn func(context.Context, services.TransitionOrderCommand) (services.Order, error)
	updateFn     func(context.Context, services.UpdateOrderCommand) (services.Order, error)
	deleteFn     func(context.Context, services.DeleteOrderCommand) error
}

func (s *stubOrderService) CreateOrder(ctx context.Context, cmd services.CreateOrderCommand) (services.Order, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.Order{}, errNotImplemented
}

func (s *stubOrderService) Transition(ctx context.Context, cmd services.TransitionOrderCommand) (services.Order, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, cmd)
	}
	return services.Order{}, errNotImplemented
}

func (s *stubOrderService) UpdateOrder(ctx context.Context, cmd services.UpdateOrderCommand) (services.Order, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return services.Order{}, errNotImplemented
}

func (s *stubOrderService) DeleteOrder(ctx context.Context, cmd services.DeleteOrderCommand) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, cmd)
	}
	return errNotImplemented
}

type stubOrderQueryService struct {
	getFn    func(context.Context, string) (services.Order, error)
	listFn   func(context.Context, services.OrderListQuery) (services.OrderListResult, error)
	statsFn  func(context.Context, services.OrderFilter) (services.OrderStats, error)
	lookupFn func(context.Context, services.CustomerLookupQuery) (services.CustomerOrderView, error)
	tokenFn  func(context.Context, string) (services.CustomerOrderView, error)
}

func (s *stubOrderQueryService) GetOrder(ctx context.Context, id string) (services.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return services.Order{}, errNotImplemented
}

func (s *stubOrderQueryService) ListOrders(ctx context.Context, q services.OrderListQuery) (services.OrderListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, q)
	}
	return services.OrderListResult{}, nil
}

func (s *stubOrderQueryService) ComputeStats(ctx context.Context, f services.OrderFilter) (services.OrderStats, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx, f)
	}
	return services.OrderStats{}, nil
}

func (s *stubOrderQueryService) LookupCustomerOrder(ctx context.Context, q services.CustomerLookupQuery) (services.CustomerOrderView, error) {
	if s.lookupFn != nil {
		return s.lookupFn(ctx, q)
	}
	return services.CustomerOrderView{}, errNotImplemented
}

func (s *stubOrderQueryService) LookupByConfirmationToken(ctx context.Context, token string) (services.CustomerOrderView, error) {
	if s.tokenFn != nil {
		return s.tokenFn(ctx, token)
	}
	return services.CustomerOrderView{}, errNotImplemented
}

type stubExportService struct {
	exportFn func(context.Context, services.OrderExportCommand) (services.OrderExportResult, error)
}

func (s *stubExportService) Export(ctx context.Context, cmd services.OrderExportCommand) (services.OrderExportResult, error) {
	if s.exportFn != nil {
		return s.exportFn(ctx, cmd)
	}
	return services.OrderExportResult{}, errNotImplemented
}

type stubSystemService struct {
	report  services.SystemHealthReport
	err     error
	entries []services.AuditLogEntry
	filter  services.AuditLogFilter
}

func (s *stubSystemService) HealthReport(context.Context) (services.SystemHealthReport, error) {
	return s.report, s.err
}

func (s *stubSystemService) ListAuditLogs(_ context.Context, filter services.AuditLogFilter) ([]services.AuditLogEntry, error) {
	s.filter = filter
	return s.entries, s.err
}

type stubPricingService struct {
	quoteFn func(context.Context, services.QuoteCommand) (services.Quote, error)
}

func (s *stubPricingService) Quote(ctx context.Context, cmd services.QuoteCommand) (services.Quote, error) {
	if s.quoteFn != nil {
		return s.quoteFn(ctx, cmd)
	}
	return services.Quote{}, errNotImplemented
}

// withIdentity stands in for the Firebase middleware in handler tests.
func withIdentity(uid string, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.WithIdentity(r.Context(), &auth.Identity{UID: uid, Roles: roles})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func mountRoutes(path string, register func(chi.Router), mw ...func(http.Handler) http.Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(mw...)
	router.Route(path, register)
	return router
}

type testEnvelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Code    string             `json:"code"`
	Data    json.RawMessage    `json:"data"`
	Errors  []httpx.FieldError `json:"errors"`
}

func decodeEnvelope(t *testing.T, body []byte) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, body)
	}
	return env
}

func decodeData(t *testing.T, env testEnvelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
}
