package di

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/hanko-field/orders/internal/domain"
	"github.com/hanko-field/orders/internal/platform/config"
	"github.com/hanko-field/orders/internal/repositories/memory"
	"github.com/hanko-field/orders/internal/services"
)

func loadTestConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load(context.Background(),
		config.WithEnvFile(""),
		config.WithoutSystemEnv(),
		config.WithEnvMap(map[string]string{
			"API_ORDERS_STORE":    config.StoreMemory,
			"API_ORDERS_TIMEZONE": "UTC",
		}),
	)
	require.NoError(t, err)
	return cfg
}

func TestNewContainerRequiresRegistry(t *testing.T) {
	_, err := NewContainer(loadTestConfig(t), nil, Collaborators{})
	assert.Error(t, err)
}

func TestContainerOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	reg := memory.NewRegistry(domain.Customer{ID: "cus_1", Name: "Ada Lovelace", Email: "ada@example.com"})

	container, err := NewContainer(loadTestConfig(t), reg, Collaborators{
		Clock: func() time.Time { return now },
		Build: services.BuildInfo{Version: "test", Environment: "local"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close(ctx) })
	svc := container.Services

	order, err := svc.Orders.CreateOrder(ctx, services.CreateOrderCommand{
		CustomerID: "cus_1",
		Contact:    services.CustomerContact{Name: "Ada Lovelace", Email: "ada@example.com"},
		Items: []domain.CartItem{{
			ProductID: "p1",
			VariantID: "v1",
			Quantity:  2,
			UnitPrice: 1000,
			Snapshot:  domain.ProductSnapshot{ProductName: "Tee"},
		}},
		ShippingAddress: domain.Address{Recipient: "Ada", Street: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"},
		PaymentMethod:   domain.PaymentMethodCashOnDelivery,
		ShippingMethod:  domain.ShippingMethodExpress,
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-20250301-0001", order.OrderNumber)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Len(t, order.ConfirmationToken, 64)
	assert.Equal(t, int64(2000+200+1500), order.Totals.Total)

	view, err := svc.Queries.LookupCustomerOrder(ctx, services.CustomerLookupQuery{OrderNumber: order.OrderNumber, Email: "ADA@example.com"})
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, view.OrderNumber)

	_, err = svc.Queries.LookupCustomerOrder(ctx, services.CustomerLookupQuery{OrderNumber: order.OrderNumber, Email: "eve@example.com"})
	assert.ErrorIs(t, err, services.ErrOrderNotFound)

	confirmed := domain.OrderStatusConfirmed
	updated, err := svc.Orders.UpdateOrder(ctx, services.UpdateOrderCommand{
		OrderID:         order.ID,
		Status:          &confirmed,
		ExpectedVersion: &order.Version,
		Actor:           services.Actor{ID: "ops_1", Roles: []string{"ops"}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, updated.Status)
	assert.Equal(t, order.Version+1, updated.Version)

	stats, err := svc.Queries.ComputeStats(ctx, services.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalOrders)

	export, err := svc.Exports.Export(ctx, services.OrderExportCommand{Actor: services.Actor{ID: "ops_1", Roles: []string{"ops"}}})
	require.NoError(t, err)
	assert.Equal(t, 1, export.Rows)
	assert.NotEmpty(t, export.Content)

	report, err := svc.System.HealthReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.HealthStatusOK, report.Status)
	assert.Equal(t, "test", report.Version)
}
