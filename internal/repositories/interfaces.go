package repositories

import (
	"context"
	"time"

	domain "github.com/hanko-field/orders/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	Customers() CustomerRepository
	Counters() CounterRepository
	AuditLogs() AuditLogRepository
	Health() HealthRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// OrderRepository persists orders. Every mutation is conditional on the stored version so that
// concurrent writers cannot silently overwrite each other's history appends.
type OrderRepository interface {
	// Insert stores a new order and reserves its confirmation token. A taken token fails with an
	// OrderStoreError carrying OrderStoreTokenCollision.
	Insert(ctx context.Context, order domain.Order) error
	// Update replaces the order when the stored version equals expectedVersion and returns the
	// persisted order with its version incremented.
	Update(ctx context.Context, order domain.Order, expectedVersion int64) (domain.Order, error)
	// Delete removes the order and releases its confirmation token.
	Delete(ctx context.Context, orderID string, expectedVersion int64) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	FindByToken(ctx context.Context, token string) (domain.Order, error)
	// List returns every order matching the storage-level filter, newest first.
	List(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
}

// CustomerRepository resolves the purchasing accounts referenced by orders.
type CustomerRepository interface {
	FindByID(ctx context.Context, customerID string) (domain.Customer, error)
}

// AuditLogRepository persists immutable audit trail entries.
type AuditLogRepository interface {
	Append(ctx context.Context, entry domain.AuditLogEntry) error
	List(ctx context.Context, filter AuditLogFilter) ([]domain.AuditLogEntry, error)
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
	Configure(ctx context.Context, counterID string, cfg CounterConfig) error
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// OrderListFilter narrows List results. Empty slices match every value.
type OrderListFilter struct {
	Statuses        []domain.OrderStatus
	PaymentStatuses []domain.PaymentStatus
	CreatedAt       domain.RangeQuery[time.Time]
}

// Matches reports whether the order satisfies the filter.
func (f OrderListFilter) Matches(order domain.Order) bool {
	if len(f.Statuses) > 0 && !containsValue(f.Statuses, order.Status) {
		return false
	}
	if len(f.PaymentStatuses) > 0 && !containsValue(f.PaymentStatuses, order.PaymentStatus) {
		return false
	}
	return f.CreatedAt.Contains(order.CreatedAt, func(a, b time.Time) bool { return a.Before(b) })
}

// AuditLogFilter narrows audit log listings.
type AuditLogFilter struct {
	TargetRef string
	Action    string
	Limit     int
}

// CounterConfig captures optional counter settings.
type CounterConfig struct {
	Step     int64
	MaxValue *int64
}

func containsValue[T comparable](values []T, candidate T) bool {
	for _, value := range values {
		if value == candidate {
			return true
		}
	}
	return false
}
