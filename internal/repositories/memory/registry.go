package memory

import (
	"context"

	domain "github.com/hanko-field/orders/internal/domain"
	"github.com/hanko-field/orders/internal/repositories"
)

// Registry bundles the in-memory repositories used for local development and tests.
type Registry struct {
	orders    *OrderRepository
	customers *CustomerRepository
	counters  *CounterRepository
	audit     *AuditLogRepository
	health    repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry constructs a registry whose customer store is seeded with the given customers.
func NewRegistry(customers ...domain.Customer) *Registry {
	health, _ := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{{
		Name:     "memory",
		Critical: true,
		Check:    func(context.Context) error { return nil },
	}})
	return &Registry{
		orders:    NewOrderRepository(),
		customers: NewCustomerRepository(customers...),
		counters:  NewCounterRepository(),
		audit:     NewAuditLogRepository(),
		health:    health,
	}
}

func (r *Registry) Close(context.Context) error { return nil }

func (r *Registry) Orders() repositories.OrderRepository       { return r.orders }
func (r *Registry) Customers() repositories.CustomerRepository { return r.customers }
func (r *Registry) Counters() repositories.CounterRepository   { return r.counters }
func (r *Registry) AuditLogs() repositories.AuditLogRepository { return r.audit }
func (r *Registry) Health() repositories.HealthRepository      { return r.health }

// CustomerStore exposes the concrete customer store so callers can register customers.
func (r *Registry) CustomerStore() *CustomerRepository { return r.customers }
