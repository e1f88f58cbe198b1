package firestore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/iterator"

	pfirestore "github.com/hanko-field/orders/internal/platform/firestore"
	"github.com/hanko-field/orders/internal/repositories"
)

// Registry wires the Firestore repositories around one shared provider.
type Registry struct {
	provider  *pfirestore.Provider
	orders    *OrderRepository
	customers *CustomerRepository
	counters  *CounterRepository
	audit     *AuditLogRepository
	health    repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry builds every repository on top of the provider. Additional dependency checks
// (for example Pub/Sub or Cloud Storage) are reported by the readiness probe alongside Firestore.
func NewRegistry(provider *pfirestore.Provider, lookup AuthUserLookup, extraChecks ...repositories.DependencyCheck) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry: provider is required")
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	customers, err := NewCustomerRepository(provider, lookup)
	if err != nil {
		return nil, err
	}
	counters, err := NewCounterRepository(provider)
	if err != nil {
		return nil, err
	}
	audit, err := NewAuditLogRepository(provider)
	if err != nil {
		return nil, err
	}

	checks := append([]repositories.DependencyCheck{{
		Name:     "firestore",
		Critical: true,
		Check:    pingFirestore(provider),
	}}, extraChecks...)
	health, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}

	return &Registry{
		provider:  provider,
		orders:    orders,
		customers: customers,
		counters:  counters,
		audit:     audit,
		health:    health,
	}, nil
}

func (r *Registry) Close(ctx context.Context) error { return r.provider.Close(ctx) }

func (r *Registry) Orders() repositories.OrderRepository       { return r.orders }
func (r *Registry) Customers() repositories.CustomerRepository { return r.customers }
func (r *Registry) Counters() repositories.CounterRepository   { return r.counters }
func (r *Registry) AuditLogs() repositories.AuditLogRepository { return r.audit }
func (r *Registry) Health() repositories.HealthRepository      { return r.health }

func pingFirestore(provider *pfirestore.Provider) func(context.Context) error {
	return func(ctx context.Context) error {
		client, err := provider.Client(ctx)
		if err != nil {
			return err
		}
		iter := client.Collection(countersCollection).Limit(1).Documents(ctx)
		defer iter.Stop()
		if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
			return pfirestore.WrapError("firestore.ping", err)
		}
		return nil
	}
}
