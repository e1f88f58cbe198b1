package memory

import (
	"context"
	"strings"
	"sync"

	domain "github.com/hanko-field/orders/internal/domain"
	"github.com/hanko-field/orders/internal/repositories"
)

// CustomerRepository serves customers registered in process memory.
type CustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]domain.Customer
}

var _ repositories.CustomerRepository = (*CustomerRepository)(nil)

// NewCustomerRepository constructs a repository seeded with the provided customers.
func NewCustomerRepository(seed ...domain.Customer) *CustomerRepository {
	repo := &CustomerRepository{customers: make(map[string]domain.Customer, len(seed))}
	for _, customer := range seed {
		repo.Put(customer)
	}
	return repo
}

// Put registers or replaces a customer.
func (r *CustomerRepository) Put(customer domain.Customer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[strings.TrimSpace(customer.ID)] = customer
}

func (r *CustomerRepository) FindByID(_ context.Context, customerID string) (domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	customer, ok := r.customers[strings.TrimSpace(customerID)]
	if !ok {
		return domain.Customer{}, notFound("customers.find", customerID)
	}
	return customer, nil
}
