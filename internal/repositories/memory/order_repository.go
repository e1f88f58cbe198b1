package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	domain "github.com/hanko-field/orders/internal/domain"
	"github.com/hanko-field/orders/internal/repositories"
)

// OrderRepository keeps orders in process memory. All state changes happen under one mutex,
// which gives the same conditional-write guarantees as the Firestore transactions.
type OrderRepository struct {
	mu       sync.RWMutex
	orders   map[string]domain.Order
	byNumber map[string]string
	byToken  map[string]string
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository constructs an empty in-memory order repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:   make(map[string]domain.Order),
		byNumber: make(map[string]string),
		byToken:  make(map[string]string),
	}
}

func (r *OrderRepository) Insert(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(order.ID) == "" || strings.TrimSpace(order.ConfirmationToken) == "" {
		return conflict("orders.insert", "order id and confirmation token are required")
	}
	if _, taken := r.byToken[order.ConfirmationToken]; taken {
		return repositories.NewTokenCollisionError("orders.insert")
	}
	if _, exists := r.orders[order.ID]; exists {
		return repositories.NewDuplicateOrderError("orders.insert", order.ID)
	}
	if _, exists := r.byNumber[order.OrderNumber]; exists {
		return repositories.NewDuplicateOrderError("orders.insert", order.OrderNumber)
	}

	r.orders[order.ID] = cloneOrder(order)
	r.byNumber[order.OrderNumber] = order.ID
	r.byToken[order.ConfirmationToken] = order.ID
	return nil
}

func (r *OrderRepository) Update(_ context.Context, order domain.Order, expectedVersion int64) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[order.ID]
	if !ok {
		return domain.Order{}, notFound("orders.update", order.ID)
	}
	if current.Version != expectedVersion {
		return domain.Order{}, repositories.NewVersionMismatchError("orders.update", expectedVersion, current.Version)
	}
	// number and token are immutable once assigned
	order.OrderNumber = current.OrderNumber
	order.ConfirmationToken = current.ConfirmationToken
	order.Version = expectedVersion + 1
	r.orders[order.ID] = cloneOrder(order)
	return cloneOrder(order), nil
}

func (r *OrderRepository) Delete(_ context.Context, orderID string, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[orderID]
	if !ok {
		return notFound("orders.delete", orderID)
	}
	if current.Version != expectedVersion {
		return repositories.NewVersionMismatchError("orders.delete", expectedVersion, current.Version)
	}
	delete(r.orders, orderID)
	delete(r.byNumber, current.OrderNumber)
	delete(r.byToken, current.ConfirmationToken)
	return nil
}

func (r *OrderRepository) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[strings.TrimSpace(orderID)]
	if !ok {
		return domain.Order{}, notFound("orders.find", orderID)
	}
	return cloneOrder(order), nil
}

func (r *OrderRepository) FindByNumber(_ context.Context, orderNumber string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byNumber[strings.TrimSpace(orderNumber)]
	if !ok {
		return domain.Order{}, notFound("orders.find_by_number", orderNumber)
	}
	return cloneOrder(r.orders[id]), nil
}

func (r *OrderRepository) FindByToken(_ context.Context, token string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byToken[strings.TrimSpace(token)]
	if !ok {
		return domain.Order{}, notFound("orders.find_by_token", "token")
	}
	return cloneOrder(r.orders[id]), nil
}

// List returns matching orders newest first, ties broken by order number.
func (r *OrderRepository) List(_ context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if filter.Matches(order) {
			out = append(out, cloneOrder(order))
		}
	}
	slices.SortFunc(out, func(a, b domain.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.OrderNumber, a.OrderNumber)
	})
	return out, nil
}

func cloneOrder(order domain.Order) domain.Order {
	order.Items = slices.Clone(order.Items)
	order.History = slices.Clone(order.History)
	order.PaymentDate = cloneTime(order.PaymentDate)
	order.EstimatedDeliveryDate = cloneTime(order.EstimatedDeliveryDate)
	order.ActualDeliveryDate = cloneTime(order.ActualDeliveryDate)
	return order
}
