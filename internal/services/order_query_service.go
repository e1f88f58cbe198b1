package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	domain "github.com/hanko-field/orders/internal/domain"
	"github.com/hanko-field/orders/internal/platform/textutil"
	"github.com/hanko-field/orders/internal/repositories"
)

const (
	defaultOrderListLimit = 20
	maxOrderListLimit     = 100

	// customerLookupMessage is returned for every failed customer lookup so that callers cannot
	// probe which order numbers exist.
	customerLookupMessage = "order not found"
)

// Sort keys accepted by ListOrders.
const (
	OrderSortCreatedAt   = "createdAt"
	OrderSortTotal       = "total"
	OrderSortOrderNumber = "orderNumber"
	OrderSortStatus      = "status"
)

var defaultAdminMarkers = []string{"[admin]", "[internal]", "#internal"}

// OrderQueryServiceDeps bundles collaborators for the read paths.
type OrderQueryServiceDeps struct {
	Orders repositories.OrderRepository
	// AdminMarkers flag history notes that must never reach customers. Matched case-insensitively.
	AdminMarkers []string
	DefaultLimit int
	MaxLimit     int
	Logger       func(ctx context.Context, event string, fields map[string]any)
}

type orderQueryService struct {
	orders       repositories.OrderRepository
	adminMarkers []string
	defaultLimit int
	maxLimit     int
	logger       func(context.Context, string, map[string]any)
}

// NewOrderQueryService constructs the order list/report/lookup service.
func NewOrderQueryService(deps OrderQueryServiceDeps) (OrderQueryService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order query service: order repository is required")
	}
	markers := textutil.NormalizeList(deps.AdminMarkers)
	if markers == nil {
		markers = textutil.NormalizeList(defaultAdminMarkers)
	}
	maxLimit := deps.MaxLimit
	if maxLimit <= 0 {
		maxLimit = maxOrderListLimit
	}
	defaultLimit := deps.DefaultLimit
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = min(defaultOrderListLimit, maxLimit)
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &orderQueryService{
		orders:       deps.Orders,
		adminMarkers: markers,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       logger,
	}, nil
}

func (s *orderQueryService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, invalidField("orderId", "is required")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, mapQueryError(err)
	}
	return order, nil
}

func (s *orderQueryService) ListOrders(ctx context.Context, query OrderListQuery) (OrderListResult, error) {
	page := query.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return OrderListResult{}, invalidField("page", "must be at least 1")
	}
	limit := query.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit < 1 || limit > s.maxLimit {
		return OrderListResult{}, invalidField("limit", fmt.Sprintf("must be between 1 and %d", s.maxLimit))
	}
	sortBy, sortOrder, err := normalizeSort(query.SortBy, query.SortOrder)
	if err != nil {
		return OrderListResult{}, err
	}

	orders, err := listFiltered(ctx, s.orders, query.Filter)
	if err != nil {
		return OrderListResult{}, err
	}
	SortOrders(orders, sortBy, sortOrder)

	total := len(orders)
	start := total
	if page-1 < (total+limit-1)/limit {
		start = (page - 1) * limit
	}
	end := min(start+limit, total)

	return OrderListResult{
		Orders:     orders[start:end],
		Pagination: domain.NewPageInfo(page, limit, total),
		Stats:      ComputeStats(orders),
	}, nil
}

func (s *orderQueryService) ComputeStats(ctx context.Context, filter OrderFilter) (OrderStats, error) {
	orders, err := listFiltered(ctx, s.orders, filter)
	if err != nil {
		return OrderStats{}, err
	}
	return ComputeStats(orders), nil
}

// ComputeStats aggregates report figures. Revenue and the average exclude cancelled orders.
func ComputeStats(orders []Order) OrderStats {
	stats := OrderStats{TotalOrders: len(orders)}
	billable := 0
	for _, order := range orders {
		switch order.Status {
		case domain.OrderStatusPending:
			stats.PendingCount++
		case domain.OrderStatusProcessing:
			stats.ProcessingCount++
		case domain.OrderStatusDelivered:
			stats.DeliveredCount++
		}
		if order.Status == domain.OrderStatusCancelled {
			continue
		}
		stats.TotalRevenue += order.Totals.Total
		billable++
	}
	if billable > 0 {
		stats.AverageOrderValue = int64(math.Round(float64(stats.TotalRevenue) / float64(billable)))
	}
	return stats
}

func (s *orderQueryService) LookupCustomerOrder(ctx context.Context, query CustomerLookupQuery) (CustomerOrderView, error) {
	number := strings.ToUpper(strings.TrimSpace(query.OrderNumber))
	email := strings.TrimSpace(query.Email)
	phone := textutil.Digits(query.Phone)
	if number == "" {
		return CustomerOrderView{}, invalidField("orderNumber", "is required")
	}
	if email == "" && strings.TrimSpace(query.Phone) == "" {
		return CustomerOrderView{}, invalidField("email", "email or phone is required")
	}

	order, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return CustomerOrderView{}, lookupNotFound()
		}
		return CustomerOrderView{}, mapQueryError(err)
	}

	emailMismatch := email != "" && !textutil.EqualFold(email, order.Customer.Email)
	phoneMismatch := strings.TrimSpace(query.Phone) != "" && !phoneMatches(phone, order)
	if emailMismatch || phoneMismatch {
		s.logger(ctx, "order.lookup.ownership_mismatch", map[string]any{
			"order": order.ID,
			"email": emailMismatch,
			"phone": phoneMismatch,
		})
		return CustomerOrderView{}, lookupNotFound()
	}
	return s.project(order), nil
}

func (s *orderQueryService) LookupByConfirmationToken(ctx context.Context, token string) (CustomerOrderView, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return CustomerOrderView{}, invalidField("token", "is required")
	}
	order, err := s.orders.FindByToken(ctx, token)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return CustomerOrderView{}, lookupNotFound()
		}
		return CustomerOrderView{}, mapQueryError(err)
	}
	return s.project(order), nil
}

// listFiltered loads orders matching the storage-level filter, then applies the search term.
func listFiltered(ctx context.Context, repo repositories.OrderRepository, filter OrderFilter) ([]Order, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, invalidField("status", fmt.Sprintf("unknown status %q", status))
		}
	}
	for _, status := range filter.PaymentStatuses {
		if !status.Valid() {
			return nil, invalidField("paymentStatus", fmt.Sprintf("unknown payment status %q", status))
		}
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, invalidField("to", "must not be before from")
	}

	orders, err := repo.List(ctx, repositories.OrderListFilter{
		Statuses:        filter.Statuses,
		PaymentStatuses: filter.PaymentStatuses,
		CreatedAt:       domain.RangeQuery[time.Time]{From: filter.From, To: filter.To},
	})
	if err != nil {
		return nil, mapQueryError(err)
	}

	search := strings.TrimSpace(filter.Search)
	if search == "" {
		return orders, nil
	}
	matched := orders[:0]
	for _, order := range orders {
		if textutil.ContainsFold(search, order.OrderNumber, order.TrackingNumber, order.Customer.Name, order.Customer.Email) {
			matched = append(matched, order)
		}
	}
	return matched, nil
}

// project builds the customer-facing view: no internal notes, token, operator identities or
// history entries meant for staff only.
func (s *orderQueryService) project(order Order) CustomerOrderView {
	history := make([]CustomerHistoryEntry, 0, len(order.History))
	for _, entry := range order.History {
		if entry.Internal || s.hasAdminMarker(entry.Note) {
			continue
		}
		history = append(history, CustomerHistoryEntry{
			Status:    entry.Status,
			Note:      entry.Note,
			Timestamp: entry.Timestamp,
		})
	}
	return CustomerOrderView{
		OrderNumber:           order.OrderNumber,
		Status:                order.Status,
		PaymentStatus:         order.PaymentStatus,
		PaymentMethod:         order.PaymentMethod,
		PaymentDate:           order.PaymentDate,
		ShippingMethod:        order.ShippingMethod,
		Customer:              order.Customer,
		Items:                 append([]OrderItem(nil), order.Items...),
		Currency:              order.Currency,
		Totals:                order.Totals,
		ShippingAddress:       order.ShippingAddress,
		BillingAddress:        order.BillingAddress,
		EstimatedDeliveryDate: order.EstimatedDeliveryDate,
		ActualDeliveryDate:    order.ActualDeliveryDate,
		TrackingNumber:        order.TrackingNumber,
		Carrier:               order.Carrier,
		CustomerNotes:         order.CustomerNotes,
		History:               history,
		CreatedAt:             order.CreatedAt,
		UpdatedAt:             order.UpdatedAt,
	}
}

func (s *orderQueryService) hasAdminMarker(note string) bool {
	if note == "" {
		return false
	}
	folded := textutil.Fold(note)
	for _, marker := range s.adminMarkers {
		if strings.Contains(folded, marker) {
			return true
		}
	}
	return false
}

// statusRank orders statuses by lifecycle position for sorting.
var statusRank = func() map[OrderStatus]int {
	rank := make(map[OrderStatus]int, len(domain.OrderStatuses))
	for i, status := range domain.OrderStatuses {
		rank[status] = i
	}
	return rank
}()

// SortOrders sorts in place. Ties fall back to the order number so pages are stable.
func SortOrders(orders []Order, sortBy string, order SortOrder) {
	less := func(a, b Order) int {
		switch sortBy {
		case OrderSortTotal:
			return compareInt64(a.Totals.Total, b.Totals.Total)
		case OrderSortOrderNumber:
			return strings.Compare(a.OrderNumber, b.OrderNumber)
		case OrderSortStatus:
			return compareInt64(int64(statusRank[a.Status]), int64(statusRank[b.Status]))
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		cmp := less(orders[i], orders[j])
		if cmp == 0 {
			cmp = strings.Compare(orders[i].OrderNumber, orders[j].OrderNumber)
		}
		if order == domain.SortAsc {
			return cmp < 0
		}
		return cmp > 0
	})
}

func normalizeSort(sortBy string, order SortOrder) (string, SortOrder, error) {
	switch strings.TrimSpace(sortBy) {
	case "":
		sortBy = OrderSortCreatedAt
	case OrderSortCreatedAt, OrderSortTotal, OrderSortOrderNumber, OrderSortStatus:
		sortBy = strings.TrimSpace(sortBy)
	default:
		return "", "", invalidField("sortBy", fmt.Sprintf("unsupported sort field %q", sortBy))
	}
	switch SortOrder(strings.ToLower(strings.TrimSpace(string(order)))) {
	case "":
		order = domain.SortDesc
	case domain.SortAsc:
		order = domain.SortAsc
	case domain.SortDesc:
		order = domain.SortDesc
	default:
		return "", "", invalidField("sortOrder", "must be asc or desc")
	}
	return sortBy, order, nil
}

// phoneMatches compares digits only, against the customer contact and then the shipping phone.
func phoneMatches(digits string, order Order) bool {
	if digits == "" {
		return false
	}
	for _, candidate := range []string{order.Customer.Phone, order.ShippingAddress.Phone} {
		if d := textutil.Digits(candidate); d != "" && d == digits {
			return true
		}
	}
	return false
}

func lookupNotFound() error {
	return fmt.Errorf("%w: %s", ErrOrderNotFound, customerLookupMessage)
}

func mapQueryError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}
	return err
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
