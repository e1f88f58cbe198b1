package handlers

import (
	"strings"
	"time"

	domain "github.com/hanko-field/orders/internal/domain"
	"github.com/hanko-field/orders/internal/services"
)

type addressPayload struct {
	Recipient  string `json:"recipient"`
	Street     string `json:"street"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

func (p addressPayload) toDomain() domain.Address {
	return domain.Address{
		Recipient:  p.Recipient,
		Street:     p.Street,
		Line2:      p.Line2,
		City:       p.City,
		State:      p.State,
		PostalCode: p.PostalCode,
		Country:    p.Country,
		Phone:      p.Phone,
	}
}

func buildAddressPayload(a domain.Address) addressPayload {
	return addressPayload{
		Recipient:  a.Recipient,
		Street:     a.Street,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

type cartItemPayload struct {
	ProductID        string `json:"productId"`
	VariantID        string `json:"variantId"`
	Quantity         int    `json:"quantity"`
	UnitPrice        int64  `json:"unitPrice"`
	PromotionalPrice *int64 `json:"promotionalPrice,omitempty"`
	ProductName      string `json:"productName"`
	VariantName      string `json:"variantName,omitempty"`
	Size             string `json:"size,omitempty"`
	ImageURL         string `json:"imageUrl,omitempty"`
}

func toCartItems(items []cartItemPayload) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		out = append(out, domain.CartItem{
			ProductID:        item.ProductID,
			VariantID:        item.VariantID,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			PromotionalPrice: item.PromotionalPrice,
			Snapshot: domain.ProductSnapshot{
				ProductName: item.ProductName,
				VariantName: item.VariantName,
				Size:        item.Size,
				ImageURL:    item.ImageURL,
			},
		})
	}
	return out
}

type quoteRequest struct {
	Items          []cartItemPayload `json:"items"`
	ShippingMethod string            `json:"shippingMethod"`
	Discount       int64             `json:"discount"`
}

type customerContactPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type createOrderRequest struct {
	CustomerID      string                 `json:"customerId"`
	Customer        customerContactPayload `json:"customer"`
	Items           []cartItemPayload      `json:"items"`
	ShippingAddress addressPayload         `json:"shippingAddress"`
	BillingAddress  *addressPayload        `json:"billingAddress,omitempty"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ShippingMethod  string                 `json:"shippingMethod"`
	Discount        int64                  `json:"discount"`
	Notes           string                 `json:"notes,omitempty"`
}

func (req createOrderRequest) toCommand(actor services.Actor) services.CreateOrderCommand {
	cmd := services.CreateOrderCommand{
		CustomerID: strings.TrimSpace(req.CustomerID),
		Contact: services.CustomerContact{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Items:           toCartItems(req.Items),
		ShippingAddress: req.ShippingAddress.toDomain(),
		PaymentMethod:   domain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod))),
		ShippingMethod:  domain.ShippingMethod(strings.ToLower(strings.TrimSpace(req.ShippingMethod))),
		Discount:        req.Discount,
		CustomerNotes:   req.Notes,
		Actor:           actor,
	}
	if req.BillingAddress != nil {
		billing := req.BillingAddress.toDomain()
		cmd.BillingAddress = &billing
	}
	return cmd
}

type updateOrderRequest struct {
	Status                *string    `json:"status,omitempty"`
	Note                  string     `json:"note,omitempty"`
	Internal              bool       `json:"internal,omitempty"`
	PaymentStatus         *string    `json:"paymentStatus,omitempty"`
	PaymentDate           *time.Time `json:"paymentDate,omitempty"`
	EstimatedDeliveryDate *time.Time `json:"estimatedDeliveryDate,omitempty"`
	ActualDeliveryDate    *time.Time `json:"actualDeliveryDate,omitempty"`
	TrackingNumber        *string    `json:"trackingNumber,omitempty"`
	Carrier               *string    `json:"carrier,omitempty"`
	InternalNotes         *string    `json:"internalNotes,omitempty"`
	Version               *int64     `json:"version,omitempty"`
}

func (req updateOrderRequest) toCommand(orderID string, actor services.Actor) services.UpdateOrderCommand {
	cmd := services.UpdateOrderCommand{
		OrderID:               orderID,
		Note:                  req.Note,
		Internal:              req.Internal,
		PaymentDate:           req.PaymentDate,
		EstimatedDeliveryDate: req.EstimatedDeliveryDate,
		ActualDeliveryDate:    req.ActualDeliveryDate,
		TrackingNumber:        req.TrackingNumber,
		Carrier:               req.Carrier,
		InternalNotes:         req.InternalNotes,
		ExpectedVersion:       req.Version,
		Actor:                 actor,
	}
	if req.Status != nil {
		status := domain.OrderStatus(strings.ToLower(strings.TrimSpace(*req.Status)))
		cmd.Status = &status
	}
	if req.PaymentStatus != nil {
		status := domain.PaymentStatus(strings.ToLower(strings.TrimSpace(*req.PaymentStatus)))
		cmd.PaymentStatus = &status
	}
	return cmd
}

type orderItemPayload struct {
	ProductID    string `json:"productId"`
	VariantID    string `json:"variantId"`
	ProductName  string `json:"productName"`
	VariantName  string `json:"variantName,omitempty"`
	Size         string `json:"size,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
	RegularPrice int64  `json:"regularPrice"`
	UnitPrice    int64  `json:"unitPrice"`
	Quantity     int    `json:"quantity"`
	LineTotal    int64  `json:"lineTotal"`
}

func buildOrderItemPayloads(items []domain.OrderItem) []orderItemPayload {
	out := make([]orderItemPayload, 0, len(items))
	for _, item := range items {
		out = append(out, orderItemPayload{
			ProductID:    item.ProductID,
			VariantID:    item.VariantID,
			ProductName:  item.ProductName,
			VariantName:  item.VariantName,
			Size:         item.Size,
			ImageURL:     item.ImageURL,
			RegularPrice: item.RegularPrice,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			LineTotal:    item.LineTotal,
		})
	}
	return out
}

type totalsPayload struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Shipping int64 `json:"shipping"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}

func buildTotalsPayload(t domain.OrderTotals) totalsPayload {
	return totalsPayload{Subtotal: t.Subtotal, Tax: t.Tax, Shipping: t.Shipping, Discount: t.Discount, Total: t.Total}
}

type quotePayload struct {
	Items          []orderItemPayload `json:"items"`
	Totals         totalsPayload      `json:"totals"`
	Currency       string             `json:"currency"`
	ShippingMethod string             `json:"shippingMethod"`
	TaxRate        float64            `json:"taxRate"`
}

func buildQuotePayload(q services.Quote) quotePayload {
	return quotePayload{
		Items:          buildOrderItemPayloads(q.Items),
		Totals:         buildTotalsPayload(q.Totals),
		Currency:       q.Currency,
		ShippingMethod: string(q.ShippingMethod),
		TaxRate:        q.TaxRate,
	}
}

type historyPayload struct {
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
	Timestamp string `json:"timestamp"`
	UpdatedBy string `json:"updatedBy,omitempty"`
	Internal  bool   `json:"internal,omitempty"`
}

type orderPayload struct {
	ID                    string                 `json:"id"`
	OrderNumber           string                 `json:"orderNumber"`
	ConfirmationToken     string                 `json:"confirmationToken"`
	CustomerID            string                 `json:"customerId"`
	Customer              customerContactPayload `json:"customer"`
	Items                 []orderItemPayload     `json:"items"`
	Currency              string                 `json:"currency"`
	Totals                totalsPayload          `json:"totals"`
	ShippingAddress       addressPayload         `json:"shippingAddress"`
	BillingAddress        addressPayload         `json:"billingAddress"`
	Status                string                 `json:"status"`
	PaymentMethod         string                 `json:"paymentMethod"`
	PaymentStatus         string                 `json:"paymentStatus"`
	PaymentDate           string                 `json:"paymentDate,omitempty"`
	ShippingMethod        string                 `json:"shippingMethod"`
	EstimatedDeliveryDate string                 `json:"estimatedDeliveryDate,omitempty"`
	ActualDeliveryDate    string                 `json:"actualDeliveryDate,omitempty"`
	TrackingNumber        string                 `json:"trackingNumber,omitempty"`
	Carrier               string                 `json:"carrier,omitempty"`
	CustomerNotes         string                 `json:"customerNotes,omitempty"`
	InternalNotes         string                 `json:"internalNotes,omitempty"`
	History               []historyPayload       `json:"history"`
	Version               int64                  `json:"version"`
	CreatedAt             string                 `json:"createdAt"`
	UpdatedAt             string                 `json:"updatedAt"`
}

func buildOrderPayload(o domain.Order) orderPayload {
	history := make([]historyPayload, 0, len(o.History))
	for _, entry := range o.History {
		history = append(history, historyPayload{
			Status:    string(entry.Status),
			Note:      entry.Note,
			Timestamp: formatTime(entry.Timestamp),
			UpdatedBy: entry.UpdatedBy,
			Internal:  entry.Internal,
		})
	}
	return orderPayload{
		ID:                    o.ID,
		OrderNumber:           o.OrderNumber,
		ConfirmationToken:     o.ConfirmationToken,
		CustomerID:            o.CustomerID,
		Customer:              customerContactPayload{Name: o.Customer.Name, Email: o.Customer.Email, Phone: o.Customer.Phone},
		Items:                 buildOrderItemPayloads(o.Items),
		Currency:              o.Currency,
		Totals:                buildTotalsPayload(o.Totals),
		ShippingAddress:       buildAddressPayload(o.ShippingAddress),
		BillingAddress:        buildAddressPayload(o.BillingAddress),
		Status:                string(o.Status),
		PaymentMethod:         string(o.PaymentMethod),
		PaymentStatus:         string(o.PaymentStatus),
		PaymentDate:           formatTimePtr(o.PaymentDate),
		ShippingMethod:        string(o.ShippingMethod),
		EstimatedDeliveryDate: formatTimePtr(o.EstimatedDeliveryDate),
		ActualDeliveryDate:    formatTimePtr(o.ActualDeliveryDate),
		TrackingNumber:        o.TrackingNumber,
		Carrier:               o.Carrier,
		CustomerNotes:         o.CustomerNotes,
		InternalNotes:         o.InternalNotes,
		History:               history,
		Version:               o.Version,
		CreatedAt:             formatTime(o.CreatedAt),
		UpdatedAt:             formatTime(o.UpdatedAt),
	}
}

// customerOrderPayload is the public projection. It has no fields for internal notes,
// operator identities or the confirmation token.
type customerOrderPayload struct {
	OrderNumber           string                 `json:"orderNumber"`
	Status                string                 `json:"status"`
	PaymentStatus         string                 `json:"paymentStatus"`
	PaymentMethod         string                 `json:"paymentMethod"`
	PaymentDate           string                 `json:"paymentDate,omitempty"`
	ShippingMethod        string                 `json:"shippingMethod"`
	Customer              customerContactPayload `json:"customer"`
	Items                 []orderItemPayload     `json:"items"`
	Currency              string                 `json:"currency"`
	Totals                totalsPayload          `json:"totals"`
	ShippingAddress       addressPayload         `json:"shippingAddress"`
	BillingAddress        addressPayload         `json:"billingAddress"`
	EstimatedDeliveryDate string                 `json:"estimatedDeliveryDate,omitempty"`
	ActualDeliveryDate    string                 `json:"actualDeliveryDate,omitempty"`
	TrackingNumber        string                 `json:"trackingNumber,omitempty"`
	Carrier               string                 `json:"carrier,omitempty"`
	CustomerNotes         string                 `json:"customerNotes,omitempty"`
	History               []historyPayload       `json:"history"`
	CreatedAt             string                 `json:"createdAt"`
	UpdatedAt             string                 `json:"updatedAt"`
}

func buildCustomerOrderPayload(v services.CustomerOrderView) customerOrderPayload {
	history := make([]historyPayload, 0, len(v.History))
	for _, entry := range v.History {
		history = append(history, historyPayload{
			Status:    string(entry.Status),
			Note:      entry.Note,
			Timestamp: formatTime(entry.Timestamp),
		})
	}
	return customerOrderPayload{
		OrderNumber:           v.OrderNumber,
		Status:                string(v.Status),
		PaymentStatus:         string(v.PaymentStatus),
		PaymentMethod:         string(v.PaymentMethod),
		PaymentDate:           formatTimePtr(v.PaymentDate),
		ShippingMethod:        string(v.ShippingMethod),
		Customer:              customerContactPayload{Name: v.Customer.Name, Email: v.Customer.Email, Phone: v.Customer.Phone},
		Items:                 buildOrderItemPayloads(v.Items),
		Currency:              v.Currency,
		Totals:                buildTotalsPayload(v.Totals),
		ShippingAddress:       buildAddressPayload(v.ShippingAddress),
		BillingAddress:        buildAddressPayload(v.BillingAddress),
		EstimatedDeliveryDate: formatTimePtr(v.EstimatedDeliveryDate),
		ActualDeliveryDate:    formatTimePtr(v.ActualDeliveryDate),
		TrackingNumber:        v.TrackingNumber,
		Carrier:               v.Carrier,
		CustomerNotes:         v.CustomerNotes,
		History:               history,
		CreatedAt:             formatTime(v.CreatedAt),
		UpdatedAt:             formatTime(v.UpdatedAt),
	}
}

type paginationPayload struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

type statsPayload struct {
	TotalOrders       int   `json:"totalOrders"`
	TotalRevenue      int64 `json:"totalRevenue"`
	PendingCount      int   `json:"pendingCount"`
	ProcessingCount   int   `json:"processingCount"`
	DeliveredCount    int   `json:"deliveredCount"`
	AverageOrderValue int64 `json:"averageOrderValue"`
}

type orderListPayload struct {
	Orders     []orderPayload    `json:"orders"`
	Pagination paginationPayload `json:"pagination"`
	Stats      statsPayload      `json:"stats"`
}

func buildOrderListPayload(result services.OrderListResult) orderListPayload {
	orders := make([]orderPayload, 0, len(result.Orders))
	for _, order := range result.Orders {
		orders = append(orders, buildOrderPayload(order))
	}
	p := result.Pagination
	stats := result.Stats
	return orderListPayload{
		Orders: orders,
		Pagination: paginationPayload{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      p.Total,
			TotalPages: p.TotalPages,
			HasNext:    p.HasNext,
			HasPrev:    p.HasPrev,
		},
		Stats: statsPayload{
			TotalOrders:       stats.TotalOrders,
			TotalRevenue:      stats.TotalRevenue,
			PendingCount:      stats.PendingCount,
			ProcessingCount:   stats.ProcessingCount,
			DeliveredCount:    stats.DeliveredCount,
			AverageOrderValue: stats.AverageOrderValue,
		},
	}
}

type exportPayload struct {
	FileName string `json:"fileName"`
	Rows     int    `json:"rows"`
	Location string `json:"location"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
