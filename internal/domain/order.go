package domain

import "time"

// OrderStatus enumerates valid lifecycle states for orders.
type OrderStatus string

const (
	// OrderStatusPending is the initial state of every order.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed indicates the merchant accepted the order.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusProcessing indicates the order is being picked and packed.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped indicates the order has been handed to a carrier.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered indicates the order reached the customer. Terminal.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled indicates the order was cancelled before shipping. Terminal.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusRefunded indicates the order was refunded. Terminal.
	OrderStatusRefunded OrderStatus = "refunded"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// Valid reports whether the status is one of the known lifecycle states.
func (s OrderStatus) Valid() bool {
	for _, candidate := range OrderStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are permitted from the status.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// PaymentStatus tracks the payment lifecycle independently from OrderStatus.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Valid reports whether the payment status is recognised.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// PaymentMethod enumerates accepted payment methods at checkout.
type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodPayPal         PaymentMethod = "paypal"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// Valid reports whether the payment method is recognised.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodPayPal, PaymentMethodBankTransfer, PaymentMethodCashOnDelivery:
		return true
	default:
		return false
	}
}

// ShippingMethod selects a flat-fee shipping tier.
type ShippingMethod string

const (
	ShippingMethodFree    ShippingMethod = "free"
	ShippingMethodExpress ShippingMethod = "express"
	ShippingMethodPremium ShippingMethod = "premium"
)

// Valid reports whether the shipping method is one of the configured tiers.
func (m ShippingMethod) Valid() bool {
	switch m {
	case ShippingMethodFree, ShippingMethodExpress, ShippingMethodPremium:
		return true
	default:
		return false
	}
}

// Address represents postal address structures shared by customer and order layers.
type Address struct {
	Recipient  string
	Street     string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// ProductSnapshot denormalises catalog display fields at the time an item was added.
type ProductSnapshot struct {
	ProductName string
	VariantName string
	Size        string
	ImageURL    string
}

// CartItem is a transient line in a shopper's cart.
type CartItem struct {
	ProductID        string
	VariantID        string
	Quantity         int
	UnitPrice        int64
	PromotionalPrice *int64
	Snapshot         ProductSnapshot
}

// OrderItem is the immutable snapshot of a cart line captured at checkout.
type OrderItem struct {
	ProductID    string
	VariantID    string
	ProductName  string
	VariantName  string
	Size         string
	ImageURL     string
	RegularPrice int64
	UnitPrice    int64
	Quantity     int
	LineTotal    int64
}

// OrderTotals holds rolled-up monetary fields in the smallest currency unit.
type OrderTotals struct {
	Subtotal int64
	Tax      int64
	Shipping int64
	Discount int64
	Total    int64
}

// CustomerSnapshot keeps the contact details the order was placed with.
type CustomerSnapshot struct {
	Name  string
	Email string
	Phone string
}

// HistoryEntry is one append-only record of a status change or operator note.
type HistoryEntry struct {
	Status    OrderStatus
	Note      string
	Timestamp time.Time
	UpdatedBy string
	Internal  bool
}

// Order is the central checkout aggregate.
type Order struct {
	ID                    string
	OrderNumber           string
	ConfirmationToken     string
	CustomerID            string
	Customer              CustomerSnapshot
	Items                 []OrderItem
	Currency              string
	Totals                OrderTotals
	ShippingAddress       Address
	BillingAddress        Address
	Status                OrderStatus
	PaymentMethod         PaymentMethod
	PaymentStatus         PaymentStatus
	PaymentDate           *time.Time
	ShippingMethod        ShippingMethod
	EstimatedDeliveryDate *time.Time
	ActualDeliveryDate    *time.Time
	TrackingNumber        string
	Carrier               string
	CustomerNotes         string
	InternalNotes         string
	History               []HistoryEntry
	Version               int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// LastHistoryStatus returns the status recorded by the most recent history entry.
func (o Order) LastHistoryStatus() (OrderStatus, bool) {
	if len(o.History) == 0 {
		return "", false
	}
	return o.History[len(o.History)-1].Status, true
}

// OrderStats aggregates report figures over a filtered order set.
type OrderStats struct {
	TotalOrders       int
	TotalRevenue      int64
	PendingCount      int
	ProcessingCount   int
	DeliveredCount    int
	AverageOrderValue int64
}
