package services

import (
	"context"
	"io"
	"time"

	domain "github.com/hanko-field/orders/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Order              = domain.Order
	OrderItem          = domain.OrderItem
	OrderTotals        = domain.OrderTotals
	OrderStatus        = domain.OrderStatus
	OrderStats         = domain.OrderStats
	CartItem           = domain.CartItem
	Address            = domain.Address
	HistoryEntry       = domain.HistoryEntry
	SortOrder          = domain.SortOrder
	PageInfo           = domain.PageInfo
	SystemHealthReport = domain.SystemHealthReport
	AuditLogEntry      = domain.AuditLogEntry
)

// PricingService quotes carts without persisting anything.
type PricingService interface {
	Quote(ctx context.Context, cmd QuoteCommand) (Quote, error)
}

// CounterService allocates human-readable sequence numbers backed by atomic counters.
type CounterService interface {
	Next(ctx context.Context, scope, name string, opts CounterGenerationOptions) (CounterValue, error)
	NextOrderNumber(ctx context.Context, at time.Time) (string, error)
}

// OrderService owns every order mutation: creation, status transitions, admin patches and deletion.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	Transition(ctx context.Context, cmd TransitionOrderCommand) (Order, error)
	UpdateOrder(ctx context.Context, cmd UpdateOrderCommand) (Order, error)
	DeleteOrder(ctx context.Context, cmd DeleteOrderCommand) error
}

// OrderQueryService exposes the read-only order paths.
type OrderQueryService interface {
	GetOrder(ctx context.Context, orderID string) (Order, error)
	ListOrders(ctx context.Context, query OrderListQuery) (OrderListResult, error)
	ComputeStats(ctx context.Context, filter OrderFilter) (OrderStats, error)
	LookupCustomerOrder(ctx context.Context, query CustomerLookupQuery) (CustomerOrderView, error)
	LookupByConfirmationToken(ctx context.Context, token string) (CustomerOrderView, error)
}

// OrderExportService renders filtered orders into a spreadsheet.
type OrderExportService interface {
	Export(ctx context.Context, cmd OrderExportCommand) (OrderExportResult, error)
}

// SystemService aggregates utility endpoints (health checks, audit logs).
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
	ListAuditLogs(ctx context.Context, filter AuditLogFilter) ([]AuditLogEntry, error)
}

// AuditLogService centralizes immutable audit log persistence and retrieval.
type AuditLogService interface {
	Record(ctx context.Context, record AuditLogRecord)
	List(ctx context.Context, filter AuditLogFilter) ([]AuditLogEntry, error)
}

// OrderEventPublisher publishes order domain events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// ExportUploader stores rendered exports and returns a retrievable location.
type ExportUploader interface {
	UploadExport(ctx context.Context, objectName, contentType string, body io.Reader) (string, error)
}

// Command and DTO definitions ------------------------------------------------

// Actor identifies who is performing an operation and which roles they hold.
type Actor struct {
	ID    string
	Roles []string
}

// OrderEvent captures metadata for emitted order domain events.
type OrderEvent struct {
	Type           string
	OrderID        string
	OrderNumber    string
	PreviousStatus string
	CurrentStatus  string
	ActorID        string
	OccurredAt     time.Time
	Metadata       map[string]any
}

type QuoteCommand struct {
	Items          []CartItem
	ShippingMethod domain.ShippingMethod
	Discount       int64
}

type Quote struct {
	Items          []OrderItem
	Totals         OrderTotals
	Currency       string
	ShippingMethod domain.ShippingMethod
	TaxRate        float64
}

// CounterGenerationOptions controls how counter values are incremented and formatted.
type CounterGenerationOptions struct {
	Step      int64
	MaxValue  *int64
	Prefix    string
	PadLength int
}

type CounterValue struct {
	Value     int64
	Formatted string
}

// CustomerContact overrides the contact details captured on the order. Empty fields fall back to
// the customer record.
type CustomerContact struct {
	Name  string
	Email string
	Phone string
}

type CreateOrderCommand struct {
	CustomerID      string
	Contact         CustomerContact
	Items           []CartItem
	ShippingAddress Address
	BillingAddress  *Address
	PaymentMethod   domain.PaymentMethod
	ShippingMethod  domain.ShippingMethod
	Discount        int64
	CustomerNotes   string
	Actor           Actor
}

type TransitionOrderCommand struct {
	OrderID            string
	TargetStatus       OrderStatus
	Note               string
	Internal           bool
	ActualDeliveryDate *time.Time
	ExpectedVersion    *int64
	Actor              Actor
}

// UpdateOrderCommand is an admin patch. Nil fields are left untouched.
type UpdateOrderCommand struct {
	OrderID               string
	Status                *OrderStatus
	Note                  string
	Internal              bool
	PaymentStatus         *domain.PaymentStatus
	PaymentDate           *time.Time
	EstimatedDeliveryDate *time.Time
	ActualDeliveryDate    *time.Time
	TrackingNumber        *string
	Carrier               *string
	InternalNotes         *string
	ExpectedVersion       *int64
	Actor                 Actor
}

type DeleteOrderCommand struct {
	OrderID         string
	ExpectedVersion *int64
	Actor           Actor
}

// OrderFilter narrows list, stats and export queries.
type OrderFilter struct {
	Statuses        []OrderStatus
	PaymentStatuses []domain.PaymentStatus
	From            *time.Time
	To              *time.Time
	Search          string
}

type OrderListQuery struct {
	Filter    OrderFilter
	Page      int
	Limit     int
	SortBy    string
	SortOrder SortOrder
}

// OrderListResult is one page of the filtered orders. Stats cover the whole filtered set.
type OrderListResult struct {
	Orders     []Order
	Pagination PageInfo
	Stats      OrderStats
}

type CustomerLookupQuery struct {
	OrderNumber string
	Email       string
	Phone       string
}

// CustomerOrderView is the projection returned to unauthenticated customers. It never carries
// internal notes, operator identities or the confirmation token.
type CustomerOrderView struct {
	OrderNumber           string
	Status                OrderStatus
	PaymentStatus         domain.PaymentStatus
	PaymentMethod         domain.PaymentMethod
	PaymentDate           *time.Time
	ShippingMethod        domain.ShippingMethod
	Customer              domain.CustomerSnapshot
	Items                 []OrderItem
	Currency              string
	Totals                OrderTotals
	ShippingAddress       Address
	BillingAddress        Address
	EstimatedDeliveryDate *time.Time
	ActualDeliveryDate    *time.Time
	TrackingNumber        string
	Carrier               string
	CustomerNotes         string
	History               []CustomerHistoryEntry
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type CustomerHistoryEntry struct {
	Status    OrderStatus
	Note      string
	Timestamp time.Time
}

// ExportDestination selects where a rendered export goes.
type ExportDestination string

const (
	ExportDestinationDownload ExportDestination = "download"
	ExportDestinationStorage  ExportDestination = "storage"
)

type OrderExportCommand struct {
	Filter      OrderFilter
	SortBy      string
	SortOrder   SortOrder
	Destination ExportDestination
	Actor       Actor
}

type OrderExportResult struct {
	FileName    string
	ContentType string
	Rows        int
	// Content holds the workbook for download exports.
	Content []byte
	// Location is the object URL for storage exports.
	Location string
}

type AuditLogRecord struct {
	Actor      string
	ActorType  string
	Action     string
	TargetRef  string
	RequestID  string
	Metadata   map[string]any
	Diff       map[string]AuditLogDiff
	OccurredAt time.Time
}

type AuditLogDiff struct {
	Before any
	After  any
}

type AuditLogFilter struct {
	TargetRef string
	Action    string
	Limit     int
}
