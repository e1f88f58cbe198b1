package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/hanko-field/orders/internal/domain"
	pfirestore "github.com/hanko-field/orders/internal/platform/firestore"
	"github.com/hanko-field/orders/internal/repositories"
)

const (
	ordersCollection             = "orders"
	confirmationTokensCollection = "confirmationTokens"
)

// OrderRepository stores orders in Firestore. Confirmation tokens are reserved in a sibling
// collection keyed by the token so that uniqueness is enforced by document identity.
type OrderRepository struct {
	provider *pfirestore.Provider
	orders   *pfirestore.BaseRepository[orderDocument]
	tokens   *pfirestore.BaseRepository[tokenDocument]
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository: firestore provider is required")
	}
	return &OrderRepository{
		provider: provider,
		orders:   pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil, nil),
		tokens:   pfirestore.NewBaseRepository[tokenDocument](provider, confirmationTokensCollection, nil, nil),
	}, nil
}

// Insert creates the order and its token reservation in one transaction.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.provider == nil {
		return errors.New("order repository not initialised")
	}
	orderID := strings.TrimSpace(order.ID)
	token := strings.TrimSpace(order.ConfirmationToken)
	if orderID == "" || token == "" {
		return errors.New("order repository: order id and confirmation token are required")
	}

	doc := encodeOrderDocument(order)
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		tokenRef, err := r.tokens.DocumentRef(ctx, token)
		if err != nil {
			return err
		}
		orderRef, err := r.orders.DocumentRef(ctx, orderID)
		if err != nil {
			return err
		}

		if _, err := tx.Get(tokenRef); err == nil {
			return repositories.NewTokenCollisionError("orders.insert")
		} else if status.Code(err) != codes.NotFound {
			return err
		}
		if _, err := tx.Get(orderRef); err == nil {
			return repositories.NewDuplicateOrderError("orders.insert", orderID)
		} else if status.Code(err) != codes.NotFound {
			return err
		}

		if err := tx.Create(tokenRef, tokenDocument{OrderID: orderID, CreatedAt: order.CreatedAt.UTC()}); err != nil {
			return err
		}
		return tx.Create(orderRef, doc)
	})
	return unwrapOrderStoreError("orders.insert", err)
}

// Update writes the order when the stored version still equals expectedVersion.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order, expectedVersion int64) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	orderID := strings.TrimSpace(order.ID)
	if orderID == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	order.Version = expectedVersion + 1
	doc := encodeOrderDocument(order)
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.orders.DocumentRef(ctx, orderID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var current orderDocument
		if err := snap.DataTo(&current); err != nil {
			return fmt.Errorf("orders decode %s: %w", orderID, err)
		}
		if current.Version != expectedVersion {
			return repositories.NewVersionMismatchError("orders.update", expectedVersion, current.Version)
		}
		// number and token are immutable once assigned
		order.OrderNumber, doc.OrderNumber = current.OrderNumber, current.OrderNumber
		order.ConfirmationToken, doc.ConfirmationToken = current.ConfirmationToken, current.ConfirmationToken
		return tx.Set(ref, doc)
	})
	if err != nil {
		return domain.Order{}, unwrapOrderStoreError("orders.update", err)
	}
	return order, nil
}

// Delete removes the order and its token reservation after a version check.
func (r *OrderRepository) Delete(ctx context.Context, orderID string, expectedVersion int64) error {
	if r == nil || r.provider == nil {
		return errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return errors.New("order repository: order id is required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.orders.DocumentRef(ctx, orderID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var current orderDocument
		if err := snap.DataTo(&current); err != nil {
			return fmt.Errorf("orders decode %s: %w", orderID, err)
		}
		if current.Version != expectedVersion {
			return repositories.NewVersionMismatchError("orders.delete", expectedVersion, current.Version)
		}
		if token := strings.TrimSpace(current.ConfirmationToken); token != "" {
			tokenRef, err := r.tokens.DocumentRef(ctx, token)
			if err != nil {
				return err
			}
			if err := tx.Delete(tokenRef); err != nil {
				return err
			}
		}
		return tx.Delete(ref)
	})
	return unwrapOrderStoreError("orders.delete", err)
}

// FindByID fetches a single order by document id.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.orders == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}
	doc, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrderDocument(doc.ID, doc.Data), nil
}

// FindByNumber resolves an order by its human readable number.
func (r *OrderRepository) FindByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	if r == nil || r.orders == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return domain.Order{}, errors.New("order repository: order number is required")
	}
	doc, err := r.orders.First(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("orderNumber", "==", orderNumber)
	})
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrderDocument(doc.ID, doc.Data), nil
}

// FindByToken follows the token reservation to the order it belongs to.
func (r *OrderRepository) FindByToken(ctx context.Context, token string) (domain.Order, error) {
	if r == nil || r.tokens == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Order{}, errors.New("order repository: token is required")
	}
	reservation, err := r.tokens.Get(ctx, token)
	if err != nil {
		return domain.Order{}, err
	}
	return r.FindByID(ctx, reservation.Data.OrderID)
}

// List returns the orders matching the filter, newest first. Status and payment status are
// pushed down to Firestore only when a single value is requested; the rest is matched in memory.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	if r == nil || r.orders == nil {
		return nil, errors.New("order repository not initialised")
	}
	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		if len(filter.Statuses) == 1 {
			q = q.Where("status", "==", string(filter.Statuses[0]))
		}
		if len(filter.PaymentStatuses) == 1 {
			q = q.Where("paymentStatus", "==", string(filter.PaymentStatuses[0]))
		}
		if filter.CreatedAt.From != nil {
			q = q.Where("createdAt", ">=", filter.CreatedAt.From.UTC())
		}
		if filter.CreatedAt.To != nil {
			q = q.Where("createdAt", "<=", filter.CreatedAt.To.UTC())
		}
		return q.OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		order := decodeOrderDocument(doc.ID, doc.Data)
		if filter.Matches(order) {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func unwrapOrderStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *repositories.OrderStoreError
	if errors.As(err, &storeErr) {
		return storeErr
	}
	return pfirestore.WrapError(op, err)
}

type tokenDocument struct {
	OrderID   string    `firestore:"orderId"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type orderDocument struct {
	OrderNumber           string                 `firestore:"orderNumber"`
	ConfirmationToken     string                 `firestore:"confirmationToken"`
	CustomerID            string                 `firestore:"customerId"`
	Customer              customerSnapshotDoc    `firestore:"customer"`
	Items                 []orderItemDocument    `firestore:"items"`
	Currency              string                 `firestore:"currency"`
	Totals                orderTotalsDocument    `firestore:"totals"`
	ShippingAddress       addressDocument        `firestore:"shippingAddress"`
	BillingAddress        addressDocument        `firestore:"billingAddress"`
	Status                string                 `firestore:"status"`
	PaymentMethod         string                 `firestore:"paymentMethod"`
	PaymentStatus         string                 `firestore:"paymentStatus"`
	PaymentDate           *time.Time             `firestore:"paymentDate,omitempty"`
	ShippingMethod        string                 `firestore:"shippingMethod"`
	EstimatedDeliveryDate *time.Time             `firestore:"estimatedDeliveryDate,omitempty"`
	ActualDeliveryDate    *time.Time             `firestore:"actualDeliveryDate,omitempty"`
	TrackingNumber        string                 `firestore:"trackingNumber,omitempty"`
	Carrier               string                 `firestore:"carrier,omitempty"`
	CustomerNotes         string                 `firestore:"customerNotes,omitempty"`
	InternalNotes         string                 `firestore:"internalNotes,omitempty"`
	History               []historyEntryDocument `firestore:"history"`
	Version               int64                  `firestore:"version"`
	CreatedAt             time.Time              `firestore:"createdAt"`
	UpdatedAt             time.Time              `firestore:"updatedAt"`
}

type customerSnapshotDoc struct {
	Name  string `firestore:"name"`
	Email string `firestore:"email"`
	Phone string `firestore:"phone,omitempty"`
}

type orderItemDocument struct {
	ProductID    string `firestore:"productId"`
	VariantID    string `firestore:"variantId,omitempty"`
	ProductName  string `firestore:"productName"`
	VariantName  string `firestore:"variantName,omitempty"`
	Size         string `firestore:"size,omitempty"`
	ImageURL     string `firestore:"imageUrl,omitempty"`
	RegularPrice int64  `firestore:"regularPrice"`
	UnitPrice    int64  `firestore:"unitPrice"`
	Quantity     int    `firestore:"quantity"`
	LineTotal    int64  `firestore:"lineTotal"`
}

type orderTotalsDocument struct {
	Subtotal int64 `firestore:"subtotal"`
	Tax      int64 `firestore:"tax"`
	Shipping int64 `firestore:"shipping"`
	Discount int64 `firestore:"discount"`
	Total    int64 `firestore:"total"`
}

type addressDocument struct {
	Recipient  string `firestore:"recipient,omitempty"`
	Street     string `firestore:"street"`
	Line2      string `firestore:"line2,omitempty"`
	City       string `firestore:"city"`
	State      string `firestore:"state,omitempty"`
	PostalCode string `firestore:"postalCode"`
	Country    string `firestore:"country"`
	Phone      string `firestore:"phone,omitempty"`
}

type historyEntryDocument struct {
	Status    string    `firestore:"status"`
	Note      string    `firestore:"note,omitempty"`
	Timestamp time.Time `firestore:"timestamp"`
	UpdatedBy string    `firestore:"updatedBy,omitempty"`
	Internal  bool      `firestore:"internal,omitempty"`
}

func encodeOrderDocument(order domain.Order) orderDocument {
	doc := orderDocument{
		OrderNumber:       order.OrderNumber,
		ConfirmationToken: order.ConfirmationToken,
		CustomerID:        order.CustomerID,
		Customer: customerSnapshotDoc{
			Name:  order.Customer.Name,
			Email: order.Customer.Email,
			Phone: order.Customer.Phone,
		},
		Currency: order.Currency,
		Totals: orderTotalsDocument{
			Subtotal: order.Totals.Subtotal,
			Tax:      order.Totals.Tax,
			Shipping: order.Totals.Shipping,
			Discount: order.Totals.Discount,
			Total:    order.Totals.Total,
		},
		ShippingAddress:       encodeAddress(order.ShippingAddress),
		BillingAddress:        encodeAddress(order.BillingAddress),
		Status:                string(order.Status),
		PaymentMethod:         string(order.PaymentMethod),
		PaymentStatus:         string(order.PaymentStatus),
		PaymentDate:           utcPtr(order.PaymentDate),
		ShippingMethod:        string(order.ShippingMethod),
		EstimatedDeliveryDate: utcPtr(order.EstimatedDeliveryDate),
		ActualDeliveryDate:    utcPtr(order.ActualDeliveryDate),
		TrackingNumber:        order.TrackingNumber,
		Carrier:               order.Carrier,
		CustomerNotes:         order.CustomerNotes,
		InternalNotes:         order.InternalNotes,
		Version:               order.Version,
		CreatedAt:             order.CreatedAt.UTC(),
		UpdatedAt:             order.UpdatedAt.UTC(),
	}
	doc.Items = make([]orderItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		doc.Items = append(doc.Items, orderItemDocument{
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
	doc.History = make([]historyEntryDocument, 0, len(order.History))
	for _, entry := range order.History {
		doc.History = append(doc.History, historyEntryDocument{
			Status:    string(entry.Status),
			Note:      entry.Note,
			Timestamp: entry.Timestamp.UTC(),
			UpdatedBy: entry.UpdatedBy,
			Internal:  entry.Internal,
		})
	}
	return doc
}

func decodeOrderDocument(id string, doc orderDocument) domain.Order {
	order := domain.Order{
		ID:                id,
		OrderNumber:       doc.OrderNumber,
		ConfirmationToken: doc.ConfirmationToken,
		CustomerID:        doc.CustomerID,
		Customer: domain.CustomerSnapshot{
			Name:  doc.Customer.Name,
			Email: doc.Customer.Email,
			Phone: doc.Customer.Phone,
		},
		Currency: doc.Currency,
		Totals: domain.OrderTotals{
			Subtotal: doc.Totals.Subtotal,
			Tax:      doc.Totals.Tax,
			Shipping: doc.Totals.Shipping,
			Discount: doc.Totals.Discount,
			Total:    doc.Totals.Total,
		},
		ShippingAddress:       decodeAddress(doc.ShippingAddress),
		BillingAddress:        decodeAddress(doc.BillingAddress),
		Status:                domain.OrderStatus(doc.Status),
		PaymentMethod:         domain.PaymentMethod(doc.PaymentMethod),
		PaymentStatus:         domain.PaymentStatus(doc.PaymentStatus),
		PaymentDate:           utcPtr(doc.PaymentDate),
		ShippingMethod:        domain.ShippingMethod(doc.ShippingMethod),
		EstimatedDeliveryDate: utcPtr(doc.EstimatedDeliveryDate),
		ActualDeliveryDate:    utcPtr(doc.ActualDeliveryDate),
		TrackingNumber:        doc.TrackingNumber,
		Carrier:               doc.Carrier,
		CustomerNotes:         doc.CustomerNotes,
		InternalNotes:         doc.InternalNotes,
		Version:               doc.Version,
		CreatedAt:             doc.CreatedAt.UTC(),
		UpdatedAt:             doc.UpdatedAt.UTC(),
	}
	order.Items = make([]domain.OrderItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		order.Items = append(order.Items, domain.OrderItem{
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
	order.History = make([]domain.HistoryEntry, 0, len(doc.History))
	for _, entry := range doc.History {
		order.History = append(order.History, domain.HistoryEntry{
			Status:    domain.OrderStatus(entry.Status),
			Note:      entry.Note,
			Timestamp: entry.Timestamp.UTC(),
			UpdatedBy: entry.UpdatedBy,
			Internal:  entry.Internal,
		})
	}
	return order
}

func encodeAddress(addr domain.Address) addressDocument {
	return addressDocument{
		Recipient:  addr.Recipient,
		Street:     addr.Street,
		Line2:      addr.Line2,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
		Phone:      addr.Phone,
	}
}

func decodeAddress(doc addressDocument) domain.Address {
	return domain.Address{
		Recipient:  doc.Recipient,
		Street:     doc.Street,
		Line2:      doc.Line2,
		City:       doc.City,
		State:      doc.State,
		PostalCode: doc.PostalCode,
		Country:    doc.Country,
		Phone:      doc.Phone,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	value := t.UTC()
	return &value
}
