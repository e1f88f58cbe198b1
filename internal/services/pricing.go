package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	domain "github.com/hanko-field/orders/internal/domain"
)

// EffectiveUnitPrice returns the promotional price when it undercuts the unit price.
func EffectiveUnitPrice(item domain.CartItem) int64 {
	if item.PromotionalPrice != nil && *item.PromotionalPrice >= 0 && *item.PromotionalPrice < item.UnitPrice {
		return *item.PromotionalPrice
	}
	return item.UnitPrice
}

// ComputeSubtotal sums effective price × quantity across the cart.
func ComputeSubtotal(items []domain.CartItem) (int64, error) {
	lines, err := SnapshotItems(items)
	if err != nil {
		return 0, err
	}
	return sumLines(lines)
}

// sumLines reports the line that pushes the subtotal past int64.
func sumLines(lines []domain.OrderItem) (int64, error) {
	var subtotal int64
	for i, line := range lines {
		if subtotal > math.MaxInt64-line.LineTotal {
			return 0, &InvalidItemError{Index: i, Reason: "cart subtotal overflow"}
		}
		subtotal += line.LineTotal
	}
	return subtotal, nil
}

// SnapshotItems converts cart lines into immutable order lines, capturing the display snapshot
// and the price actually charged.
func SnapshotItems(items []domain.CartItem) ([]domain.OrderItem, error) {
	lines := make([]domain.OrderItem, 0, len(items))
	for i, item := range items {
		if err := validateCartItem(i, item); err != nil {
			return nil, err
		}
		price := EffectiveUnitPrice(item)
		quantity := int64(item.Quantity)
		if price > 0 && price > math.MaxInt64/quantity {
			return nil, &InvalidItemError{Index: i, Reason: "line total overflow"}
		}
		lines = append(lines, domain.OrderItem{
			ProductID:    strings.TrimSpace(item.ProductID),
			VariantID:    strings.TrimSpace(item.VariantID),
			ProductName:  strings.TrimSpace(item.Snapshot.ProductName),
			VariantName:  strings.TrimSpace(item.Snapshot.VariantName),
			Size:         strings.TrimSpace(item.Snapshot.Size),
			ImageURL:     strings.TrimSpace(item.Snapshot.ImageURL),
			RegularPrice: item.UnitPrice,
			UnitPrice:    price,
			Quantity:     item.Quantity,
			LineTotal:    price * quantity,
		})
	}
	return lines, nil
}

func validateCartItem(index int, item domain.CartItem) error {
	switch {
	case strings.TrimSpace(item.ProductID) == "":
		return &InvalidItemError{Index: index, Reason: "product id is required"}
	case item.Quantity < 1:
		return &InvalidItemError{Index: index, Reason: "quantity must be at least 1"}
	case item.UnitPrice < 0:
		return &InvalidItemError{Index: index, Reason: "unit price must not be negative"}
	case item.PromotionalPrice != nil && *item.PromotionalPrice < 0:
		return &InvalidItemError{Index: index, Reason: "promotional price must not be negative"}
	}
	return nil
}

// ComputeTotals derives tax and the grand total. Tax is rounded half away from zero and the
// total is floored at zero when the discount exceeds everything else.
func ComputeTotals(subtotal, shippingFee int64, taxRate float64, discount int64) (domain.OrderTotals, error) {
	switch {
	case subtotal < 0:
		return domain.OrderTotals{}, invalidField("subtotal", "must not be negative")
	case shippingFee < 0:
		return domain.OrderTotals{}, invalidField("shipping", "must not be negative")
	case discount < 0:
		return domain.OrderTotals{}, invalidField("discount", "must not be negative")
	case math.IsNaN(taxRate) || taxRate < 0 || taxRate > 1:
		return domain.OrderTotals{}, invalidField("taxRate", "must be between 0 and 1")
	}

	tax := int64(math.Round(float64(subtotal) * taxRate))
	gross := subtotal
	for _, part := range []int64{tax, shippingFee} {
		if gross > math.MaxInt64-part {
			return domain.OrderTotals{}, invalidField("total", "overflow")
		}
		gross += part
	}
	total := gross - discount
	if total < 0 {
		total = 0
	}
	return domain.OrderTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shippingFee,
		Discount: discount,
		Total:    total,
	}, nil
}

// ShippingTable maps each shipping tier to its flat fee.
type ShippingTable map[domain.ShippingMethod]int64

// NewShippingTable validates configured fees. Every tier must be priced.
func NewShippingTable(fees map[string]int64) (ShippingTable, error) {
	table := make(ShippingTable, len(fees))
	for name, fee := range fees {
		method := domain.ShippingMethod(strings.ToLower(strings.TrimSpace(name)))
		if !method.Valid() {
			return nil, fmt.Errorf("shipping table: unknown method %q", name)
		}
		if fee < 0 {
			return nil, fmt.Errorf("shipping table: negative fee for %s", method)
		}
		table[method] = fee
	}
	for _, method := range []domain.ShippingMethod{domain.ShippingMethodFree, domain.ShippingMethodExpress, domain.ShippingMethodPremium} {
		if _, ok := table[method]; !ok {
			return nil, fmt.Errorf("shipping table: missing fee for %s", method)
		}
	}
	return table, nil
}

// Fee returns the flat fee for the method.
func (t ShippingTable) Fee(method domain.ShippingMethod) (int64, error) {
	fee, ok := t[method]
	if !ok {
		return 0, invalidField("shippingMethod", fmt.Sprintf("unsupported shipping method %q", method))
	}
	return fee, nil
}

// PricingServiceDeps bundles the configured pricing policy.
type PricingServiceDeps struct {
	Currency string
	TaxRate  float64
	Shipping ShippingTable
}

type pricingService struct {
	currency string
	taxRate  float64
	shipping ShippingTable
}

// NewPricingService constructs the cart quoting service.
func NewPricingService(deps PricingServiceDeps) (PricingService, error) {
	if len(deps.Shipping) == 0 {
		return nil, errors.New("pricing service: shipping table is required")
	}
	if deps.TaxRate < 0 || deps.TaxRate > 1 {
		return nil, fmt.Errorf("pricing service: tax rate %v outside [0,1]", deps.TaxRate)
	}
	currency := strings.ToUpper(strings.TrimSpace(deps.Currency))
	if currency == "" {
		return nil, errors.New("pricing service: currency is required")
	}
	return &pricingService{currency: currency, taxRate: deps.TaxRate, shipping: deps.Shipping}, nil
}

func (s *pricingService) Quote(_ context.Context, cmd QuoteCommand) (Quote, error) {
	if len(cmd.Items) == 0 {
		return Quote{}, invalidField("items", "at least one item is required")
	}
	method := cmd.ShippingMethod
	if method == "" {
		method = domain.ShippingMethodFree
	}
	if !method.Valid() {
		return Quote{}, invalidField("shippingMethod", fmt.Sprintf("unsupported shipping method %q", cmd.ShippingMethod))
	}

	lines, err := SnapshotItems(cmd.Items)
	if err != nil {
		return Quote{}, err
	}
	subtotal, err := sumLines(lines)
	if err != nil {
		return Quote{}, err
	}
	fee, err := s.shipping.Fee(method)
	if err != nil {
		return Quote{}, err
	}
	totals, err := ComputeTotals(subtotal, fee, s.taxRate, cmd.Discount)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Items:          lines,
		Totals:         totals,
		Currency:       s.currency,
		ShippingMethod: method,
		TaxRate:        s.taxRate,
	}, nil
}
