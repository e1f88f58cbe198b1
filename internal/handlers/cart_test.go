package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domain "github.com/hanko-field/orders/internal/domain"
	"github.com/hanko-field/orders/internal/platform/httpx"
	"github.com/hanko-field/orders/internal/services"
)

func TestCartQuote(t *testing.T) {
	var captured services.QuoteCommand
	pricing := &stubPricingService{
		quoteFn: func(_ context.Context, cmd services.QuoteCommand) (services.Quote, error) {
			captured = cmd
			return services.Quote{
				Items:          []domain.OrderItem{{ProductID: "p1", UnitPrice: 900, RegularPrice: 1200, Quantity: 2, LineTotal: 1800}},
				Totals:         domain.OrderTotals{Subtotal: 1800, Tax: 180, Shipping: 0, Total: 1980},
				Currency:       "USD",
				ShippingMethod: domain.ShippingMethodFree,
				TaxRate:        0.1,
			}, nil
		},
	}
	router := mountRoutes("/cart", NewCartHandlers(pricing).Routes)

	body := `{"items":[{"productId":"p1","variantId":"v1","quantity":2,"unitPrice":1200,"promotionalPrice":900,"productName":"Tee"}],"shippingMethod":" Free "}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/cart/quote", strings.NewReader(body)))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.ShippingMethod != domain.ShippingMethodFree {
		t.Fatalf("expected normalised shipping method, got %q", captured.ShippingMethod)
	}
	if len(captured.Items) != 1 || captured.Items[0].PromotionalPrice == nil || *captured.Items[0].PromotionalPrice != 900 {
		t.Fatalf("unexpected items %+v", captured.Items)
	}

	var payload quotePayload
	decodeData(t, decodeEnvelope(t, rr.Body.Bytes()), &payload)
	if payload.Totals.Total != 1980 || payload.Items[0].LineTotal != 1800 || payload.TaxRate != 0.1 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestCartQuoteInvalidItem(t *testing.T) {
	pricing := &stubPricingService{
		quoteFn: func(context.Context, services.QuoteCommand) (services.Quote, error) {
			return services.Quote{}, &services.InvalidItemError{Index: 1, Reason: "unit price must not be negative"}
		},
	}
	rr := httptest.NewRecorder()
	mountRoutes("/cart", NewCartHandlers(pricing).Routes).
		ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/cart/quote", strings.NewReader(`{"items":[]}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	env := decodeEnvelope(t, rr.Body.Bytes())
	if env.Code != httpx.CodeValidation || len(env.Errors) != 1 || env.Errors[0].Field != "items[1]" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestCartQuoteWithoutPricing(t *testing.T) {
	rr := httptest.NewRecorder()
	mountRoutes("/cart", NewCartHandlers(nil).Routes).
		ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/cart/quote", strings.NewReader(`{}`)))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
