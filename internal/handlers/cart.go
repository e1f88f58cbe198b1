package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/hanko-field/orders/internal/domain"
	"github.com/hanko-field/orders/internal/platform/httpx"
	"github.com/hanko-field/orders/internal/services"
)

// CartHandlers prices carts without creating orders.
type CartHandlers struct {
	pricing services.PricingService
}

// NewCartHandlers constructs CartHandlers.
func NewCartHandlers(pricing services.PricingService) *CartHandlers {
	return &CartHandlers{pricing: pricing}
}

// Routes registers the /cart endpoints.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/quote", h.quote)
}

func (h *CartHandlers) quote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pricing == nil {
		writeUnavailable(ctx, w, "pricing service")
		return
	}

	var req quoteRequest
	if !decodeJSONBody(w, r, defaultMaxBodyBytes, &req) {
		return
	}

	quote, err := h.pricing.Quote(ctx, services.QuoteCommand{
		Items:          toCartItems(req.Items),
		ShippingMethod: domain.ShippingMethod(strings.ToLower(strings.TrimSpace(req.ShippingMethod))),
		Discount:       req.Discount,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteSuccess(ctx, w, http.StatusOK, "cart quoted", buildQuotePayload(quote))
}
