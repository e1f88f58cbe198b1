package handlers

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hanko-field/orders/internal/platform/auth"
	"github.com/hanko-field/orders/internal/platform/httpx"
	"github.com/hanko-field/orders/internal/services"
)

// OrderHandlers serves the shopper-facing /orders endpoints.
type OrderHandlers struct {
	orders      services.OrderService
	queries     services.OrderQueryService
	authn       *auth.Authenticator
	idempotency func(http.Handler) http.Handler
	limiter     rateLimiter
	maxBody     int64
}

// OrderHandlerOption customises OrderHandlers.
type OrderHandlerOption func(*OrderHandlers)

// WithOrderAuthenticator enables optional Firebase authentication on order creation.
func WithOrderAuthenticator(authn *auth.Authenticator) OrderHandlerOption {
	return func(h *OrderHandlers) { h.authn = authn }
}

// WithOrderIdempotency wraps order creation with the idempotency middleware.
func WithOrderIdempotency(mw func(http.Handler) http.Handler) OrderHandlerOption {
	return func(h *OrderHandlers) { h.idempotency = mw }
}

// WithLookupRateLimit allows at most limit public lookups per client address within window.
func WithLookupRateLimit(limit int, window time.Duration, clock func() time.Time) OrderHandlerOption {
	return func(h *OrderHandlers) { h.limiter = newSimpleRateLimiter(limit, window, clock) }
}

// WithOrderBodyLimit caps the create-order request body.
func WithOrderBodyLimit(limit int64) OrderHandlerOption {
	return func(h *OrderHandlers) {
		if limit > 0 {
			h.maxBody = limit
		}
	}
}

// NewOrderHandlers constructs the public order handlers.
func NewOrderHandlers(orders services.OrderService, queries services.OrderQueryService, opts ...OrderHandlerOption) *OrderHandlers {
	h := &OrderHandlers{orders: orders, queries: queries, maxBody: defaultMaxBodyBytes}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	create := r.With()
	if h.authn != nil {
		create = create.With(h.authn.OptionalFirebaseAuth())
	}
	if h.idempotency != nil {
		create = create.With(h.idempotency)
	}
	create.Post("/", h.createOrder)

	r.Get("/confirmation/{token}", h.lookupByToken)
	r.Get("/{orderNumber}", h.lookupOrder)
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeUnavailable(ctx, w, "order service")
		return
	}

	var req createOrderRequest
	if !decodeJSONBody(w, r, h.maxBody, &req) {
		return
	}

	order, err := h.orders.CreateOrder(ctx, req.toCommand(actorFromContext(ctx)))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%s", strings.TrimSuffix(r.URL.Path, "/"), order.OrderNumber))
	httpx.WriteSuccess(ctx, w, http.StatusCreated, "order created", buildOrderPayload(order))
}

func (h *OrderHandlers) lookupOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.queries == nil {
		writeUnavailable(ctx, w, "order service")
		return
	}
	if !h.allow(w, r) {
		return
	}

	query := r.URL.Query()
	view, err := h.queries.LookupCustomerOrder(ctx, services.CustomerLookupQuery{
		OrderNumber: chi.URLParam(r, "orderNumber"),
		Email:       query.Get("email"),
		Phone:       query.Get("phone"),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteSuccess(ctx, w, http.StatusOK, "order found", buildCustomerOrderPayload(view))
}

func (h *OrderHandlers) lookupByToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.queries == nil {
		writeUnavailable(ctx, w, "order service")
		return
	}
	if !h.allow(w, r) {
		return
	}

	view, err := h.queries.LookupByConfirmationToken(ctx, chi.URLParam(r, "token"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteSuccess(ctx, w, http.StatusOK, "order found", buildCustomerOrderPayload(view))
}

func (h *OrderHandlers) allow(w http.ResponseWriter, r *http.Request) bool {
	if h.limiter == nil {
		return true
	}
	allowed, retryAfter := h.limiter.Allow(clientAddress(r))
	if allowed {
		return true
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
	httpx.WriteError(r.Context(), w, httpx.NewError(httpx.CodeRateLimited, "too many lookups, try again later", http.StatusTooManyRequests))
	return false
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
