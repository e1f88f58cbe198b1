package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/hanko-field/orders/internal/domain"
	"github.com/hanko-field/orders/internal/platform/auth"
	"github.com/hanko-field/orders/internal/platform/httpx"
	"github.com/hanko-field/orders/internal/platform/pagination"
	"github.com/hanko-field/orders/internal/services"
)

const (
	maxAdminUpdateBody  = 16 * 1024
	defaultAuditLimit   = 50
	dateOnlyLayout      = "2006-01-02"
	exportFilenameParam = "attachment; filename=%q"
)

var orderSortFields = []string{
	services.OrderSortCreatedAt,
	services.OrderSortTotal,
	services.OrderSortOrderNumber,
	services.OrderSortStatus,
}

// AdminOrderHandlers serves the back-office /admin/orders endpoints.
type AdminOrderHandlers struct {
	orders   services.OrderService
	queries  services.OrderQueryService
	exports  services.OrderExportService
	system   services.SystemService
	authn    *auth.Authenticator
	location *time.Location
}

// AdminOrderHandlerOption customises AdminOrderHandlers.
type AdminOrderHandlerOption func(*AdminOrderHandlers)

// WithAdminAuthenticator requires a staff Firebase identity on every admin route.
func WithAdminAuthenticator(authn *auth.Authenticator) AdminOrderHandlerOption {
	return func(h *AdminOrderHandlers) { h.authn = authn }
}

// WithAdminExports enables the export endpoint.
func WithAdminExports(exports services.OrderExportService) AdminOrderHandlerOption {
	return func(h *AdminOrderHandlers) { h.exports = exports }
}

// WithAdminAuditLogs enables the per-order audit endpoint.
func WithAdminAuditLogs(system services.SystemService) AdminOrderHandlerOption {
	return func(h *AdminOrderHandlers) { h.system = system }
}

// WithBusinessLocation sets the time zone used to interpret date-only from/to filters.
func WithBusinessLocation(loc *time.Location) AdminOrderHandlerOption {
	return func(h *AdminOrderHandlers) {
		if loc != nil {
			h.location = loc
		}
	}
}

// NewAdminOrderHandlers constructs AdminOrderHandlers.
func NewAdminOrderHandlers(orders services.OrderService, queries services.OrderQueryService, opts ...AdminOrderHandlerOption) *AdminOrderHandlers {
	h := &AdminOrderHandlers{orders: orders, queries: queries, location: time.UTC}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the /admin endpoints.
func (h *AdminOrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.StaffRoles...))
	}
	listParams := pagination.Middleware(pagination.Options{SortFields: orderSortFields})

	r.Route("/orders", func(orders chi.Router) {
		orders.With(listParams).Get("/", h.listOrders)
		orders.With(listParams).Get("/export", h.exportOrders)
		orders.Get("/{orderID}", h.getOrder)
		orders.Put("/{orderID}", h.updateOrder)
		orders.Delete("/{orderID}", h.deleteOrder)
		orders.Get("/{orderID}/audit", h.orderAudit)
	})
}

func (h *AdminOrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.queries == nil {
		writeUnavailable(ctx, w, "order service")
		return
	}
	if _, ok := requireCapability(w, r, auth.CapOrdersList); !ok {
		return
	}

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	params, _ := pagination.FromContext(ctx)

	result, err := h.queries.ListOrders(ctx, services.OrderListQuery{
		Filter:    filter,
		Page:      params.Page,
		Limit:     params.Limit,
		SortBy:    params.SortBy,
		SortOrder: domain.SortOrder(params.SortOrder),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteSuccess(ctx, w, http.StatusOK, "orders retrieved", buildOrderListPayload(result))
}

func (h *AdminOrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.queries == nil {
		writeUnavailable(ctx, w, "order service")
		return
	}
	if _, ok := requireCapability(w, r, auth.CapOrdersDetail); !ok {
		return
	}

	order, err := h.queries.GetOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteSuccess(ctx, w, http.StatusOK, "order retrieved", buildOrderPayload(order))
}

// updateOrder leaves capability checks to the service, which needs the patch contents to
// decide between orders.update and orders.refund.
func (h *AdminOrderHandlers) updateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeUnavailable(ctx, w, "order service")
		return
	}

	var req updateOrderRequest
	if !decodeJSONBody(w, r, maxAdminUpdateBody, &req) {
		return
	}
	if req.Version == nil {
		version, ok := ifMatchVersion(w, r)
		if !ok {
			return
		}
		req.Version = version
	}

	order, err := h.orders.UpdateOrder(ctx, req.toCommand(chi.URLParam(r, "orderID"), actorFromContext(ctx)))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(order.Version, 10)))
	httpx.WriteSuccess(ctx, w, http.StatusOK, "order updated", buildOrderPayload(order))
}

func (h *AdminOrderHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeUnavailable(ctx, w, "order service")
		return
	}
	version, ok := ifMatchVersion(w, r)
	if !ok {
		return
	}

	err := h.orders.DeleteOrder(ctx, services.DeleteOrderCommand{
		OrderID:         chi.URLParam(r, "orderID"),
		ExpectedVersion: version,
		Actor:           actorFromContext(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteSuccess(ctx, w, http.StatusOK, "order deleted", nil)
}

func (h *AdminOrderHandlers) exportOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.exports == nil {
		writeUnavailable(ctx, w, "export service")
		return
	}

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	params, _ := pagination.FromContext(ctx)
	destination := services.ExportDestination(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("destination"))))
	if destination == "" {
		destination = services.ExportDestinationDownload
	}

	result, err := h.exports.Export(ctx, services.OrderExportCommand{
		Filter:      filter,
		SortBy:      params.SortBy,
		SortOrder:   domain.SortOrder(params.SortOrder),
		Destination: destination,
		Actor:       actorFromContext(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	if destination == services.ExportDestinationStorage {
		httpx.WriteSuccess(ctx, w, http.StatusCreated, "export stored", exportPayload{
			FileName: result.FileName,
			Rows:     result.Rows,
			Location: result.Location,
		})
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(exportFilenameParam, result.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Content)
}

func (h *AdminOrderHandlers) orderAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.system == nil {
		writeUnavailable(ctx, w, "audit log")
		return
	}
	if _, ok := requireCapability(w, r, auth.CapOrdersDetail); !ok {
		return
	}

	limit := defaultAuditLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpx.WriteError(ctx, w, httpx.NewError(httpx.CodeValidation, "limit must be a positive integer", http.StatusBadRequest).
				WithFields(httpx.FieldError{Field: "limit", Message: "must be a positive integer"}))
			return
		}
		limit = n
	}

	entries, err := h.system.ListAuditLogs(ctx, services.AuditLogFilter{
		TargetRef: "/orders/" + strings.TrimSpace(chi.URLParam(r, "orderID")),
		Action:    strings.TrimSpace(r.URL.Query().Get("action")),
		Limit:     limit,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := make([]auditEntryPayload, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, buildAuditEntryPayload(entry))
	}
	httpx.WriteSuccess(ctx, w, http.StatusOK, "audit log retrieved", map[string]any{"entries": payload})
}

// parseFilter reads status, paymentStatus, search, from and to. Status values may repeat or be
// comma separated. Date-only bounds are whole days in the business time zone.
func (h *AdminOrderHandlers) parseFilter(w http.ResponseWriter, r *http.Request) (services.OrderFilter, bool) {
	query := r.URL.Query()
	var filter services.OrderFilter

	for _, raw := range splitValues(query["status"]) {
		status := domain.OrderStatus(raw)
		if !status.Valid() {
			writeFieldError(w, r, "status", fmt.Sprintf("unknown status %q", raw))
			return services.OrderFilter{}, false
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, raw := range splitValues(query["paymentStatus"]) {
		status := domain.PaymentStatus(raw)
		if !status.Valid() {
			writeFieldError(w, r, "paymentStatus", fmt.Sprintf("unknown payment status %q", raw))
			return services.OrderFilter{}, false
		}
		filter.PaymentStatuses = append(filter.PaymentStatuses, status)
	}
	filter.Search = strings.TrimSpace(query.Get("search"))

	var err error
	if filter.From, err = h.parseBound(query, "from", false); err != nil {
		writeFieldError(w, r, "from", err.Error())
		return services.OrderFilter{}, false
	}
	if filter.To, err = h.parseBound(query, "to", true); err != nil {
		writeFieldError(w, r, "to", err.Error())
		return services.OrderFilter{}, false
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		writeFieldError(w, r, "to", "must not be before from")
		return services.OrderFilter{}, false
	}
	return filter, true
}

func (h *AdminOrderHandlers) parseBound(query url.Values, name string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return nil, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		ts = ts.UTC()
		return &ts, nil
	}
	day, err := time.ParseInLocation(dateOnlyLayout, raw, h.location)
	if err != nil {
		return nil, errors.New("must be YYYY-MM-DD or RFC3339")
	}
	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	day = day.UTC()
	return &day, nil
}

func splitValues(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ifMatchVersion reads an optional expected version from the If-Match header.
func ifMatchVersion(w http.ResponseWriter, r *http.Request) (*int64, bool) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" {
		return nil, true
	}
	raw = strings.TrimPrefix(raw, "W/")
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version < 1 {
		writeFieldError(w, r, "If-Match", "must carry the order version")
		return nil, false
	}
	return &version, true
}

func writeFieldError(w http.ResponseWriter, r *http.Request, field, message string) {
	httpx.WriteError(r.Context(), w, httpx.NewError(httpx.CodeValidation, field+" "+message, http.StatusBadRequest).
		WithFields(httpx.FieldError{Field: field, Message: message}))
}

type auditEntryPayload struct {
	ID         string         `json:"id"`
	Actor      string         `json:"actor"`
	ActorType  string         `json:"actorType"`
	Action     string         `json:"action"`
	TargetRef  string         `json:"targetRef"`
	Diff       map[string]any `json:"diff,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt string         `json:"occurredAt"`
}

func buildAuditEntryPayload(entry domain.AuditLogEntry) auditEntryPayload {
	return auditEntryPayload{
		ID:         entry.ID,
		Actor:      entry.Actor,
		ActorType:  entry.ActorType,
		Action:     entry.Action,
		TargetRef:  entry.TargetRef,
		Diff:       entry.Diff,
		Metadata:   entry.Metadata,
		OccurredAt: formatTime(entry.CreatedAt),
	}
}
