package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/hanko-field/orders/internal/domain"
	"github.com/hanko-field/orders/internal/platform/auth"
	"github.com/hanko-field/orders/internal/platform/textutil"
	"github.com/hanko-field/orders/internal/repositories"
)

const (
	orderEventCreated       = "order.created"
	orderEventStatusChanged = "order.status_changed"
	orderEventUpdated       = "order.updated"
	orderEventDeleted       = "order.deleted"

	orderIDPrefix      = "ord_"
	orderCreatedNote   = "Order created"
	confirmationTokenN = 32
	tokenAttempts      = 2

	noteLimit          = 1000
	internalNotesLimit = 4000
	shortTextLimit     = 120
)

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders         repositories.OrderRepository
	Customers      repositories.CustomerRepository
	Counters       CounterService
	Pricing        PricingService
	Audit          AuditLogService
	Events         OrderEventPublisher
	Clock          func() time.Time
	IDGenerator    func() string
	TokenGenerator func() (string, error)
	Logger         func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders    repositories.OrderRepository
	customers repositories.CustomerRepository
	counters  CounterService
	pricing   PricingService
	audit     AuditLogService
	events    OrderEventPublisher
	clock     func() time.Time
	newID     func() string
	newToken  func() (string, error)
	logger    func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Customers == nil {
		return nil, errors.New("order service: customer repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter service is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("order service: pricing service is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	tokenGen := deps.TokenGenerator
	if tokenGen == nil {
		tokenGen = NewConfirmationToken
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:    deps.Orders,
		customers: deps.Customers,
		counters:  deps.Counters,
		pricing:   deps.Pricing,
		audit:     deps.Audit,
		events:    deps.Events,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:    idGen,
		newToken: tokenGen,
		logger:   logger,
	}, nil
}

// NewConfirmationToken returns 32 random bytes, hex-encoded.
func NewConfirmationToken() (string, error) {
	buf := make([]byte, confirmationTokenN)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("confirmation token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	if len(cmd.Items) == 0 {
		return Order{}, invalidField("items", "at least one item is required")
	}
	if _, err := SnapshotItems(cmd.Items); err != nil {
		return Order{}, err
	}
	shipping := normalizeAddress(cmd.ShippingAddress)
	if err := validateAddress("shippingAddress", shipping); err != nil {
		return Order{}, err
	}
	billing := shipping
	if cmd.BillingAddress != nil {
		billing = normalizeAddress(*cmd.BillingAddress)
		if err := validateAddress("billingAddress", billing); err != nil {
			return Order{}, err
		}
	}
	if !cmd.PaymentMethod.Valid() {
		return Order{}, invalidField("paymentMethod", fmt.Sprintf("unsupported payment method %q", cmd.PaymentMethod))
	}
	shippingMethod := cmd.ShippingMethod
	if shippingMethod == "" {
		shippingMethod = domain.ShippingMethodFree
	}
	if !shippingMethod.Valid() {
		return Order{}, invalidField("shippingMethod", fmt.Sprintf("unsupported shipping method %q", cmd.ShippingMethod))
	}
	if cmd.Discount < 0 {
		return Order{}, invalidField("discount", "must not be negative")
	}
	customerID := strings.TrimSpace(cmd.CustomerID)
	if customerID == "" {
		return Order{}, invalidField("customerId", "is required")
	}
	if err := s.authorizeCreate(cmd.Actor, customerID); err != nil {
		return Order{}, err
	}

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return Order{}, &CustomerNotFoundError{CustomerID: customerID}
		}
		return Order{}, s.mapRepositoryError(err, "")
	}

	quote, err := s.pricing.Quote(ctx, QuoteCommand{
		Items:          cmd.Items,
		ShippingMethod: shippingMethod,
		Discount:       cmd.Discount,
	})
	if err != nil {
		return Order{}, err
	}

	now := s.now()
	number, err := s.counters.NextOrderNumber(ctx, now)
	if err != nil {
		return Order{}, fmt.Errorf("order: allocate number: %w", err)
	}

	actorID := strings.TrimSpace(cmd.Actor.ID)
	order := Order{
		ID:          s.nextOrderID(),
		OrderNumber: number,
		CustomerID:  customer.ID,
		Customer: domain.CustomerSnapshot{
			Name:  textutil.Sanitize(firstNonEmpty(cmd.Contact.Name, customer.Name), shortTextLimit),
			Email: strings.ToLower(strings.TrimSpace(firstNonEmpty(cmd.Contact.Email, customer.Email))),
			Phone: strings.TrimSpace(firstNonEmpty(cmd.Contact.Phone, customer.Phone)),
		},
		Items:           quote.Items,
		Currency:        quote.Currency,
		Totals:          quote.Totals,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		Status:          domain.OrderStatusPending,
		PaymentMethod:   cmd.PaymentMethod,
		PaymentStatus:   domain.PaymentStatusPending,
		ShippingMethod:  quote.ShippingMethod,
		CustomerNotes:   textutil.Sanitize(cmd.CustomerNotes, noteLimit),
		History: []HistoryEntry{{
			Status:    domain.OrderStatusPending,
			Note:      orderCreatedNote,
			Timestamp: now,
			UpdatedBy: actorID,
		}},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.insertWithToken(ctx, &order); err != nil {
		return Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:          orderEventCreated,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CurrentStatus: string(order.Status),
		ActorID:       actorID,
		OccurredAt:    now,
		Metadata: map[string]any{
			"customerId": order.CustomerID,
			"total":      order.Totals.Total,
			"currency":   order.Currency,
		},
	})

	return order, nil
}

// insertWithToken persists the order, drawing a fresh confirmation token once if the first one is
// already reserved. The order number is kept across attempts.
func (s *orderService) insertWithToken(ctx context.Context, order *Order) error {
	for attempt := 1; attempt <= tokenAttempts; attempt++ {
		token, err := s.newToken()
		if err != nil {
			return err
		}
		order.ConfirmationToken = token

		err = s.orders.Insert(ctx, *order)
		if err == nil {
			return nil
		}
		var storeErr *repositories.OrderStoreError
		if errors.As(err, &storeErr) && storeErr.Code == repositories.OrderStoreTokenCollision {
			s.logger(ctx, "order.token.collision", map[string]any{
				"order":   order.ID,
				"attempt": attempt,
			})
			continue
		}
		return s.mapRepositoryError(err, order.ID)
	}
	order.ConfirmationToken = ""
	return &TokenCollisionError{Attempts: tokenAttempts}
}

func (s *orderService) Transition(ctx context.Context, cmd TransitionOrderCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, invalidField("orderId", "is required")
	}
	if !cmd.TargetStatus.Valid() {
		return Order{}, invalidField("status", fmt.Sprintf("unknown status %q", cmd.TargetStatus))
	}
	if err := authorize(cmd.Actor, capabilityForStatus(cmd.TargetStatus)); err != nil {
		return Order{}, err
	}

	order, err := s.loadForUpdate(ctx, orderID, cmd.ExpectedVersion)
	if err != nil {
		return Order{}, err
	}

	now := s.now()
	actorID := strings.TrimSpace(cmd.Actor.ID)
	previous := order.Status
	changed, err := applyStatus(&order, cmd.TargetStatus, statusChange{
		note:        textutil.Sanitize(cmd.Note, noteLimit),
		internal:    cmd.Internal,
		deliveredAt: cmd.ActualDeliveryDate,
		actorID:     actorID,
		now:         now,
	})
	if err != nil {
		return Order{}, err
	}
	if !changed {
		return order, nil
	}

	return s.persist(ctx, order, previous, actorID, now, nil)
}

func (s *orderService) UpdateOrder(ctx context.Context, cmd UpdateOrderCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, invalidField("orderId", "is required")
	}
	if err := validateUpdate(cmd); err != nil {
		return Order{}, err
	}
	for _, capability := range capabilitiesForUpdate(cmd) {
		if err := authorize(cmd.Actor, capability); err != nil {
			return Order{}, err
		}
	}

	order, err := s.loadForUpdate(ctx, orderID, cmd.ExpectedVersion)
	if err != nil {
		return Order{}, err
	}

	before := order
	now := s.now()
	actorID := strings.TrimSpace(cmd.Actor.ID)
	note := textutil.Sanitize(cmd.Note, noteLimit)
	changed := false

	if cmd.Status != nil {
		moved, err := applyStatus(&order, *cmd.Status, statusChange{
			note:        note,
			internal:    cmd.Internal,
			deliveredAt: cmd.ActualDeliveryDate,
			actorID:     actorID,
			now:         now,
		})
		if err != nil {
			return Order{}, err
		}
		changed = changed || moved
	} else if note != "" {
		order.History = append(order.History, HistoryEntry{
			Status:    order.Status,
			Note:      note,
			Timestamp: now,
			UpdatedBy: actorID,
			Internal:  cmd.Internal,
		})
		changed = true
	}

	if cmd.PaymentStatus != nil && *cmd.PaymentStatus != order.PaymentStatus {
		order.PaymentStatus = *cmd.PaymentStatus
		if order.PaymentStatus == domain.PaymentStatusPaid && cmd.PaymentDate == nil {
			order.PaymentDate = timePtr(now)
		}
		changed = true
	}
	if cmd.PaymentDate != nil {
		order.PaymentDate = timePtr(cmd.PaymentDate.UTC())
		changed = true
	}
	if cmd.EstimatedDeliveryDate != nil {
		order.EstimatedDeliveryDate = timePtr(cmd.EstimatedDeliveryDate.UTC())
		changed = true
	}
	enteredDelivered := before.Status != domain.OrderStatusDelivered && order.Status == domain.OrderStatusDelivered
	if cmd.ActualDeliveryDate != nil && !enteredDelivered {
		order.ActualDeliveryDate = timePtr(cmd.ActualDeliveryDate.UTC())
		changed = true
	}
	if cmd.TrackingNumber != nil {
		order.TrackingNumber = textutil.Sanitize(*cmd.TrackingNumber, shortTextLimit)
		changed = changed || order.TrackingNumber != before.TrackingNumber
	}
	if cmd.Carrier != nil {
		order.Carrier = textutil.Sanitize(*cmd.Carrier, shortTextLimit)
		changed = changed || order.Carrier != before.Carrier
	}
	if cmd.InternalNotes != nil {
		order.InternalNotes = textutil.Sanitize(*cmd.InternalNotes, internalNotesLimit)
		changed = changed || order.InternalNotes != before.InternalNotes
	}

	if !changed {
		return before, nil
	}
	return s.persist(ctx, order, before.Status, actorID, now, diffOrders(before, order))
}

func (s *orderService) DeleteOrder(ctx context.Context, cmd DeleteOrderCommand) error {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return invalidField("orderId", "is required")
	}
	if err := authorize(cmd.Actor, auth.CapOrdersDelete); err != nil {
		return err
	}

	order, err := s.loadForUpdate(ctx, orderID, cmd.ExpectedVersion)
	if err != nil {
		return err
	}
	if !deletableStatuses[order.Status] {
		return &InvalidTransitionError{
			From:   order.Status,
			Reason: fmt.Sprintf("only pending or cancelled orders can be deleted; order is %s", order.Status),
		}
	}

	if err := s.orders.Delete(ctx, order.ID, order.Version); err != nil {
		return s.mapRepositoryError(err, order.ID)
	}

	now := s.now()
	actorID := strings.TrimSpace(cmd.Actor.ID)
	s.recordAudit(ctx, actorID, "order.delete", order, map[string]AuditLogDiff{
		"status": {Before: string(order.Status), After: nil},
	})
	s.publishEvent(ctx, OrderEvent{
		Type:           orderEventDeleted,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		PreviousStatus: string(order.Status),
		ActorID:        actorID,
		OccurredAt:     now,
	})
	return nil
}

func (s *orderService) loadForUpdate(ctx context.Context, orderID string, expectedVersion *int64) (Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err, orderID)
	}
	if expectedVersion != nil && *expectedVersion != order.Version {
		return Order{}, &ConcurrentModificationError{OrderID: orderID, Expected: *expectedVersion, Actual: order.Version}
	}
	return order, nil
}

// persist writes the mutated order conditioned on the version it was read at, then emits the
// matching event and audit record.
func (s *orderService) persist(ctx context.Context, order Order, previous OrderStatus, actorID string, now time.Time, diff map[string]AuditLogDiff) (Order, error) {
	order.UpdatedAt = now
	saved, err := s.orders.Update(ctx, order, order.Version)
	if err != nil {
		return Order{}, s.mapRepositoryError(err, order.ID)
	}

	eventType := orderEventUpdated
	action := "order.update"
	if saved.Status != previous {
		eventType = orderEventStatusChanged
		action = "order.status_change"
		if diff == nil {
			diff = map[string]AuditLogDiff{}
		}
		diff["status"] = AuditLogDiff{Before: string(previous), After: string(saved.Status)}
	}

	s.recordAudit(ctx, actorID, action, saved, diff)
	s.publishEvent(ctx, OrderEvent{
		Type:           eventType,
		OrderID:        saved.ID,
		OrderNumber:    saved.OrderNumber,
		PreviousStatus: string(previous),
		CurrentStatus:  string(saved.Status),
		ActorID:        actorID,
		OccurredAt:     now,
		Metadata: map[string]any{
			"version":       saved.Version,
			"paymentStatus": string(saved.PaymentStatus),
		},
	})
	return saved, nil
}

type statusChange struct {
	note        string
	internal    bool
	deliveredAt *time.Time
	actorID     string
	now         time.Time
}

// applyStatus moves the order to target through the transition table. It reports false for the
// same-status no-op. Only entering delivered touches payment fields.
func applyStatus(order *Order, target OrderStatus, change statusChange) (bool, error) {
	current := order.Status
	if !CanTransition(current, target) {
		return false, &InvalidTransitionError{From: current, To: target}
	}
	if current == target && change.note == "" {
		return false, nil
	}

	order.History = append(order.History, HistoryEntry{
		Status:    target,
		Note:      change.note,
		Timestamp: change.now,
		UpdatedBy: change.actorID,
		Internal:  change.internal,
	})
	order.Status = target

	if current != target && target == domain.OrderStatusDelivered {
		if change.deliveredAt != nil {
			order.ActualDeliveryDate = timePtr(change.deliveredAt.UTC())
		} else {
			order.ActualDeliveryDate = timePtr(change.now)
		}
		if order.PaymentMethod == domain.PaymentMethodCashOnDelivery && order.PaymentStatus == domain.PaymentStatusPending {
			order.PaymentStatus = domain.PaymentStatusPaid
			order.PaymentDate = timePtr(change.now)
		}
	}
	return true, nil
}

func validateUpdate(cmd UpdateOrderCommand) error {
	if cmd.Status != nil && !cmd.Status.Valid() {
		return invalidField("status", fmt.Sprintf("unknown status %q", *cmd.Status))
	}
	if cmd.PaymentStatus != nil && !cmd.PaymentStatus.Valid() {
		return invalidField("paymentStatus", fmt.Sprintf("unknown payment status %q", *cmd.PaymentStatus))
	}
	if cmd.Status == nil && cmd.PaymentStatus == nil && cmd.PaymentDate == nil &&
		cmd.EstimatedDeliveryDate == nil && cmd.ActualDeliveryDate == nil &&
		cmd.TrackingNumber == nil && cmd.Carrier == nil && cmd.InternalNotes == nil &&
		strings.TrimSpace(cmd.Note) == "" {
		return invalidField("", "no changes supplied")
	}
	return nil
}

func capabilityForStatus(status OrderStatus) auth.Capability {
	if status == domain.OrderStatusRefunded {
		return auth.CapOrdersRefund
	}
	return auth.CapOrdersUpdate
}

// capabilitiesForUpdate returns what the patch needs: refunds need orders.refund, anything else
// needs orders.update.
func capabilitiesForUpdate(cmd UpdateOrderCommand) []auth.Capability {
	refund := false
	general := false
	if cmd.Status != nil {
		if *cmd.Status == domain.OrderStatusRefunded {
			refund = true
		} else {
			general = true
		}
	}
	if cmd.PaymentStatus != nil {
		if *cmd.PaymentStatus == domain.PaymentStatusRefunded {
			refund = true
		} else {
			general = true
		}
	}
	if cmd.PaymentDate != nil || cmd.EstimatedDeliveryDate != nil || cmd.ActualDeliveryDate != nil ||
		cmd.TrackingNumber != nil || cmd.Carrier != nil || cmd.InternalNotes != nil {
		general = true
	}
	if !refund && cmd.Status == nil && strings.TrimSpace(cmd.Note) != "" {
		general = true
	}

	var caps []auth.Capability
	if refund {
		caps = append(caps, auth.CapOrdersRefund)
	}
	if general {
		caps = append(caps, auth.CapOrdersUpdate)
	}
	return caps
}

func authorize(actor Actor, capability auth.Capability) error {
	if auth.HasCapability(actor.Roles, capability) {
		return nil
	}
	return &PermissionError{ActorID: actor.ID, Capability: string(capability)}
}

// authorizeCreate lets anonymous checkouts and staff through; a signed-in shopper may only order
// for their own account.
func (s *orderService) authorizeCreate(actor Actor, customerID string) error {
	actorID := strings.TrimSpace(actor.ID)
	if actorID == "" || actorID == customerID {
		return nil
	}
	for _, role := range actor.Roles {
		for _, staff := range auth.StaffRoles {
			if strings.EqualFold(strings.TrimSpace(role), staff) {
				return nil
			}
		}
	}
	return &PermissionError{ActorID: actorID, Capability: "orders.create"}
}

func (s *orderService) mapRepositoryError(err error, orderID string) error {
	if err == nil {
		return nil
	}

	var storeErr *repositories.OrderStoreError
	if errors.As(err, &storeErr) {
		switch storeErr.Code {
		case repositories.OrderStoreVersionMismatch:
			return &ConcurrentModificationError{OrderID: orderID, Expected: storeErr.Expected, Actual: storeErr.Actual}
		case repositories.OrderStoreTokenCollision:
			return &TokenCollisionError{Attempts: 1}
		case repositories.OrderStoreDuplicate:
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		}
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return &ConcurrentModificationError{OrderID: orderID}
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}

func (s *orderService) recordAudit(ctx context.Context, actorID, action string, order Order, diff map[string]AuditLogDiff) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditLogRecord{
		Actor:     actorID,
		ActorType: "staff",
		Action:    action,
		TargetRef: "/orders/" + order.ID,
		Metadata: map[string]any{
			"orderNumber": order.OrderNumber,
			"version":     order.Version,
		},
		Diff: diff,
	})
}

func (s *orderService) now() time.Time {
	return s.clock()
}

func (s *orderService) nextOrderID() string {
	return orderIDPrefix + s.newID()
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if event.Metadata != nil {
		event.Metadata = maps.Clone(event.Metadata)
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":   event.Type,
			"order":  event.OrderID,
			"error":  err.Error(),
			"status": event.CurrentStatus,
		})
	}
}

// diffOrders captures the admin-editable fields that changed.
func diffOrders(before, after Order) map[string]AuditLogDiff {
	diff := map[string]AuditLogDiff{}
	if before.PaymentStatus != after.PaymentStatus {
		diff["paymentStatus"] = AuditLogDiff{Before: string(before.PaymentStatus), After: string(after.PaymentStatus)}
	}
	if !sameTime(before.PaymentDate, after.PaymentDate) {
		diff["paymentDate"] = AuditLogDiff{Before: timeValue(before.PaymentDate), After: timeValue(after.PaymentDate)}
	}
	if !sameTime(before.EstimatedDeliveryDate, after.EstimatedDeliveryDate) {
		diff["estimatedDeliveryDate"] = AuditLogDiff{Before: timeValue(before.EstimatedDeliveryDate), After: timeValue(after.EstimatedDeliveryDate)}
	}
	if !sameTime(before.ActualDeliveryDate, after.ActualDeliveryDate) {
		diff["actualDeliveryDate"] = AuditLogDiff{Before: timeValue(before.ActualDeliveryDate), After: timeValue(after.ActualDeliveryDate)}
	}
	if before.TrackingNumber != after.TrackingNumber {
		diff["trackingNumber"] = AuditLogDiff{Before: before.TrackingNumber, After: after.TrackingNumber}
	}
	if before.Carrier != after.Carrier {
		diff["carrier"] = AuditLogDiff{Before: before.Carrier, After: after.Carrier}
	}
	if before.InternalNotes != after.InternalNotes {
		diff["internalNotes"] = AuditLogDiff{Before: before.InternalNotes, After: after.InternalNotes}
	}
	if len(diff) == 0 {
		return nil
	}
	return diff
}

func normalizeAddress(addr Address) Address {
	return Address{
		Recipient:  textutil.Sanitize(addr.Recipient, shortTextLimit),
		Street:     textutil.Sanitize(addr.Street, 200),
		Line2:      textutil.Sanitize(addr.Line2, 200),
		City:       textutil.Sanitize(addr.City, shortTextLimit),
		State:      textutil.Sanitize(addr.State, shortTextLimit),
		PostalCode: strings.TrimSpace(addr.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(addr.Country)),
		Phone:      strings.TrimSpace(addr.Phone),
	}
}

func validateAddress(field string, addr Address) error {
	switch {
	case addr.Street == "":
		return invalidField(field+".street", "is required")
	case addr.City == "":
		return invalidField(field+".city", "is required")
	case addr.PostalCode == "":
		return invalidField(field+".postalCode", "is required")
	case addr.Country == "":
		return invalidField(field+".country", "is required")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func sameTime(a, b *time.Time) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return a.Equal(*b)
	}
}

func timeValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
