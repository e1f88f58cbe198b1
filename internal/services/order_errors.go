package services

import (
	"errors"
	"fmt"

	domain "github.com/hanko-field/orders/internal/domain"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrCustomerNotFound indicates the referenced customer does not exist.
	ErrCustomerNotFound = errors.New("order: customer not found")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderPermission indicates the actor lacks the capability for the operation.
	ErrOrderPermission = errors.New("order: permission denied")
	// ErrOrderInvalidState indicates an invalid status transition was attempted.
	ErrOrderInvalidState = errors.New("order: invalid status transition")
	// ErrOrderConflict indicates optimistic concurrency conflicts.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrTokenCollision indicates a confirmation token could not be reserved.
	ErrTokenCollision = errors.New("order: confirmation token collision")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrOrderInvalidInput }

func invalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InvalidItemError reports a cart line that cannot be priced.
type InvalidItemError struct {
	Index  int
	Reason string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("items[%d]: %s", e.Index, e.Reason)
}

func (e *InvalidItemError) Unwrap() error { return ErrOrderInvalidInput }

// Field names the offending line for field-level error reporting.
func (e *InvalidItemError) Field() string { return fmt.Sprintf("items[%d]", e.Index) }

// CustomerNotFoundError reports an order placed for an unknown customer.
type CustomerNotFoundError struct {
	CustomerID string
}

func (e *CustomerNotFoundError) Error() string {
	return fmt.Sprintf("customer %s not found", e.CustomerID)
}

func (e *CustomerNotFoundError) Unwrap() error { return ErrCustomerNotFound }

// PermissionError reports an actor lacking the capability an operation requires.
type PermissionError struct {
	ActorID    string
	Capability string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("actor %q lacks capability %s", e.ActorID, e.Capability)
}

func (e *PermissionError) Unwrap() error { return ErrOrderPermission }

// InvalidTransitionError reports a status change the transition table forbids.
type InvalidTransitionError struct {
	From   domain.OrderStatus
	To     domain.OrderStatus
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.From.Terminal() {
		return fmt.Sprintf("order is %s and cannot move to %s", e.From, e.To)
	}
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrOrderInvalidState }

// ConcurrentModificationError reports an optimistic concurrency conflict. Callers should reload
// the order and retry.
type ConcurrentModificationError struct {
	OrderID  string
	Expected int64
	Actual   int64
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("order %s was modified concurrently (expected version %d, found %d)", e.OrderID, e.Expected, e.Actual)
}

func (e *ConcurrentModificationError) Unwrap() error { return ErrOrderConflict }

// TokenCollisionError reports that no unique confirmation token could be reserved.
type TokenCollisionError struct {
	Attempts int
}

func (e *TokenCollisionError) Error() string {
	return fmt.Sprintf("confirmation token collided %d times", e.Attempts)
}

func (e *TokenCollisionError) Unwrap() error { return ErrTokenCollision }
