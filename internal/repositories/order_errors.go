package repositories

import "fmt"

// OrderStoreErrorCode enumerates order persistence failures the services layer reacts to.
type OrderStoreErrorCode string

const (
	// OrderStoreTokenCollision indicates the confirmation token is already reserved.
	OrderStoreTokenCollision OrderStoreErrorCode = "token_collision"
	// OrderStoreVersionMismatch indicates the stored order changed since it was read.
	OrderStoreVersionMismatch OrderStoreErrorCode = "version_mismatch"
	// OrderStoreDuplicate indicates an order with the same id or number already exists.
	OrderStoreDuplicate OrderStoreErrorCode = "duplicate"
)

// OrderStoreError wraps order-specific failures with machine readable codes.
type OrderStoreError struct {
	Op       string
	Code     OrderStoreErrorCode
	Message  string
	Expected int64
	Actual   int64
	Err      error
}

// Error implements the error interface.
func (e *OrderStoreError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying error, if any.
func (e *OrderStoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewTokenCollisionError reports a confirmation token that is already taken.
func NewTokenCollisionError(op string) *OrderStoreError {
	return &OrderStoreError{Op: op, Code: OrderStoreTokenCollision, Message: "confirmation token already reserved"}
}

// NewVersionMismatchError reports a failed optimistic concurrency check.
func NewVersionMismatchError(op string, expected, actual int64) *OrderStoreError {
	return &OrderStoreError{
		Op:       op,
		Code:     OrderStoreVersionMismatch,
		Message:  fmt.Sprintf("expected version %d but found %d", expected, actual),
		Expected: expected,
		Actual:   actual,
	}
}

// NewDuplicateOrderError reports an order id or number that already exists.
func NewDuplicateOrderError(op string, ref string) *OrderStoreError {
	return &OrderStoreError{Op: op, Code: OrderStoreDuplicate, Message: fmt.Sprintf("order %s already exists", ref)}
}
