package services

import domain "github.com/hanko-field/orders/internal/domain"

// orderTransitions lists every (from, to) pair. Same-status pairs are allowed and handled as a
// no-op or a note append by the caller. The only backward moves are one-step corrections.
var orderTransitions = map[domain.OrderStatus]map[domain.OrderStatus]bool{
	domain.OrderStatusPending: {
		domain.OrderStatusPending:    true,
		domain.OrderStatusConfirmed:  true,
		domain.OrderStatusProcessing: true,
		domain.OrderStatusShipped:    true,
		domain.OrderStatusDelivered:  true,
		domain.OrderStatusCancelled:  true,
		domain.OrderStatusRefunded:   true,
	},
	domain.OrderStatusConfirmed: {
		domain.OrderStatusPending:    true,
		domain.OrderStatusConfirmed:  true,
		domain.OrderStatusProcessing: true,
		domain.OrderStatusShipped:    true,
		domain.OrderStatusDelivered:  true,
		domain.OrderStatusCancelled:  true,
		domain.OrderStatusRefunded:   true,
	},
	domain.OrderStatusProcessing: {
		domain.OrderStatusPending:    false,
		domain.OrderStatusConfirmed:  true,
		domain.OrderStatusProcessing: true,
		domain.OrderStatusShipped:    true,
		domain.OrderStatusDelivered:  true,
		domain.OrderStatusCancelled:  true,
		domain.OrderStatusRefunded:   true,
	},
	domain.OrderStatusShipped: {
		domain.OrderStatusPending:    false,
		domain.OrderStatusConfirmed:  false,
		domain.OrderStatusProcessing: true,
		domain.OrderStatusShipped:    true,
		domain.OrderStatusDelivered:  true,
		domain.OrderStatusCancelled:  false,
		domain.OrderStatusRefunded:   true,
	},
	domain.OrderStatusDelivered: {
		domain.OrderStatusPending:    false,
		domain.OrderStatusConfirmed:  false,
		domain.OrderStatusProcessing: false,
		domain.OrderStatusShipped:    false,
		domain.OrderStatusDelivered:  true,
		domain.OrderStatusCancelled:  false,
		domain.OrderStatusRefunded:   false,
	},
	domain.OrderStatusCancelled: {
		domain.OrderStatusPending:    false,
		domain.OrderStatusConfirmed:  false,
		domain.OrderStatusProcessing: false,
		domain.OrderStatusShipped:    false,
		domain.OrderStatusDelivered:  false,
		domain.OrderStatusCancelled:  true,
		domain.OrderStatusRefunded:   false,
	},
	domain.OrderStatusRefunded: {
		domain.OrderStatusPending:    false,
		domain.OrderStatusConfirmed:  false,
		domain.OrderStatusProcessing: false,
		domain.OrderStatusShipped:    false,
		domain.OrderStatusDelivered:  false,
		domain.OrderStatusCancelled:  false,
		domain.OrderStatusRefunded:   true,
	},
}

// CanTransition reports whether the table permits moving from one status to another.
func CanTransition(from, to domain.OrderStatus) bool {
	return orderTransitions[from][to]
}

// deletableStatuses are the only states an administrator may hard-delete.
var deletableStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusPending:   true,
	domain.OrderStatusCancelled: true,
}
