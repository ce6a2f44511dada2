package orders

import "errors"

var (
	ErrNotFound     = errors.New("order not found")
	ErrItemNotFound = errors.New("order item not found")

	// Conflicts: retryable by the caller with different parameters.
	ErrTableOccupied     = errors.New("table is occupied")
	ErrActiveOrderExists = errors.New("active order already exists for table")

	// Bad requests: the violated rule is named in the wrapped message.
	ErrTableUnderMaintenance = errors.New("table is under maintenance")
	ErrTableInactive         = errors.New("table is not active")
	ErrInvalidTransition     = errors.New("invalid order status transition")
	ErrOrderNotEditable      = errors.New("order items can only change while order is pending")
	ErrEmptyOrder            = errors.New("cannot confirm order without items")
	ErrKitchenStarted        = errors.New("kitchen has already started preparing")
	ErrItemAlreadyServed     = errors.New("item has already been served")
	ErrValidation            = errors.New("validation error")
)
