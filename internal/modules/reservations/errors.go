package reservations

import "errors"

var (
	ErrNotFound = errors.New("reservation not found")

	// Conflicts
	ErrOverlap       = errors.New("overlapping reservation exists for table")
	ErrTableOccupied = errors.New("table is occupied")

	// Bad requests
	ErrCapacityExceeded      = errors.New("party size exceeds table capacity")
	ErrBelowMinCapacity      = errors.New("party size below table minimum")
	ErrTableUnderMaintenance = errors.New("table is under maintenance")
	ErrTableInactive         = errors.New("table is not active")
	ErrInvalidTransition     = errors.New("invalid reservation status transition")
	ErrValidation            = errors.New("validation error")
)
