package kitchen

import "errors"

var (
	ErrNotFound          = errors.New("kitchen order not found")
	ErrInvalidTransition = errors.New("invalid kitchen status transition")
	ErrChefNotFound      = errors.New("chef not found")
)
