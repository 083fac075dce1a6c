package grocery

import "errors"

var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateItem is returned when an item with the same name in any case exists.
	ErrDuplicateItem = errors.New("item already exists")
	// ErrNotFound is returned when a delete matched nothing.
	ErrNotFound = errors.New("item not found")
	// ErrStoreUnavailable wraps store failures that are not domain conditions.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError carries a client-facing detail and matches ErrValidation.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
