package core

import "errors"

var (
	// ErrNotFound is returned when an update or delete matched no record.
	ErrNotFound = errors.New("translocation not found")

	// ErrInvalidRecord wraps validation failures on API input.
	ErrInvalidRecord = errors.New("invalid translocation")

	// ErrTooManyImports is returned when every import slot stayed busy for
	// the whole wait period. Clients should retry after a short delay.
	ErrTooManyImports = errors.New("too many concurrent imports, please try again later")
)
