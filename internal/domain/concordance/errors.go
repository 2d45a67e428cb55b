package concordance

import "errors"

var (
	// ErrEmptyQuery is returned when the query is empty or only whitespace.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrOutOfRange is returned when a request parameter exceeds the limits
	// the service accepts.
	ErrOutOfRange = errors.New("parameter out of range")
)
