package kwic

import "errors"

var (
	// ErrInvalidContextSize is returned when the context window is not a
	// positive number of tokens.
	ErrInvalidContextSize = errors.New("context size must be a positive integer")

	// ErrInvalidPage is returned when a page number or page size is below 1.
	ErrInvalidPage = errors.New("page and page size must be positive integers")
)
