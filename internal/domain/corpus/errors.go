package corpus

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIdentifier is returned when a corpus identifier fails the
	// allow-list check. The store is never consulted for such identifiers.
	ErrInvalidIdentifier = errors.New("invalid corpus identifier")

	// ErrNotFound is returned when a well-formed identifier has no backing
	// corpus in the store.
	ErrNotFound = errors.New("corpus not found")

	// ErrInvalidEncoding is wrapped in a LoadError when corpus bytes are not
	// valid UTF-8.
	ErrInvalidEncoding = errors.New("corpus is not valid UTF-8")
)

// LoadError reports a corpus that exists but could not be read or decoded.
// Any previously cached version of the corpus is left in place.
type LoadError struct {
	ID  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load corpus %q: %v", e.ID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
