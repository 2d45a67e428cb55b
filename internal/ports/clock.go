package ports

import "time"

// Clock supplies the current time. The cache takes one so tests can drive
// access timestamps and load durations deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }
