// Package counter implements fixed-width integer counters on top of a
// [store.Store].
package counter

import "context"

// Integer is the constraint satisfied by the value type of a [Counter].
type Integer interface {
	~int64 | ~uint64
}

// Counter is a named 64-bit integer.
type Counter[T Integer] interface {
	// Name returns the name of the counter.
	Name() string

	// Get returns the current value of the counter.
	//
	// If ok is false the counter does not exist, or its stored value is not
	// exactly 8 bytes long.
	Get(ctx context.Context) (v T, ok bool, err error)

	// Set sets the value of the counter.
	Set(ctx context.Context, v T) error

	// Increment adds one to the counter and returns the new value.
	//
	// A counter that does not exist, or that has a malformed value, is treated
	// as zero. The value wraps on overflow.
	Increment(ctx context.Context) (T, error)

	// Delete removes the counter.
	Delete(ctx context.Context) error

	// Close closes the counter.
	Close() error
}

// Store is a collection of counters.
type Store[T Integer] interface {
	// Open returns the counter with the given name.
	Open(ctx context.Context, name string) (Counter[T], error)
}
