// Package scalar implements named string values on top of a [store.Store].
package scalar

import "context"

// Scalar is a named string value.
type Scalar interface {
	// Name returns the name of the scalar.
	Name() string

	// Get returns the value of the scalar. If ok is false the scalar does not
	// exist.
	//
	// It returns a [marshaler.DecodeError] if the stored value is malformed.
	Get(ctx context.Context) (v string, ok bool, err error)

	// Set sets the value of the scalar, creating it if necessary.
	Set(ctx context.Context, v string) error

	// Delete removes the scalar.
	Delete(ctx context.Context) error

	// Close closes the scalar.
	Close() error
}

// Store is a collection of scalars.
type Store interface {
	// Open returns the scalar with the given name.
	Open(ctx context.Context, name string) (Scalar, error)
}
