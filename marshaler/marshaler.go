// Package marshaler encodes and decodes the values stored in the records of
// each collection.
package marshaler

import "fmt"

// Marshaler is an interface for types that can marshal and unmarshal values of
// type T.
type Marshaler[T any] interface {
	Marshal(T) ([]byte, error)
	Unmarshal([]byte) (T, error)
}

// New returns a new [Marshaler] that marshals and unmarshals values of type T
// using the given functions.
//
// Any error returned by unmarshal is wrapped in a [DecodeError].
func New[T any](
	marshal func(T) ([]byte, error),
	unmarshal func([]byte) (T, error),
) Marshaler[T] {
	var zero T
	return marshaler[T]{fmt.Sprintf("%T", zero), marshal, unmarshal}
}

type marshaler[T any] struct {
	typeName  string
	marshal   func(T) ([]byte, error)
	unmarshal func([]byte) (T, error)
}

func (m marshaler[T]) Marshal(v T) ([]byte, error) {
	return m.marshal(v)
}

func (m marshaler[T]) Unmarshal(data []byte) (T, error) {
	v, err := m.unmarshal(data)
	if err != nil {
		return v, DecodeError{
			Type:  m.typeName,
			Data:  data,
			Cause: err,
		}
	}
	return v, nil
}
