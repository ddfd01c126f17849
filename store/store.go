// Package store defines the contract of the ordered, byte-keyed key/value
// engine that all collections are persisted in.
package store

import "context"

// A RangeFunc is a function used to range over the key/value pairs in a
// [Store].
//
// If err is non-nil, ranging stops and err is propagated up the stack.
// Otherwise, if ok is false, ranging stops without any error being propagated.
type RangeFunc func(ctx context.Context, k, v []byte) (ok bool, err error)

// Store is an ordered collection of key/value pairs with opaque binary keys
// and values.
//
// Implementations must be safe for concurrent use. Byte slices passed to or
// returned from a Store are never retained or shared by the implementation.
type Store interface {
	// Get returns the value associated with k.
	//
	// If the key does not exist ok is false. A present key may be associated
	// with an empty value.
	Get(ctx context.Context, k []byte) (v []byte, ok bool, err error)

	// Put associates v with k, replacing any existing value.
	Put(ctx context.Context, k, v []byte) error

	// Delete removes k. It is not an error if k does not exist.
	Delete(ctx context.Context, k []byte) error

	// Write applies a batch of operations atomically. Either every operation
	// is applied or none are.
	//
	// If the batch contains more than one operation on the same key, the last
	// one wins.
	Write(ctx context.Context, ops ...Op) error

	// Scan invokes fn for each key/value pair with a key greater than or equal
	// to start, in ascending bytewise order of key.
	//
	// fn may call other methods on the Store. Whether fn observes changes it
	// makes to keys it has not yet visited is undefined.
	Scan(ctx context.Context, start []byte, fn RangeFunc) error

	// Close releases any resources held by the store.
	Close() error
}

// OpKind is an enumeration of the kinds of operation within a batch.
type OpKind int

const (
	// PutKind is the kind of an operation that associates a value with a key.
	PutKind OpKind = iota

	// DeleteKind is the kind of an operation that removes a key.
	DeleteKind
)

func (k OpKind) String() string {
	switch k {
	case PutKind:
		return "put"
	case DeleteKind:
		return "delete"
	default:
		return "unknown"
	}
}

// Op is a single operation within a batch passed to [Store.Write].
type Op struct {
	Kind  OpKind
	Key   []byte
	Value []byte
}

// PutOp returns an [Op] that associates v with k.
func PutOp(k, v []byte) Op {
	return Op{PutKind, k, v}
}

// DeleteOp returns an [Op] that removes k.
func DeleteOp(k []byte) Op {
	return Op{Kind: DeleteKind, Key: k}
}
