// Package list implements append-only lists of strings on top of a
// [store.Store].
package list

import (
	"context"
)

// Index is the position of an element within a [List]. The first element is
// always at index 0.
type Index uint64

// A RangeFunc is a function used to range over the elements in a [List].
//
// If err is non-nil, ranging stops and err is propagated up the stack.
// Otherwise, if ok is false, ranging stops without any error being propagated.
type RangeFunc func(context.Context, Index, string) (ok bool, err error)

// A List is an append-only sequence of strings.
//
// A list comes into existence when its first element is pushed, and ceases to
// exist when it is deleted by [List.DeleteAll].
type List interface {
	// Name returns the name of the list.
	Name() string

	// Push appends v to the end of the list and returns its index.
	//
	// The element and the new length are written in a single batch. Pushes to
	// the same list are serialized only when they are made through the same
	// [Store]; concurrent pushes through different stores that share an
	// underlying [store.Store] may overwrite each other.
	Push(ctx context.Context, v string) (Index, error)

	// Get returns the element at index i.
	//
	// It returns an [ElementNotFoundError] if there is no element at i.
	Get(ctx context.Context, i Index) (string, error)

	// All returns every element in the list, in index order.
	//
	// Elements that are missing or can not be decoded are omitted.
	All(ctx context.Context) ([]string, error)

	// Range invokes fn for each element in the list, in index order.
	//
	// Elements that are missing or can not be decoded are skipped.
	Range(ctx context.Context, fn RangeFunc) error

	// Len returns the number of elements in the list. It returns 0 if the list
	// does not exist.
	Len(ctx context.Context) (uint64, error)

	// Exists returns true if the list exists.
	Exists(ctx context.Context) (bool, error)

	// DeleteAll removes the list and all of its elements in a single atomic
	// batch. It is not an error if the list does not exist.
	//
	// The batch contains one operation per element plus one for the metadata,
	// so it is subject to the batch limits of the underlying store. DynamoDB
	// rejects batches that modify more than 100 keys, so lists with 100 or
	// more elements can not be deleted there. Badger rejects transactions that
	// exceed its size limit with badger.ErrTxnTooBig.
	DeleteAll(ctx context.Context) error

	// Close closes the list.
	Close() error
}

// Store is a collection of lists.
type Store interface {
	// Open returns the list with the given name.
	Open(ctx context.Context, name string) (List, error)
}
