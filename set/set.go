// Package set implements unordered sets of unique strings on top of a
// [store.Store].
package set

import "context"

// A RangeFunc is a function used to range over the members of a [Set].
//
// If err is non-nil, ranging stops and err is propagated up the stack.
// Otherwise, if ok is false, ranging stops without any error being propagated.
type RangeFunc func(ctx context.Context, member string) (ok bool, err error)

// Set is an unordered set of unique strings.
//
// A set exists for as long as it has at least one member. There is no
// separate record of a set's existence.
type Set interface {
	// Name returns the name of the set.
	Name() string

	// Has returns true if m is a member of the set.
	Has(ctx context.Context, m string) (bool, error)

	// Add ensures m is a member of the set.
	Add(ctx context.Context, m string) error

	// TryAdd ensures m is a member of the set. It returns true if m was added,
	// or false if it was already a member.
	//
	// Add() may be more performant when knowledge of m's prior membership is
	// not required.
	TryAdd(ctx context.Context, m string) (bool, error)

	// Remove ensures m is not a member of the set.
	Remove(ctx context.Context, m string) error

	// TryRemove ensures m is not a member of the set. It returns true if m was
	// removed, or false if it was not a member.
	//
	// Remove() may be more performant when knowledge of m's prior membership is
	// not required.
	TryRemove(ctx context.Context, m string) (bool, error)

	// Members returns every member of the set in ascending bytewise order.
	//
	// Members whose stored value can not be decoded are omitted.
	Members(ctx context.Context) ([]string, error)

	// Range invokes fn for each member of the set in ascending bytewise order.
	//
	// Members whose stored value can not be decoded are skipped.
	Range(ctx context.Context, fn RangeFunc) error

	// Close closes the set.
	Close() error
}
