// Package scan provides typed, prefix-bounded scans over the raw physical keys
// of a [store.Store].
//
// The scans operate on physical keys, independently of the structures built
// on top of them. They are intended for inspection and diagnostics.
package scan

import (
	"bytes"
	"context"
	"unicode/utf8"

	"github.com/dogmatiq/structkit/marshaler"
	"github.com/dogmatiq/structkit/store"
)

// Integers returns the values of the records with keys that begin with prefix,
// decoded as signed 64-bit integers.
//
// The result is keyed by the full physical key. Records with values that are
// not exactly 8 bytes long are omitted.
func Integers(ctx context.Context, s store.Store, prefix []byte) (map[string]int64, error) {
	return collect(ctx, s, prefix, marshaler.Int64)
}

// Unsigned returns the values of the records with keys that begin with prefix,
// decoded as unsigned 64-bit integers.
//
// The result is keyed by the full physical key. Records with values that are
// not exactly 8 bytes long are omitted.
func Unsigned(ctx context.Context, s store.Store, prefix []byte) (map[string]uint64, error) {
	return collect(ctx, s, prefix, marshaler.Uint64)
}

// Strings returns the values of the records with keys that begin with prefix,
// decoded as strings.
//
// The result is keyed by the full physical key. Records with values that can
// not be decoded are omitted.
func Strings(ctx context.Context, s store.Store, prefix []byte) (map[string]string, error) {
	return collect(ctx, s, prefix, marshaler.String)
}

// collect scans forward from prefix until it reaches a key that does not begin
// with prefix, or that is not valid UTF-8.
func collect[T any](
	ctx context.Context,
	s store.Store,
	prefix []byte,
	m marshaler.Marshaler[T],
) (map[string]T, error) {
	result := map[string]T{}

	if err := s.Scan(
		ctx,
		prefix,
		func(_ context.Context, k, v []byte) (bool, error) {
			if !bytes.HasPrefix(k, prefix) || !utf8.Valid(k) {
				return false, nil
			}

			if x, err := m.Unmarshal(v); err == nil {
				result[string(k)] = x
			}

			return true, nil
		},
	); err != nil {
		return nil, err
	}

	return result, nil
}
