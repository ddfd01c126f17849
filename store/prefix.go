package store

import (
	"bytes"
	"context"
)

// ScanPrefix invokes fn for each key/value pair in s with a key that begins
// with prefix, in ascending order of key.
//
// It stops at the first key that does not begin with prefix.
func ScanPrefix(
	ctx context.Context,
	s Store,
	prefix []byte,
	fn RangeFunc,
) error {
	return s.Scan(
		ctx,
		prefix,
		func(ctx context.Context, k, v []byte) (bool, error) {
			if !bytes.HasPrefix(k, prefix) {
				return false, nil
			}
			return fn(ctx, k, v)
		},
	)
}

// WithKeyPrefix returns a [Store] that adds the given prefix to all keys
// within s.
//
// Keys passed to a [RangeFunc] by the returned store do not include the
// prefix, and scans never visit keys outside of the prefix.
func WithKeyPrefix(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	return &prefixedStore{s, []byte(prefix)}
}

// prefixedStore is a [Store] that adds a prefix to all keys.
type prefixedStore struct {
	Next   Store
	prefix []byte
}

func (s *prefixedStore) key(k []byte) []byte {
	buf := make([]byte, 0, len(s.prefix)+len(k))
	buf = append(buf, s.prefix...)
	return append(buf, k...)
}

func (s *prefixedStore) Get(ctx context.Context, k []byte) ([]byte, bool, error) {
	return s.Next.Get(ctx, s.key(k))
}

func (s *prefixedStore) Put(ctx context.Context, k, v []byte) error {
	return s.Next.Put(ctx, s.key(k), v)
}

func (s *prefixedStore) Delete(ctx context.Context, k []byte) error {
	return s.Next.Delete(ctx, s.key(k))
}

func (s *prefixedStore) Write(ctx context.Context, ops ...Op) error {
	prefixed := make([]Op, len(ops))
	for i, op := range ops {
		prefixed[i] = Op{op.Kind, s.key(op.Key), op.Value}
	}
	return s.Next.Write(ctx, prefixed...)
}

func (s *prefixedStore) Scan(ctx context.Context, start []byte, fn RangeFunc) error {
	return s.Next.Scan(
		ctx,
		s.key(start),
		func(ctx context.Context, k, v []byte) (bool, error) {
			if !bytes.HasPrefix(k, s.prefix) {
				return false, nil
			}
			return fn(ctx, k[len(s.prefix):], v)
		},
	)
}

func (s *prefixedStore) Close() error {
	return s.Next.Close()
}
