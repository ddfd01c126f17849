// Package memorystore provides an in-memory implementation of [store.Store].
package memorystore

import (
	"context"
	"slices"
	"sync"

	"github.com/dogmatiq/dyad"
	"github.com/dogmatiq/structkit/store"
)

// Store is an in-memory implementation of [store.Store].
//
// The zero-value is an empty store, ready to use.
type Store struct {
	// BeforeWrite, if non-nil, is called before a batch is applied. Put and
	// Delete are presented as a batch containing a single operation.
	//
	// If it returns an error, none of the operations in the batch are applied.
	BeforeWrite func(ops []store.Op) error

	// AfterWrite, if non-nil, is called after a batch is applied.
	AfterWrite func(ops []store.Op) error

	m      sync.RWMutex
	keys   []string // sorted
	values map[string][]byte
	closed bool
}

// Get returns the value associated with k.
func (s *Store) Get(ctx context.Context, k []byte) ([]byte, bool, error) {
	s.m.RLock()
	defer s.m.RUnlock()

	s.checkOpen()

	v, ok := s.values[string(k)]
	if !ok {
		return nil, false, ctx.Err()
	}

	return dyad.Clone(v), true, ctx.Err()
}

// Put associates v with k.
func (s *Store) Put(ctx context.Context, k, v []byte) error {
	return s.Write(ctx, store.PutOp(k, v))
}

// Delete removes k.
func (s *Store) Delete(ctx context.Context, k []byte) error {
	return s.Write(ctx, store.DeleteOp(k))
}

// Write applies a batch of operations atomically.
func (s *Store) Write(ctx context.Context, ops ...store.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ops = dyad.Clone(ops)

	s.m.Lock()
	defer s.m.Unlock()

	s.checkOpen()

	if s.BeforeWrite != nil {
		if err := s.BeforeWrite(ops); err != nil {
			return err
		}
	}

	for _, op := range ops {
		switch op.Kind {
		case store.PutKind:
			s.put(string(op.Key), op.Value)
		case store.DeleteKind:
			s.delete(string(op.Key))
		}
	}

	if s.AfterWrite != nil {
		if err := s.AfterWrite(ops); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) put(k string, v []byte) {
	if v == nil {
		v = []byte{}
	}

	if s.values == nil {
		s.values = map[string][]byte{}
	}

	if _, ok := s.values[k]; !ok {
		i, _ := slices.BinarySearch(s.keys, k)
		s.keys = slices.Insert(s.keys, i, k)
	}

	s.values[k] = v
}

func (s *Store) delete(k string) {
	if _, ok := s.values[k]; !ok {
		return
	}

	i, _ := slices.BinarySearch(s.keys, k)
	s.keys = slices.Delete(s.keys, i, i+1)
	delete(s.values, k)
}

// Scan invokes fn for each key/value pair with a key greater than or equal to
// start, in ascending order of key.
//
// The store is not locked while fn is invoked. Each step resumes from the
// key following the last one visited.
func (s *Store) Scan(ctx context.Context, start []byte, fn store.RangeFunc) error {
	next := string(start)
	inclusive := true

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		k, v, ok := s.seek(next, inclusive)
		if !ok {
			return nil
		}

		ok, err := fn(ctx, []byte(k), v)
		if !ok || err != nil {
			return err
		}

		next = k
		inclusive = false
	}
}

// seek returns the first pair with a key greater than (or, if inclusive is
// true, equal to) k.
func (s *Store) seek(k string, inclusive bool) (string, []byte, bool) {
	s.m.RLock()
	defer s.m.RUnlock()

	s.checkOpen()

	i, found := slices.BinarySearch(s.keys, k)
	if found && !inclusive {
		i++
	}

	if i >= len(s.keys) {
		return "", nil, false
	}

	k = s.keys[i]
	return k, dyad.Clone(s.values[k]), true
}

// Close closes the store. Subsequent operations panic.
func (s *Store) Close() error {
	s.m.Lock()
	defer s.m.Unlock()

	s.closed = true

	return nil
}

func (s *Store) checkOpen() {
	if s.closed {
		panic("store is closed")
	}
}
