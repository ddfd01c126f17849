package store

import (
	"context"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// WithCache returns a [Store] that caches up to size recently read values from
// s in memory.
//
// The cache is kept coherent with writes made via the returned store. Writes
// made to s by other means are not observed. Scans always read from s.
func WithCache(s Store, size int) (Store, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &cachedStore{
		Next:  s,
		cache: c,
	}, nil
}

type cachedStore struct {
	Next Store

	m     sync.Mutex
	gen   uint64
	cache *lru.Cache // map[string][]byte
}

func (s *cachedStore) Get(ctx context.Context, k []byte) ([]byte, bool, error) {
	if v, ok := s.cache.Get(string(k)); ok {
		return slices.Clone(v.([]byte)), true, nil
	}

	s.m.Lock()
	gen := s.gen
	s.m.Unlock()

	v, ok, err := s.Next.Get(ctx, k)
	if err != nil || !ok {
		return nil, false, err
	}

	s.m.Lock()
	if s.gen == gen {
		s.cache.Add(string(k), slices.Clone(v))
	}
	s.m.Unlock()

	return v, true, nil
}

func (s *cachedStore) Put(ctx context.Context, k, v []byte) error {
	defer s.invalidate(k)
	return s.Next.Put(ctx, k, v)
}

func (s *cachedStore) Delete(ctx context.Context, k []byte) error {
	defer s.invalidate(k)
	return s.Next.Delete(ctx, k)
}

func (s *cachedStore) Write(ctx context.Context, ops ...Op) error {
	keys := make([][]byte, len(ops))
	for i, op := range ops {
		keys[i] = op.Key
	}

	defer s.invalidate(keys...)
	return s.Next.Write(ctx, ops...)
}

func (s *cachedStore) Scan(ctx context.Context, start []byte, fn RangeFunc) error {
	return s.Next.Scan(ctx, start, fn)
}

func (s *cachedStore) Close() error {
	s.cache.Purge()
	return s.Next.Close()
}

// invalidate removes the given keys from the cache, and prevents any read that
// is already in progress from populating the cache with a stale value.
func (s *cachedStore) invalidate(keys ...[]byte) {
	s.m.Lock()
	defer s.m.Unlock()

	for _, k := range keys {
		s.cache.Remove(string(k))
	}

	s.gen++
}
