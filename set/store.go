package set

import (
	"context"

	"github.com/dogmatiq/structkit/internal/keylock"
	"github.com/dogmatiq/structkit/key"
	"github.com/dogmatiq/structkit/marshaler"
	"github.com/dogmatiq/structkit/store"
)

// Store is a collection of sets.
type Store interface {
	// Open returns the set with the given name.
	//
	// Set names must not contain a colon.
	Open(ctx context.Context, name string) (Set, error)
}

// NewStore returns a [Store] that persists sets in s.
func NewStore(s store.Store) Store {
	return &setStore{Store: s}
}

type setStore struct {
	Store store.Store
	locks keylock.Map
}

func (s *setStore) Open(ctx context.Context, name string) (Set, error) {
	if err := key.Validate(key.Set, name); err != nil {
		return nil, err
	}

	return &setimpl{
		name:   name,
		prefix: key.SetScanPrefix(name),
		store:  s.Store,
		locks:  &s.locks,
	}, ctx.Err()
}

type setimpl struct {
	name   string
	prefix []byte
	store  store.Store
	locks  *keylock.Map
}

func (s *setimpl) Name() string {
	return s.name
}

func (s *setimpl) Has(ctx context.Context, m string) (bool, error) {
	_, ok, err := s.store.Get(ctx, key.SetMember(s.name, m))
	return ok, err
}

func (s *setimpl) Add(ctx context.Context, m string) error {
	data, err := marshaler.String.Marshal(m)
	if err != nil {
		return err
	}

	return s.store.Put(ctx, key.SetMember(s.name, m), data)
}

func (s *setimpl) TryAdd(ctx context.Context, m string) (bool, error) {
	unlock := s.locks.Lock(s.name)
	defer unlock()

	ok, err := s.Has(ctx, m)
	if ok || err != nil {
		return false, err
	}

	return true, s.Add(ctx, m)
}

func (s *setimpl) Remove(ctx context.Context, m string) error {
	return s.store.Delete(ctx, key.SetMember(s.name, m))
}

func (s *setimpl) TryRemove(ctx context.Context, m string) (bool, error) {
	unlock := s.locks.Lock(s.name)
	defer unlock()

	ok, err := s.Has(ctx, m)
	if !ok || err != nil {
		return false, err
	}

	return true, s.Remove(ctx, m)
}

func (s *setimpl) Members(ctx context.Context) ([]string, error) {
	var members []string

	if err := s.Range(
		ctx,
		func(_ context.Context, m string) (bool, error) {
			members = append(members, m)
			return true, nil
		},
	); err != nil {
		return nil, err
	}

	return members, nil
}

func (s *setimpl) Range(ctx context.Context, fn RangeFunc) error {
	return store.ScanPrefix(
		ctx,
		s.store,
		s.prefix,
		func(ctx context.Context, _, v []byte) (bool, error) {
			m, err := marshaler.String.Unmarshal(v)
			if err != nil {
				return true, nil
			}
			return fn(ctx, m)
		},
	)
}

func (s *setimpl) Close() error {
	return nil
}
