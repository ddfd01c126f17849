package scalar

import (
	"context"

	"github.com/dogmatiq/structkit/key"
	"github.com/dogmatiq/structkit/marshaler"
	"github.com/dogmatiq/structkit/store"
)

// NewStore returns a [Store] that persists scalars in s.
func NewStore(s store.Store) Store {
	return &scalarStore{s}
}

type scalarStore struct {
	Store store.Store
}

func (s *scalarStore) Open(ctx context.Context, name string) (Scalar, error) {
	if err := key.Validate(key.Scalar, name); err != nil {
		return nil, err
	}

	return &scalar{
		name:  name,
		key:   key.ScalarValue(name),
		store: s.Store,
	}, ctx.Err()
}

type scalar struct {
	name  string
	key   []byte
	store store.Store
}

func (s *scalar) Name() string {
	return s.name
}

func (s *scalar) Get(ctx context.Context) (string, bool, error) {
	data, ok, err := s.store.Get(ctx, s.key)
	if !ok || err != nil {
		return "", false, err
	}

	v, err := marshaler.String.Unmarshal(data)
	if err != nil {
		return "", false, err
	}

	return v, true, nil
}

func (s *scalar) Set(ctx context.Context, v string) error {
	data, err := marshaler.String.Marshal(v)
	if err != nil {
		return err
	}

	return s.store.Put(ctx, s.key, data)
}

func (s *scalar) Delete(ctx context.Context) error {
	return s.store.Delete(ctx, s.key)
}

func (s *scalar) Close() error {
	return nil
}
