package counter

import (
	"context"

	"github.com/dogmatiq/structkit/internal/errorx"
	"github.com/dogmatiq/structkit/internal/keylock"
	"github.com/dogmatiq/structkit/key"
	"github.com/dogmatiq/structkit/marshaler"
	"github.com/dogmatiq/structkit/store"
)

// NewStore returns a [Store] that persists counters in s.
//
// Increments of the same counter via the returned store are serialized.
// Increments made via other stores that share s are not.
func NewStore[T Integer](s store.Store) Store[T] {
	return &counterStore[T]{Store: s}
}

type counterStore[T Integer] struct {
	Store store.Store
	locks keylock.Map
}

func (s *counterStore[T]) Open(ctx context.Context, name string) (Counter[T], error) {
	if err := key.Validate(key.Counter, name); err != nil {
		return nil, err
	}

	return &counter[T]{
		name:  name,
		key:   key.CounterValue(name),
		store: s.Store,
		locks: &s.locks,
	}, ctx.Err()
}

type counter[T Integer] struct {
	name  string
	key   []byte
	store store.Store
	locks *keylock.Map
}

func (c *counter[T]) Name() string {
	return c.name
}

func (c *counter[T]) Get(ctx context.Context) (T, bool, error) {
	data, ok, err := c.store.Get(ctx, c.key)
	if !ok || err != nil {
		return 0, false, err
	}

	n, err := marshaler.Uint64.Unmarshal(data)
	if err != nil {
		return 0, false, nil
	}

	return T(n), true, nil
}

func (c *counter[T]) Set(ctx context.Context, v T) error {
	data, err := marshaler.Uint64.Marshal(uint64(v))
	if err != nil {
		return err
	}

	return c.store.Put(ctx, c.key, data)
}

func (c *counter[T]) Increment(ctx context.Context) (_ T, err error) {
	defer errorx.Wrap(&err, "unable to increment the %q counter", c.name)

	unlock := c.locks.Lock(c.name)
	defer unlock()

	v, _, err := c.Get(ctx)
	if err != nil {
		return 0, err
	}

	v++

	if err := c.Set(ctx, v); err != nil {
		return 0, err
	}

	return v, nil
}

func (c *counter[T]) Delete(ctx context.Context) error {
	return c.store.Delete(ctx, c.key)
}

func (c *counter[T]) Close() error {
	return nil
}
