package list

import (
	"context"

	"github.com/dogmatiq/structkit/internal/errorx"
	"github.com/dogmatiq/structkit/internal/keylock"
	"github.com/dogmatiq/structkit/key"
	"github.com/dogmatiq/structkit/marshaler"
	"github.com/dogmatiq/structkit/store"
)

// NewStore returns a [Store] that persists lists in s.
//
// Pushes to the same list via the returned store are serialized. Pushes made
// via other stores that share s are not.
func NewStore(s store.Store) Store {
	return &listStore{Store: s}
}

type listStore struct {
	Store store.Store
	locks keylock.Map
}

func (s *listStore) Open(ctx context.Context, name string) (List, error) {
	if err := key.Validate(key.List, name); err != nil {
		return nil, err
	}

	return &list{
		name:  name,
		meta:  key.Meta(key.List, name),
		store: s.Store,
		locks: &s.locks,
	}, ctx.Err()
}

type list struct {
	name  string
	meta  []byte
	store store.Store
	locks *keylock.Map
}

func (l *list) Name() string {
	return l.name
}

func (l *list) Push(ctx context.Context, v string) (_ Index, err error) {
	defer errorx.Wrap(&err, "unable to push to the %q list", l.name)

	data, err := marshaler.String.Marshal(v)
	if err != nil {
		return 0, err
	}

	unlock := l.locks.Lock(l.name)
	defer unlock()

	n, _, err := l.length(ctx)
	if err != nil {
		return 0, err
	}

	meta, err := marshaler.ListMetadata.Marshal(marshaler.ListMeta{Length: n + 1})
	if err != nil {
		return 0, err
	}

	// The element and the length that covers it become visible together.
	if err := l.store.Write(
		ctx,
		store.PutOp(key.ListIndex(l.name, n), data),
		store.PutOp(l.meta, meta),
	); err != nil {
		return 0, err
	}

	return Index(n), nil
}

func (l *list) Get(ctx context.Context, i Index) (string, error) {
	n, _, err := l.length(ctx)
	if err != nil {
		return "", err
	}

	if uint64(i) >= n {
		return "", ElementNotFoundError{l.name, i}
	}

	v, ok, err := l.element(ctx, i)
	if err != nil {
		return "", err
	}

	if !ok {
		return "", ElementNotFoundError{l.name, i}
	}

	return v, nil
}

func (l *list) All(ctx context.Context) ([]string, error) {
	var elements []string

	if err := l.Range(
		ctx,
		func(_ context.Context, _ Index, v string) (bool, error) {
			elements = append(elements, v)
			return true, nil
		},
	); err != nil {
		return nil, err
	}

	return elements, nil
}

func (l *list) Range(ctx context.Context, fn RangeFunc) error {
	n, _, err := l.length(ctx)
	if err != nil {
		return err
	}

	for i := range Index(n) {
		if err := ctx.Err(); err != nil {
			return err
		}

		v, ok, err := l.element(ctx, i)
		if marshaler.IsDecodeError(err) {
			continue
		}
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		ok, err = fn(ctx, i, v)
		if !ok || err != nil {
			return err
		}
	}

	return nil
}

func (l *list) Len(ctx context.Context) (uint64, error) {
	n, _, err := l.length(ctx)
	return n, err
}

func (l *list) Exists(ctx context.Context) (bool, error) {
	_, ok, err := l.store.Get(ctx, l.meta)
	return ok, err
}

func (l *list) DeleteAll(ctx context.Context) (err error) {
	defer errorx.Wrap(&err, "unable to delete the %q list", l.name)

	unlock := l.locks.Lock(l.name)
	defer unlock()

	n, ok, err := l.length(ctx)
	if err != nil || !ok {
		return err
	}

	ops := make([]store.Op, 0, min(n, maxPreallocatedOps)+1)
	for i := range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		ops = append(ops, store.DeleteOp(key.ListIndex(l.name, i)))
	}
	ops = append(ops, store.DeleteOp(l.meta))

	return l.store.Write(ctx, ops...)
}

// maxPreallocatedOps bounds the capacity reserved for a DeleteAll batch, as the
// length is read from the store and may be corrupt.
const maxPreallocatedOps = 1024

func (l *list) Close() error {
	return nil
}

// length returns the length recorded in the list's metadata, and whether the
// metadata exists.
func (l *list) length(ctx context.Context) (uint64, bool, error) {
	data, ok, err := l.store.Get(ctx, l.meta)
	if err != nil || !ok {
		return 0, false, err
	}

	meta, err := marshaler.ListMetadata.Unmarshal(data)
	if err != nil {
		return 0, true, err
	}

	return meta.Length, true, nil
}

// element returns the decoded element at index i, and whether it exists.
func (l *list) element(ctx context.Context, i Index) (string, bool, error) {
	data, ok, err := l.store.Get(ctx, key.ListIndex(l.name, uint64(i)))
	if err != nil || !ok {
		return "", false, err
	}

	v, err := marshaler.String.Unmarshal(data)
	if err != nil {
		return "", true, err
	}

	return v, true, nil
}

