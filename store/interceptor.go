package store

import (
	"context"
	"sync/atomic"
)

// Interceptor defines functions that are invoked around store operations.
//
// Put and Delete are presented to the write hooks as a batch containing a
// single operation.
type Interceptor struct {
	beforeGet   atomic.Pointer[func([]byte) error]
	beforeWrite atomic.Pointer[func([]Op) error]
	afterWrite  atomic.Pointer[func([]Op) error]
}

// BeforeGet sets the function that is invoked before a value is read.
func (i *Interceptor) BeforeGet(fn func(k []byte) error) {
	setReadFn(&i.beforeGet, fn)
}

// BeforeWrite sets the function that is invoked before a batch is written.
//
// If fn returns an error, the batch is not written.
func (i *Interceptor) BeforeWrite(fn func(ops []Op) error) {
	setWriteFn(&i.beforeWrite, fn)
}

// AfterWrite sets the function that is invoked after a batch is written.
func (i *Interceptor) AfterWrite(fn func(ops []Op) error) {
	setWriteFn(&i.afterWrite, fn)
}

// WithInterceptor returns a [Store] that invokes the functions defined by the
// given [Interceptor] when performing operations on s.
func WithInterceptor(s Store, in *Interceptor) Store {
	if in == nil {
		return s
	}

	return &interceptedStore{
		Next:        s,
		Interceptor: in,
	}
}

func setReadFn(dst *atomic.Pointer[func([]byte) error], fn func([]byte) error) {
	if fn == nil {
		dst.Store(nil)
		return
	}

	dst.Store(&fn)
}

func setWriteFn(dst *atomic.Pointer[func([]Op) error], fn func([]Op) error) {
	if fn == nil {
		dst.Store(nil)
		return
	}

	dst.Store(&fn)
}

type interceptedStore struct {
	Next        Store
	Interceptor *Interceptor
}

func (s *interceptedStore) Get(ctx context.Context, k []byte) ([]byte, bool, error) {
	if fn := s.Interceptor.beforeGetFn(); fn != nil {
		if err := fn(k); err != nil {
			return nil, false, err
		}
	}

	return s.Next.Get(ctx, k)
}

func (s *interceptedStore) Put(ctx context.Context, k, v []byte) error {
	return s.write(
		[]Op{PutOp(k, v)},
		func() error { return s.Next.Put(ctx, k, v) },
	)
}

func (s *interceptedStore) Delete(ctx context.Context, k []byte) error {
	return s.write(
		[]Op{DeleteOp(k)},
		func() error { return s.Next.Delete(ctx, k) },
	)
}

func (s *interceptedStore) Write(ctx context.Context, ops ...Op) error {
	return s.write(
		ops,
		func() error { return s.Next.Write(ctx, ops...) },
	)
}

func (s *interceptedStore) write(ops []Op, next func() error) error {
	if fn := s.Interceptor.beforeWriteFn(); fn != nil {
		if err := fn(ops); err != nil {
			return err
		}
	}

	if err := next(); err != nil {
		return err
	}

	if fn := s.Interceptor.afterWriteFn(); fn != nil {
		if err := fn(ops); err != nil {
			return err
		}
	}

	return nil
}

func (s *interceptedStore) Scan(ctx context.Context, start []byte, fn RangeFunc) error {
	return s.Next.Scan(ctx, start, fn)
}

func (s *interceptedStore) Close() error {
	return s.Next.Close()
}

func (i *Interceptor) beforeGetFn() func([]byte) error {
	if fn := i.beforeGet.Load(); fn != nil {
		return *fn
	}
	return nil
}

func (i *Interceptor) beforeWriteFn() func([]Op) error {
	if fn := i.beforeWrite.Load(); fn != nil {
		return *fn
	}
	return nil
}

func (i *Interceptor) afterWriteFn() func([]Op) error {
	if fn := i.afterWrite.Load(); fn != nil {
		return *fn
	}
	return nil
}
