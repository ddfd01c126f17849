// Package pebblestore provides an implementation of [store.Store] that persists
// to a local CockroachDB Pebble database.
package pebblestore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
	"github.com/dogmatiq/structkit/internal/telemetry"
	"github.com/dogmatiq/structkit/store"
	"go.opentelemetry.io/otel/log"
)

// Store is an implementation of [store.Store] backed by a Pebble database.
type Store struct {
	db    *pebble.DB
	write *pebble.WriteOptions
}

// Option is a functional option that changes the behavior of [Open].
type Option func(*options)

type options struct {
	Compression pebble.Compression
	Logger      log.LoggerProvider
	Sync        bool
}

// WithCompression is an [Option] that sets the block compression algorithm
// used for every level of the LSM tree. The default is Snappy.
func WithCompression(c pebble.Compression) Option {
	return func(o *options) {
		o.Compression = c
	}
}

// WithLogger is an [Option] that sends Pebble's internal log output to p.
func WithLogger(p log.LoggerProvider) Option {
	return func(o *options) {
		o.Logger = p
	}
}

// WithoutSync is an [Option] that disables syncing of the write-ahead log
// after each write.
//
// Writes that have not been synced may be lost if the host crashes.
func WithoutSync() Option {
	return func(o *options) {
		o.Sync = false
	}
}

// Open opens the Pebble database at path, creating it if it does not exist.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{
		Compression: pebble.SnappyCompression,
		Sync:        true,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create pebble directory: %w", err)
	}

	po := &pebble.Options{
		Levels: []pebble.LevelOptions{
			{Compression: o.Compression},
		},
	}

	if o.Logger != nil {
		po.Logger = telemetry.NewEngineLogger(
			o.Logger,
			"github.com/dogmatiq/structkit/driver/pebble/pebblestore",
			"pebble",
		)
	}

	db, err := pebble.Open(path, po)
	if err != nil {
		return nil, fmt.Errorf("unable to open pebble database: %w", err)
	}

	s := &Store{
		db:    db,
		write: pebble.Sync,
	}

	if !o.Sync {
		s.write = pebble.NoSync
	}

	return s, nil
}

// Get returns the value associated with k.
func (s *Store) Get(ctx context.Context, k []byte) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	v, closer, err := s.db.Get(k)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, store.Fail("get", k, err)
	}
	defer closer.Close()

	return clone(v), true, nil
}

// Put associates v with k.
func (s *Store) Put(ctx context.Context, k, v []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return store.Fail("put", k, s.db.Set(k, v, s.write))
}

// Delete removes k.
func (s *Store) Delete(ctx context.Context, k []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return store.Fail("delete", k, s.db.Delete(k, s.write))
}

// Write applies a batch of operations atomically.
func (s *Store) Write(ctx context.Context, ops ...store.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(ops) == 0 {
		return nil
	}

	b := s.db.NewBatch()
	defer b.Close()

	for _, op := range ops {
		var err error

		switch op.Kind {
		case store.PutKind:
			err = b.Set(op.Key, op.Value, nil)
		case store.DeleteKind:
			err = b.Delete(op.Key, nil)
		default:
			err = fmt.Errorf("unsupported operation kind: %s", op.Kind)
		}

		if err != nil {
			return store.Fail("write", op.Key, err)
		}
	}

	return store.Fail("write", nil, b.Commit(s.write))
}

// Scan invokes fn for each key/value pair with a key greater than or equal to
// start, in ascending order of key.
//
// The pairs are read from an iterator that is opened when the scan begins.
// Writes made by fn are not observed by the scan.
func (s *Store) Scan(ctx context.Context, start []byte, fn store.RangeFunc) error {
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: clone(start),
	})
	if err != nil {
		return store.Fail("scan", start, err)
	}
	defer it.Close()

	for it.First(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := fn(ctx, clone(it.Key()), clone(it.Value()))
		if !ok || err != nil {
			return err
		}
	}

	return store.Fail("scan", start, it.Error())
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func clone(data []byte) []byte {
	if data == nil {
		return nil
	}
	return append([]byte{}, data...)
}
