// Package badgerstore provides an implementation of [store.Store] that
// persists to a local Badger database.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v2"
	"github.com/dgraph-io/badger/v2/options"
	"github.com/dogmatiq/structkit/internal/telemetry"
	"github.com/dogmatiq/structkit/store"
	"go.opentelemetry.io/otel/log"
)

// Store is an implementation of [store.Store] backed by a Badger database.
type Store struct {
	db *badger.DB
}

// Option is a functional option that changes the behavior of [Open].
type Option func(*config)

type config struct {
	Compression options.CompressionType
	Logger      log.LoggerProvider
	InMemory    bool
}

// WithCompression is an [Option] that sets the block compression algorithm.
// The default is Snappy.
func WithCompression(c options.CompressionType) Option {
	return func(o *config) {
		o.Compression = c
	}
}

// WithLogger is an [Option] that sends Badger's internal log output to p.
func WithLogger(p log.LoggerProvider) Option {
	return func(o *config) {
		o.Logger = p
	}
}

// WithInMemory is an [Option] that keeps the entire database in memory. The
// path passed to [Open] is ignored.
func WithInMemory() Option {
	return func(o *config) {
		o.InMemory = true
	}
}

// Open opens the Badger database at path, creating it if it does not exist.
func Open(path string, opts ...Option) (*Store, error) {
	o := config{
		Compression: options.Snappy,
	}

	for _, opt := range opts {
		opt(&o)
	}

	bo := badger.DefaultOptions(path).
		WithCompression(o.Compression).
		WithSyncWrites(true)

	if o.InMemory {
		bo = bo.
			WithDir("").
			WithValueDir("").
			WithInMemory(true)
	} else if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create badger directory: %w", err)
	}

	if o.Logger != nil {
		bo = bo.WithLogger(
			telemetry.NewEngineLogger(
				o.Logger,
				"github.com/dogmatiq/structkit/driver/badger/badgerstore",
				"badger",
			),
		)
	}

	db, err := badger.Open(bo)
	if err != nil {
		return nil, fmt.Errorf("unable to open badger database: %w", err)
	}

	return &Store{db}, nil
}

// Get returns the value associated with k.
func (s *Store) Get(ctx context.Context, k []byte) (v []byte, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		ok = true
		v, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, false, store.Fail("get", k, err)
	}

	return v, ok, nil
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
//
// Batches that exceed Badger's transaction size limit fail with
// [badger.ErrTxnTooBig]; they are never split.
func (s *Store) Write(ctx context.Context, ops ...store.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(ops) == 0 {
		return nil
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, op := range ops {
			var err error

			// Badger retains the slices until the transaction is committed.
			k := clone(op.Key)

			switch op.Kind {
			case store.PutKind:
				err = txn.Set(k, clone(op.Value))
			case store.DeleteKind:
				err = txn.Delete(k)
			default:
				err = fmt.Errorf("unsupported operation kind: %s", op.Kind)
			}

			if err != nil {
				return store.Fail("write", op.Key, err)
			}
		}

		return nil
	})

	return store.Fail("write", nil, err)
}

// Scan invokes fn for each key/value pair with a key greater than or equal to
// start, in ascending order of key.
//
// The pairs are read within a single read-only transaction. Writes made by
// fn are not observed by the scan.
func (s *Store) Scan(ctx context.Context, start []byte, fn store.RangeFunc) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(start); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()

			v, err := item.ValueCopy(nil)
			if err != nil {
				return store.Fail("scan", item.Key(), err)
			}

			ok, err := fn(ctx, item.KeyCopy(nil), v)
			if !ok || err != nil {
				return err
			}
		}

		return nil
	})
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
