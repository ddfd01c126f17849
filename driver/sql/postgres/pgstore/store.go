// Package pgstore provides an implementation of [store.Store] that persists to
// a PostgreSQL table.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dogmatiq/structkit/store"
)

// DefaultPageSize is the number of rows fetched by each query of a scan.
const DefaultPageSize = 100

// Store is an implementation of [store.Store] that persists key/value pairs to
// a PostgreSQL table.
//
// Many stores may share the same table, each identified by a unique name.
// [CreateSchema] must be called before the store is used.
type Store struct {
	db       *sql.DB
	name     string
	pageSize int
}

// Option is a functional option that changes the behavior of [New].
type Option func(*Store)

// WithPageSize is an [Option] that sets the number of rows fetched by each
// query of a scan.
func WithPageSize(n int) Option {
	if n <= 0 {
		panic("page size must be positive")
	}

	return func(s *Store) {
		s.pageSize = n
	}
}

// New returns a [Store] named name that persists key/value pairs using db.
//
// The store does not take ownership of db; closing the store does not close
// the database.
func New(db *sql.DB, name string, options ...Option) *Store {
	s := &Store{
		db:       db,
		name:     name,
		pageSize: DefaultPageSize,
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// Get returns the value associated with k.
func (s *Store) Get(ctx context.Context, k []byte) ([]byte, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT value
		FROM structkit.pair
		WHERE store = $1
		AND key = $2`,
		s.name,
		notNull(k),
	)

	var v []byte
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, store.Fail("get", k, err)
	}

	return notNull(v), true, nil
}

// Put associates v with k.
func (s *Store) Put(ctx context.Context, k, v []byte) error {
	return store.Fail("put", k, s.put(ctx, s.db, k, v))
}

// Delete removes k.
func (s *Store) Delete(ctx context.Context, k []byte) error {
	return store.Fail("delete", k, s.delete(ctx, s.db, k))
}

// Write applies a batch of operations atomically within a single
// transaction.
func (s *Store) Write(ctx context.Context, ops ...store.Op) error {
	if len(ops) == 0 {
		return ctx.Err()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Fail("write", nil, fmt.Errorf("cannot start transaction: %w", err))
	}
	defer tx.Rollback() // nolint:errcheck

	for _, op := range ops {
		switch op.Kind {
		case store.PutKind:
			err = s.put(ctx, tx, op.Key, op.Value)
		case store.DeleteKind:
			err = s.delete(ctx, tx, op.Key)
		default:
			err = fmt.Errorf("unsupported operation kind: %s", op.Kind)
		}

		if err != nil {
			return store.Fail("write", op.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return store.Fail("write", nil, fmt.Errorf("cannot commit transaction: %w", err))
	}

	return nil
}

// Scan invokes fn for each key/value pair with a key greater than or equal to
// start, in ascending order of key.
//
// Pairs are fetched in pages. Writes made by fn to keys that have not yet been
// fetched are observed by the scan.
func (s *Store) Scan(ctx context.Context, start []byte, fn store.RangeFunc) error {
	query := `SELECT key, value
		FROM structkit.pair
		WHERE store = $1
		AND key >= $2
		ORDER BY key
		LIMIT $3`

	from := notNull(start)

	for {
		page, err := s.page(ctx, query, from)
		if err != nil {
			return store.Fail("scan", start, err)
		}

		for _, p := range page {
			ok, err := fn(ctx, p.Key, p.Value)
			if !ok || err != nil {
				return err
			}
		}

		if len(page) < s.pageSize {
			return nil
		}

		from = page[len(page)-1].Key
		query = `SELECT key, value
			FROM structkit.pair
			WHERE store = $1
			AND key > $2
			ORDER BY key
			LIMIT $3`
	}
}

type pair struct {
	Key, Value []byte
}

// page returns up to s.pageSize pairs using the given query. The rows are read
// in full before returning so that the connection is released before the
// caller's function is invoked.
func (s *Store) page(ctx context.Context, query string, from []byte) ([]pair, error) {
	rows, err := s.db.QueryContext(ctx, query, s.name, from, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("cannot query pairs: %w", err)
	}
	defer rows.Close()

	page := make([]pair, 0, s.pageSize)

	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return nil, fmt.Errorf("cannot scan pair: %w", err)
		}
		p.Value = notNull(p.Value)
		page = append(page, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cannot range over pairs: %w", err)
	}

	return page, nil
}

// Close is a no-op. The database is owned by the caller.
func (s *Store) Close() error {
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) put(ctx context.Context, db execer, k, v []byte) error {
	_, err := db.ExecContext(
		ctx,
		`INSERT INTO structkit.pair (
			store,
			key,
			value
		) VALUES (
			$1, $2, $3
		) ON CONFLICT (store, key) DO UPDATE SET
			value = excluded.value`,
		s.name,
		notNull(k),
		notNull(v),
	)
	return err
}

func (s *Store) delete(ctx context.Context, db execer, k []byte) error {
	_, err := db.ExecContext(
		ctx,
		`DELETE FROM structkit.pair
		WHERE store = $1
		AND key = $2`,
		s.name,
		notNull(k),
	)
	return err
}

// notNull returns data, or an empty slice if data is nil. A nil slice is sent
// to PostgreSQL as NULL, which the value column does not permit.
func notNull(data []byte) []byte {
	if data == nil {
		return []byte{}
	}
	return data
}
