package pgstore

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/structkit/driver/sql/postgres/internal/pgerror"
)

// CreateSchema creates the PostgreSQL schema elements required by [Store].
func CreateSchema(
	ctx context.Context,
	db *sql.DB,
) error {
	return pgerror.Retry(
		ctx,
		db,
		func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(
				ctx,
				`CREATE SCHEMA IF NOT EXISTS structkit`,
			); err != nil {
				return err
			}

			_, err := tx.ExecContext(
				ctx,
				`CREATE TABLE IF NOT EXISTS structkit.pair (
					store TEXT NOT NULL,
					key   BYTEA NOT NULL,
					value BYTEA NOT NULL,

					PRIMARY KEY (store, key)
				)`,
			)
			return err
		},
		// Even though we use IF NOT EXISTS in the DDL, we still need to handle
		// conflicts due to a data race bug in PostgreSQL.
		pgerror.CodeUniqueViolation,
	)
}
