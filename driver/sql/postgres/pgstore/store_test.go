package pgstore_test

import (
	"context"
	"database/sql"
	"testing"

	. "github.com/dogmatiq/structkit/driver/sql/postgres/pgstore"
	"github.com/dogmatiq/structkit/internal/x/xtesting"
	"github.com/dogmatiq/structkit/list"
	"github.com/dogmatiq/structkit/set"
	"github.com/dogmatiq/structkit/store"
	"github.com/dogmatiq/sqltest"
)

func TestStore(t *testing.T) {
	db := setup(t)

	store.RunTests(
		t,
		func(t *testing.T) store.Store {
			return New(db, xtesting.UniqueName("store"))
		},
	)
}

func TestStore_smallPages(t *testing.T) {
	db := setup(t)

	store.RunTests(
		t,
		func(t *testing.T) store.Store {
			return New(db, xtesting.UniqueName("store"), WithPageSize(2))
		},
	)
}

func TestStore_isolation(t *testing.T) {
	db := setup(t)

	a := New(db, xtesting.UniqueName("store"))
	b := New(db, xtesting.UniqueName("store"))

	if err := a.Put(t.Context(), []byte("<key>"), []byte("<value>")); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := b.Get(t.Context(), []byte("<key>")); err != nil {
		t.Fatal(err)
	} else if ok {
		t.Fatal("expected key to be absent from the other store")
	}
}

func TestStructures(t *testing.T) {
	s := New(setup(t), xtesting.UniqueName("store"))

	t.Run("list", func(t *testing.T) {
		list.RunTests(t, list.NewStore(s))
	})

	t.Run("set", func(t *testing.T) {
		set.RunTests(t, set.NewStore(s))
	})
}

func setup(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()

	database, err := sqltest.NewDatabase(ctx, sqltest.PGXDriver, sqltest.PostgreSQL)
	if err != nil {
		t.Skipf("PostgreSQL is unavailable: %s", err)
	}

	db, err := database.Open()
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Error(err)
		}

		if err := database.Close(); err != nil {
			t.Error(err)
		}
	})

	// Calling CreateSchema twice confirms that it is idempotent.
	for range 2 {
		if err := CreateSchema(ctx, db); err != nil {
			t.Fatal(err)
		}
	}

	return db
}
