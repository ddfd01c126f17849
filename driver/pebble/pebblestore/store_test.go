package pebblestore_test

import (
	"path/filepath"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/dogmatiq/structkit/counter"
	. "github.com/dogmatiq/structkit/driver/pebble/pebblestore"
	"github.com/dogmatiq/structkit/list"
	"github.com/dogmatiq/structkit/set"
	"github.com/dogmatiq/structkit/store"
	nooplog "go.opentelemetry.io/otel/log/noop"
)

func TestStore(t *testing.T) {
	store.RunTests(
		t,
		func(t *testing.T) store.Store {
			return open(t, filepath.Join(t.TempDir(), "db"))
		},
	)
}

func TestStore_options(t *testing.T) {
	store.RunTests(
		t,
		func(t *testing.T) store.Store {
			return open(
				t,
				t.TempDir(),
				WithCompression(pebble.ZstdCompression),
				WithLogger(nooplog.NewLoggerProvider()),
				WithoutSync(),
			)
		},
	)
}

func TestStore_reopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	l, err := list.NewStore(s).Open(t.Context(), "q")
	if err != nil {
		t.Fatal(err)
	}

	for _, v := range []string{"alpha", "beta"} {
		if _, err := l.Push(t.Context(), v); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s = open(t, dir)

	l, err = list.NewStore(s).Open(t.Context(), "q")
	if err != nil {
		t.Fatal(err)
	}

	n, err := l.Len(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	if n != 2 {
		t.Fatalf("unexpected length after reopening: got %d, want 2", n)
	}
}

func TestStructures(t *testing.T) {
	s := open(t, t.TempDir())

	t.Run("list", func(t *testing.T) {
		list.RunTests(t, list.NewStore(s))
	})

	t.Run("set", func(t *testing.T) {
		set.RunTests(t, set.NewStore(s))
	})

	t.Run("counter", func(t *testing.T) {
		counter.RunTests(t, counter.NewStore[uint64](s))
	})
}

func BenchmarkStore(b *testing.B) {
	store.RunBenchmarks(
		b,
		func(b *testing.B) store.Store {
			s, err := Open(b.TempDir(), WithoutSync())
			if err != nil {
				b.Fatal(err)
			}
			b.Cleanup(func() { s.Close() })
			return s
		},
	)
}

func open(t *testing.T, path string, opts ...Option) *Store {
	t.Helper()

	s, err := Open(path, opts...)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Error(err)
		}
	})

	return s
}
