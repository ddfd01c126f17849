package list_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/dogmatiq/structkit/driver/memory/memorystore"
	"github.com/dogmatiq/structkit/key"
	. "github.com/dogmatiq/structkit/list"
	"github.com/dogmatiq/structkit/marshaler"
	"github.com/dogmatiq/structkit/store"
	"github.com/google/go-cmp/cmp"
	nooplog "go.opentelemetry.io/otel/log/noop"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

func TestStore(t *testing.T) {
	RunTests(t, NewStore(&memorystore.Store{}))
}

func TestWithTelemetry(t *testing.T) {
	RunTests(
		t,
		WithTelemetry(
			NewStore(&memorystore.Store{}),
			nooptrace.NewTracerProvider(),
			noopmetric.NewMeterProvider(),
			nooplog.NewLoggerProvider(),
		),
	)
}

func TestList_physicalLayout(t *testing.T) {
	t.Parallel()

	s := &memorystore.Store{}

	l, err := NewStore(s).Open(t.Context(), "orders")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	for _, v := range []string{"x", "y"} {
		if _, err := l.Push(t.Context(), v); err != nil {
			t.Fatal(err)
		}
	}

	var keys []string
	if err := s.Scan(
		t.Context(),
		nil,
		func(_ context.Context, k, _ []byte) (bool, error) {
			keys = append(keys, string(k))
			return true, nil
		},
	); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(
		[]string{"data_l_orders_0", "data_l_orders_1", "meta_l_orders"},
		keys,
	); diff != "" {
		t.Fatal(diff)
	}

	data, _, err := s.Get(t.Context(), []byte("meta_l_orders"))
	if err != nil {
		t.Fatal(err)
	}

	meta, err := marshaler.ListMetadata.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}

	if meta.Length != 2 {
		t.Fatalf("unexpected length in metadata: got %d, want 2", meta.Length)
	}
}

func TestList_corruption(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*memorystore.Store, List) {
		s := &memorystore.Store{}

		l, err := NewStore(s).Open(t.Context(), "<list>")
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { l.Close() })

		for _, v := range []string{"a", "b", "c"} {
			if _, err := l.Push(t.Context(), v); err != nil {
				t.Fatal(err)
			}
		}

		return s, l
	}

	t.Run("it returns a DecodeError if the metadata is corrupt", func(t *testing.T) {
		t.Parallel()

		s, l := setup(t)

		if err := s.Put(t.Context(), key.Meta(key.List, "<list>"), []byte{0xff}); err != nil {
			t.Fatal(err)
		}

		if _, err := l.Len(t.Context()); !marshaler.IsDecodeError(err) {
			t.Fatalf("expected DecodeError from Len, got %v", err)
		}

		if _, err := l.All(t.Context()); !marshaler.IsDecodeError(err) {
			t.Fatalf("expected DecodeError from All, got %v", err)
		}

		if _, err := l.Push(t.Context(), "d"); !marshaler.IsDecodeError(err) {
			t.Fatalf("expected DecodeError from Push, got %v", err)
		}
	})

	t.Run("it does not trust a corrupt length", func(t *testing.T) {
		t.Parallel()

		for _, n := range []uint64{1 << 60, math.MaxUint64} {
			t.Run(fmt.Sprintf("length %d", n), func(t *testing.T) {
				t.Parallel()

				s, l := setup(t)

				data, err := marshaler.ListMetadata.Marshal(marshaler.ListMeta{Length: n})
				if err != nil {
					t.Fatal(err)
				}

				if err := s.Put(t.Context(), key.Meta(key.List, "<list>"), data); err != nil {
					t.Fatal(err)
				}

				ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
				defer cancel()

				if err := l.DeleteAll(ctx); !errors.Is(err, context.DeadlineExceeded) {
					t.Fatalf("unexpected error from DeleteAll: got %v, want %v", err, context.DeadlineExceeded)
				}

				ctx, cancel = context.WithTimeout(t.Context(), 20*time.Millisecond)
				defer cancel()

				if _, err := l.All(ctx); !errors.Is(err, context.DeadlineExceeded) {
					t.Fatalf("unexpected error from All: got %v, want %v", err, context.DeadlineExceeded)
				}
			})
		}
	})

	t.Run("it skips elements that can not be decoded", func(t *testing.T) {
		t.Parallel()

		s, l := setup(t)

		if err := s.Put(t.Context(), key.ListIndex("<list>", 1), []byte{0x0a, 0x02, 0xff, 0xfe}); err != nil {
			t.Fatal(err)
		}

		all, err := l.All(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff([]string{"a", "c"}, all); diff != "" {
			t.Fatal(diff)
		}

		if _, err := l.Get(t.Context(), 1); !marshaler.IsDecodeError(err) {
			t.Fatalf("expected DecodeError from Get, got %v", err)
		}
	})

	t.Run("it skips elements that are missing", func(t *testing.T) {
		t.Parallel()

		s, l := setup(t)

		if err := s.Delete(t.Context(), key.ListIndex("<list>", 0)); err != nil {
			t.Fatal(err)
		}

		all, err := l.All(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff([]string{"b", "c"}, all); diff != "" {
			t.Fatal(diff)
		}

		if _, err := l.Get(t.Context(), 0); !IsNotFound(err) {
			t.Fatalf("expected ElementNotFoundError, got %v", err)
		}
	})
}

func TestList_faults(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*store.Interceptor, List) {
		var in store.Interceptor
		s := store.WithInterceptor(&memorystore.Store{}, &in)

		l, err := NewStore(s).Open(t.Context(), "<list>")
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { l.Close() })

		for _, v := range []string{"a", "b", "c"} {
			if _, err := l.Push(t.Context(), v); err != nil {
				t.Fatal(err)
			}
		}

		return &in, l
	}

	t.Run("a failed DeleteAll leaves the list intact", func(t *testing.T) {
		t.Parallel()

		in, l := setup(t)

		want := errors.New("<error>")
		in.BeforeWrite(func(ops []store.Op) error {
			if len(ops) != 4 {
				t.Errorf("unexpected batch size: got %d, want 4", len(ops))
			}
			return want
		})

		if err := l.DeleteAll(t.Context()); !errors.Is(err, want) {
			t.Fatalf("unexpected error: got %v, want %v", err, want)
		}

		in.BeforeWrite(nil)

		all, err := l.All(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff([]string{"a", "b", "c"}, all); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("a failed Push leaves the list unchanged", func(t *testing.T) {
		t.Parallel()

		in, l := setup(t)

		want := errors.New("<error>")
		in.BeforeWrite(func([]store.Op) error {
			return want
		})

		if _, err := l.Push(t.Context(), "d"); !errors.Is(err, want) {
			t.Fatalf("unexpected error: got %v, want %v", err, want)
		}

		n, err := l.Len(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if n != 3 {
			t.Fatalf("unexpected length: got %d, want 3", n)
		}
	})

	t.Run("it propagates read errors", func(t *testing.T) {
		t.Parallel()

		in, l := setup(t)

		want := errors.New("<error>")
		in.BeforeGet(func([]byte) error {
			return want
		})

		if _, err := l.Len(t.Context()); !errors.Is(err, want) {
			t.Fatalf("unexpected error from Len: got %v, want %v", err, want)
		}

		if _, err := l.All(t.Context()); !errors.Is(err, want) {
			t.Fatalf("unexpected error from All: got %v, want %v", err, want)
		}

		if _, err := l.Exists(t.Context()); !errors.Is(err, want) {
			t.Fatalf("unexpected error from Exists: got %v, want %v", err, want)
		}
	})
}

func TestStore_Open(t *testing.T) {
	t.Parallel()

	_, err := NewStore(&memorystore.Store{}).Open(t.Context(), string([]byte{0xff}))
	if !key.IsInvalidKey(err) {
		t.Fatalf("expected InvalidKeyError, got %v", err)
	}
}
