package set_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dogmatiq/structkit/driver/memory/memorystore"
	"github.com/dogmatiq/structkit/key"
	"github.com/dogmatiq/structkit/marshaler"
	. "github.com/dogmatiq/structkit/set"
	"github.com/dogmatiq/structkit/store"
	"github.com/google/go-cmp/cmp"
)

func TestStore(t *testing.T) {
	RunTests(t, NewStore(&memorystore.Store{}))
}

func BenchmarkStore(b *testing.B) {
	RunBenchmarks(b, NewStore(&memorystore.Store{}))
}

func TestSet_physicalLayout(t *testing.T) {
	t.Parallel()

	s := &memorystore.Store{}

	set, err := NewStore(s).Open(t.Context(), "tags")
	if err != nil {
		t.Fatal(err)
	}
	defer set.Close()

	for _, m := range []string{"red", "blue"} {
		if err := set.Add(t.Context(), m); err != nil {
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
		[]string{"data_z_tags:blue", "data_z_tags:red"},
		keys,
	); diff != "" {
		t.Fatal(diff)
	}
}

func TestSet_corruption(t *testing.T) {
	t.Parallel()

	s := &memorystore.Store{}

	set, err := NewStore(s).Open(t.Context(), "<set>")
	if err != nil {
		t.Fatal(err)
	}
	defer set.Close()

	for _, m := range []string{"a", "b", "c"} {
		if err := set.Add(t.Context(), m); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Put(t.Context(), key.SetMember("<set>", "b"), []byte{0xff}); err != nil {
		t.Fatal(err)
	}

	members, err := set.Members(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"a", "c"}, members); diff != "" {
		t.Fatal(diff)
	}

	ok, err := set.Has(t.Context(), "b")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected membership to be determined by key presence alone")
	}
}

func TestSet_faults(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*store.Interceptor, Set) {
		var in store.Interceptor
		s := store.WithInterceptor(&memorystore.Store{}, &in)

		set, err := NewStore(s).Open(t.Context(), "<set>")
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { set.Close() })

		if err := set.Add(t.Context(), "a"); err != nil {
			t.Fatal(err)
		}

		return &in, set
	}

	expectMembers := func(t *testing.T, set Set, expect ...string) {
		t.Helper()

		actual, err := set.Members(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(expect, actual); diff != "" {
			t.Fatal(diff)
		}
	}

	t.Run("Add writes a single record keyed by the member", func(t *testing.T) {
		t.Parallel()

		in, set := setup(t)

		var ops []store.Op
		in.BeforeWrite(func(x []store.Op) error {
			ops = x
			return nil
		})

		if err := set.Add(t.Context(), "b"); err != nil {
			t.Fatal(err)
		}

		value, err := marshaler.String.Marshal("b")
		if err != nil {
			t.Fatal(err)
		}

		want := []store.Op{
			store.PutOp([]byte("data_z_<set>:b"), value),
		}

		if diff := cmp.Diff(want, ops); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("Remove deletes the member's record", func(t *testing.T) {
		t.Parallel()

		in, set := setup(t)

		var ops []store.Op
		in.BeforeWrite(func(x []store.Op) error {
			ops = x
			return nil
		})

		if err := set.Remove(t.Context(), "a"); err != nil {
			t.Fatal(err)
		}

		want := []store.Op{
			store.DeleteOp([]byte("data_z_<set>:a")),
		}

		if diff := cmp.Diff(want, ops); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("a failed TryAdd leaves the set unchanged", func(t *testing.T) {
		t.Parallel()

		in, set := setup(t)

		want := errors.New("<error>")
		in.BeforeWrite(func([]store.Op) error {
			return want
		})

		if _, err := set.TryAdd(t.Context(), "b"); !errors.Is(err, want) {
			t.Fatalf("unexpected error: got %v, want %v", err, want)
		}

		expectMembers(t, set, "a")
	})

	t.Run("a failed TryRemove leaves the set unchanged", func(t *testing.T) {
		t.Parallel()

		in, set := setup(t)

		want := errors.New("<error>")
		in.BeforeWrite(func([]store.Op) error {
			return want
		})

		if _, err := set.TryRemove(t.Context(), "a"); !errors.Is(err, want) {
			t.Fatalf("unexpected error: got %v, want %v", err, want)
		}

		expectMembers(t, set, "a")
	})

	t.Run("TryAdd does not write if the member is already present", func(t *testing.T) {
		t.Parallel()

		in, set := setup(t)

		in.BeforeWrite(func([]store.Op) error {
			return errors.New("unexpected write")
		})

		added, err := set.TryAdd(t.Context(), "a")
		if err != nil {
			t.Fatal(err)
		}

		if added {
			t.Fatal("expected TryAdd to report that the member was already present")
		}
	})

	t.Run("it reports an error from after the write, with the write applied", func(t *testing.T) {
		t.Parallel()

		in, set := setup(t)

		want := errors.New("<error>")
		in.AfterWrite(func([]store.Op) error {
			return want
		})

		if err := set.Add(t.Context(), "b"); !errors.Is(err, want) {
			t.Fatalf("unexpected error: got %v, want %v", err, want)
		}

		in.AfterWrite(nil)
		expectMembers(t, set, "a", "b")
	})

	t.Run("it propagates read errors", func(t *testing.T) {
		t.Parallel()

		in, set := setup(t)

		want := errors.New("<error>")
		in.BeforeGet(func([]byte) error {
			return want
		})

		if _, err := set.Has(t.Context(), "a"); !errors.Is(err, want) {
			t.Fatalf("unexpected error from Has: got %v, want %v", err, want)
		}

		if _, err := set.TryAdd(t.Context(), "b"); !errors.Is(err, want) {
			t.Fatalf("unexpected error from TryAdd: got %v, want %v", err, want)
		}

		if _, err := set.TryRemove(t.Context(), "a"); !errors.Is(err, want) {
			t.Fatalf("unexpected error from TryRemove: got %v, want %v", err, want)
		}
	})
}

func TestStore_Open(t *testing.T) {
	t.Parallel()

	for _, name := range []string{
		"a:b",
		string([]byte{0xff}),
	} {
		_, err := NewStore(&memorystore.Store{}).Open(t.Context(), name)
		if !key.IsInvalidKey(err) {
			t.Fatalf("expected InvalidKeyError for %q, got %v", name, err)
		}
	}
}
