package scalar_test

import (
	"testing"

	"github.com/dogmatiq/structkit/driver/memory/memorystore"
	"github.com/dogmatiq/structkit/internal/x/xtesting"
	"github.com/dogmatiq/structkit/key"
	"github.com/dogmatiq/structkit/marshaler"
	. "github.com/dogmatiq/structkit/scalar"
	"github.com/google/go-cmp/cmp"
)

func TestScalar(t *testing.T) {
	t.Parallel()

	s := &memorystore.Store{}
	scalars := NewStore(s)

	setup := func(t *testing.T) Scalar {
		name := xtesting.SequentialName("scalar")

		sc, err := scalars.Open(t.Context(), name)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { sc.Close() })

		if sc.Name() != name {
			t.Fatalf("unexpected scalar name: got %q, want %q", sc.Name(), name)
		}

		return sc
	}

	expectValue := func(t *testing.T, sc Scalar, expect string, expectOK bool) {
		t.Helper()

		v, ok, err := sc.Get(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if ok != expectOK || v != expect {
			t.Fatalf("unexpected result: got (%q, %t), want (%q, %t)", v, ok, expect, expectOK)
		}
	}

	t.Run("it returns false if the scalar does not exist", func(t *testing.T) {
		t.Parallel()

		sc := setup(t)
		expectValue(t, sc, "", false)
	})

	t.Run("it returns the value that was set", func(t *testing.T) {
		t.Parallel()

		sc := setup(t)

		for _, v := range []string{"<value>", "", "<other>"} {
			if err := sc.Set(t.Context(), v); err != nil {
				t.Fatal(err)
			}
			expectValue(t, sc, v, true)
		}
	})

	t.Run("it removes the scalar", func(t *testing.T) {
		t.Parallel()

		sc := setup(t)

		if err := sc.Set(t.Context(), "<value>"); err != nil {
			t.Fatal(err)
		}

		if err := sc.Delete(t.Context()); err != nil {
			t.Fatal(err)
		}

		expectValue(t, sc, "", false)
	})

	t.Run("it stores the value under the scalar key", func(t *testing.T) {
		t.Parallel()

		sc, err := scalars.Open(t.Context(), "greeting")
		if err != nil {
			t.Fatal(err)
		}
		defer sc.Close()

		if err := sc.Set(t.Context(), "hi"); err != nil {
			t.Fatal(err)
		}

		data, ok, err := s.Get(t.Context(), []byte("data_s_greeting"))
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected scalar record to exist")
		}

		if diff := cmp.Diff([]byte{0x0a, 0x02, 'h', 'i'}, data); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("it returns a DecodeError if the value is malformed", func(t *testing.T) {
		t.Parallel()

		sc := setup(t)

		if err := s.Put(t.Context(), key.ScalarValue(sc.Name()), []byte{0xff}); err != nil {
			t.Fatal(err)
		}

		if _, _, err := sc.Get(t.Context()); !marshaler.IsDecodeError(err) {
			t.Fatalf("expected DecodeError, got %v", err)
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
