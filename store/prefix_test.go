package store_test

import (
	"context"
	"testing"

	"github.com/dogmatiq/structkit/driver/memory/memorystore"
	. "github.com/dogmatiq/structkit/store"
	"github.com/google/go-cmp/cmp"
)

func TestWithKeyPrefix(t *testing.T) {
	t.Parallel()

	RunTests(
		t,
		func(t *testing.T) Store {
			underlying := &memorystore.Store{}

			// Keys on either side of the prefix must never be visible.
			for _, k := range []string{"tenant-0", "tenant-1", "tenant-1.", "tenant-10", "tenant-2"} {
				if err := underlying.Put(t.Context(), []byte(k), []byte("<outside>")); err != nil {
					t.Fatal(err)
				}
			}

			return WithKeyPrefix(underlying, "tenant-1/")
		},
	)

	t.Run("it adds the prefix to each key", func(t *testing.T) {
		t.Parallel()

		underlying := &memorystore.Store{}
		s := WithKeyPrefix(underlying, "tenant-1/")

		if err := s.Put(t.Context(), []byte("<key>"), []byte("<value>")); err != nil {
			t.Fatal(err)
		}

		v, ok, err := underlying.Get(t.Context(), []byte("tenant-1/<key>"))
		if err != nil {
			t.Fatal(err)
		}

		if !ok || string(v) != "<value>" {
			t.Fatalf("unexpected value: got (%q, %t)", string(v), ok)
		}
	})

	t.Run("it does not include the prefix in scanned keys", func(t *testing.T) {
		t.Parallel()

		s := WithKeyPrefix(&memorystore.Store{}, "tenant-1/")

		if err := s.Write(
			t.Context(),
			PutOp([]byte("a"), []byte("1")),
			PutOp([]byte("b"), []byte("2")),
		); err != nil {
			t.Fatal(err)
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

		if diff := cmp.Diff([]string{"a", "b"}, keys); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("it returns the given store if the prefix is empty", func(t *testing.T) {
		t.Parallel()

		underlying := &memorystore.Store{}
		if s := WithKeyPrefix(underlying, ""); s != underlying {
			t.Fatalf("unexpected store: got %T, want %T", s, underlying)
		}
	})
}

func TestScanPrefix(t *testing.T) {
	t.Parallel()

	s := &memorystore.Store{}

	for _, k := range []string{"data_z_a:", "data_z_a:x", "data_z_a:y", "data_z_a;", "data_z_ab:z", "data_z_`"} {
		if err := s.Put(t.Context(), []byte(k), []byte("v")); err != nil {
			t.Fatal(err)
		}
	}

	var keys []string
	if err := ScanPrefix(
		t.Context(),
		s,
		[]byte("data_z_a:"),
		func(_ context.Context, k, _ []byte) (bool, error) {
			keys = append(keys, string(k))
			return true, nil
		},
	); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"data_z_a:", "data_z_a:x", "data_z_a:y"}, keys); diff != "" {
		t.Fatal(diff)
	}
}
