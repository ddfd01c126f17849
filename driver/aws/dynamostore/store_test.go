package dynamostore_test

import (
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	. "github.com/dogmatiq/structkit/driver/aws/dynamostore"
	"github.com/dogmatiq/structkit/driver/aws/internal/dynamox"
	"github.com/dogmatiq/structkit/internal/x/xtesting"
	"github.com/dogmatiq/structkit/list"
	"github.com/dogmatiq/structkit/set"
	"github.com/dogmatiq/structkit/store"
)

func TestStore(t *testing.T) {
	client, table := setup(t)

	store.RunTests(
		t,
		func(t *testing.T) store.Store {
			return New(client, table, xtesting.UniqueName("store"))
		},
	)
}

func TestStore_Write(t *testing.T) {
	client, table := setup(t)

	t.Run("it rejects batches that modify too many keys", func(t *testing.T) {
		t.Parallel()

		s := New(client, table, xtesting.UniqueName("store"))

		var ops []store.Op
		for i := range MaxBatchSize + 1 {
			ops = append(ops, store.PutOp(fmt.Appendf(nil, "<key-%03d>", i), []byte("<value>")))
		}

		if err := s.Write(t.Context(), ops...); !store.IsStoreError(err) {
			t.Fatalf("expected store error, got %v", err)
		}

		if _, ok, err := s.Get(t.Context(), []byte("<key-000>")); err != nil {
			t.Fatal(err)
		} else if ok {
			t.Fatal("expected no part of the batch to be applied")
		}
	})

	t.Run("it counts repeated operations on the same key once", func(t *testing.T) {
		t.Parallel()

		s := New(client, table, xtesting.UniqueName("store"))

		var ops []store.Op
		for range MaxBatchSize + 1 {
			ops = append(ops, store.PutOp([]byte("<key>"), []byte("<value>")))
		}
		ops = append(ops, store.PutOp([]byte("<other>"), []byte("<value>")))

		if err := s.Write(t.Context(), ops...); err != nil {
			t.Fatal(err)
		}
	})
}

func TestStructures(t *testing.T) {
	client, table := setup(t)
	s := New(client, table, xtesting.UniqueName("store"))

	t.Run("list", func(t *testing.T) {
		list.RunTests(t, list.NewStore(s))
	})

	t.Run("set", func(t *testing.T) {
		set.RunTests(t, set.NewStore(s))
	})
}

func BenchmarkStore(b *testing.B) {
	client, table := setup(b)

	store.RunBenchmarks(
		b,
		func(b *testing.B) store.Store {
			return New(client, table, xtesting.UniqueName("store"))
		},
	)
}

func setup(t testing.TB) (*dynamodb.Client, string) {
	client := dynamox.NewTestClient(t)
	table := xtesting.UniqueName("structkit")

	if err := CreateTable(t.Context(), client, table); err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := dynamox.DeleteTableIfExists(
			xtesting.ContextForCleanup(t),
			client,
			table,
		); err != nil {
			t.Error(err)
		}
	})

	return client, table
}
