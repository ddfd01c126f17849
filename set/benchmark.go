package set

import (
	"context"
	"fmt"
	"testing"

	"github.com/dogmatiq/structkit/internal/x/xtesting"
	"github.com/google/uuid"
)

// RunBenchmarks runs benchmarks against a [Store] implementation.
func RunBenchmarks(
	b *testing.B,
	store Store,
) {
	var member string

	newMember := func(context.Context, Set) error {
		member = uuid.NewString()
		return nil
	}

	addMember := func(ctx context.Context, set Set) error {
		member = uuid.NewString()
		return set.Add(ctx, member)
	}

	b.Run("Store", func(b *testing.B) {
		b.Run("Open", func(b *testing.B) {
			var set Set

			xtesting.Benchmark(
				b,
				// SETUP
				nil,
				// BEFORE EACH
				nil,
				// BENCHMARKED CODE
				func(ctx context.Context) (err error) {
					set, err = store.Open(ctx, xtesting.SequentialName("set"))
					return err
				},
				// AFTER EACH
				func(context.Context) error {
					return set.Close()
				},
			)
		})
	})

	b.Run("Set", func(b *testing.B) {
		b.Run("Has", func(b *testing.B) {
			b.Run("non-existent member", func(b *testing.B) {
				benchmarkSet(b, store, nil, newMember, func(ctx context.Context, set Set) error {
					_, err := set.Has(ctx, member)
					return err
				})
			})

			b.Run("existing member", func(b *testing.B) {
				benchmarkSet(b, store, nil, addMember, func(ctx context.Context, set Set) error {
					_, err := set.Has(ctx, member)
					return err
				})
			})
		})

		b.Run("Add", func(b *testing.B) {
			benchmarkSet(b, store, nil, newMember, func(ctx context.Context, set Set) error {
				return set.Add(ctx, member)
			})
		})

		b.Run("TryAdd", func(b *testing.B) {
			b.Run("non-existent member", func(b *testing.B) {
				benchmarkSet(b, store, nil, newMember, func(ctx context.Context, set Set) error {
					_, err := set.TryAdd(ctx, member)
					return err
				})
			})

			b.Run("existing member", func(b *testing.B) {
				benchmarkSet(b, store, nil, addMember, func(ctx context.Context, set Set) error {
					_, err := set.TryAdd(ctx, member)
					return err
				})
			})
		})

		b.Run("TryRemove", func(b *testing.B) {
			benchmarkSet(b, store, nil, addMember, func(ctx context.Context, set Set) error {
				_, err := set.TryRemove(ctx, member)
				return err
			})
		})

		b.Run("Members", func(b *testing.B) {
			for _, size := range []int{10, 100} {
				b.Run(fmt.Sprintf("%d members", size), func(b *testing.B) {
					benchmarkSet(
						b,
						store,
						func(ctx context.Context, set Set) error {
							for i := range size {
								if err := set.Add(ctx, fmt.Sprintf("<member-%d>", i)); err != nil {
									return err
								}
							}
							return nil
						},
						nil,
						func(ctx context.Context, set Set) error {
							_, err := set.Members(ctx)
							return err
						},
					)
				})
			}
		})
	})
}

func benchmarkSet(
	b *testing.B,
	store Store,
	setup func(context.Context, Set) error,
	before func(context.Context, Set) error,
	fn func(context.Context, Set) error,
) {
	var set Set

	xtesting.Benchmark(
		b,
		func(ctx context.Context) error {
			var err error
			set, err = store.Open(ctx, xtesting.SequentialName("set"))
			if err != nil {
				return err
			}

			b.Cleanup(func() {
				set.Close()
			})

			if setup != nil {
				return setup(ctx, set)
			}

			return nil
		},
		func(ctx context.Context) error {
			if before != nil {
				return before(ctx, set)
			}
			return nil
		},
		func(ctx context.Context) error {
			return fn(ctx, set)
		},
		nil,
	)
}
