package store

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"testing"

	"github.com/dogmatiq/structkit/internal/x/xtesting"
)

// RunBenchmarks runs benchmarks against a [Store] implementation.
//
// newStore must return a new, empty store each time it is called.
func RunBenchmarks(
	b *testing.B,
	newStore func(b *testing.B) Store,
) {
	b.Run("Get", func(b *testing.B) {
		b.Run("non-existent key", func(b *testing.B) {
			var (
				s   Store
				key [32]byte
			)

			xtesting.Benchmark(
				b,
				// SETUP
				func(context.Context) error {
					s = newStore(b)
					return nil
				},
				// BEFORE EACH
				func(context.Context) error {
					_, err := io.ReadFull(rand.Reader, key[:])
					return err
				},
				// BENCHMARKED CODE
				func(ctx context.Context) error {
					_, _, err := s.Get(ctx, key[:])
					return err
				},
				// AFTER EACH
				nil,
			)
		})

		b.Run("existing key", func(b *testing.B) {
			var (
				s   Store
				key [32]byte
			)

			xtesting.Benchmark(
				b,
				// SETUP
				func(context.Context) error {
					s = newStore(b)
					return nil
				},
				// BEFORE EACH
				func(ctx context.Context) error {
					if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
						return err
					}
					return s.Put(ctx, key[:], []byte("<value>"))
				},
				// BENCHMARKED CODE
				func(ctx context.Context) error {
					_, _, err := s.Get(ctx, key[:])
					return err
				},
				// AFTER EACH
				nil,
			)
		})
	})

	b.Run("Put", func(b *testing.B) {
		var (
			s   Store
			key [32]byte
		)

		xtesting.Benchmark(
			b,
			// SETUP
			func(context.Context) error {
				s = newStore(b)
				return nil
			},
			// BEFORE EACH
			func(context.Context) error {
				_, err := io.ReadFull(rand.Reader, key[:])
				return err
			},
			// BENCHMARKED CODE
			func(ctx context.Context) error {
				return s.Put(ctx, key[:], []byte("<value>"))
			},
			// AFTER EACH
			nil,
		)
	})

	b.Run("Write", func(b *testing.B) {
		for _, size := range []int{2, 16} {
			b.Run(fmt.Sprintf("%d operations", size), func(b *testing.B) {
				var (
					s   Store
					ops []Op
				)

				xtesting.Benchmark(
					b,
					// SETUP
					func(context.Context) error {
						s = newStore(b)
						return nil
					},
					// BEFORE EACH
					func(context.Context) error {
						ops = ops[:0]
						for range size {
							var key [32]byte
							if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
								return err
							}
							ops = append(ops, PutOp(key[:], []byte("<value>")))
						}
						return nil
					},
					// BENCHMARKED CODE
					func(ctx context.Context) error {
						return s.Write(ctx, ops...)
					},
					// AFTER EACH
					nil,
				)
			})
		}
	})

	b.Run("Scan", func(b *testing.B) {
		for _, size := range []int{10, 100} {
			b.Run(fmt.Sprintf("%d pairs", size), func(b *testing.B) {
				var s Store

				xtesting.Benchmark(
					b,
					// SETUP
					func(ctx context.Context) error {
						s = newStore(b)

						for i := range size {
							k := fmt.Appendf(nil, "<key-%06d>", i)
							if err := s.Put(ctx, k, []byte("<value>")); err != nil {
								return err
							}
						}

						return nil
					},
					// BEFORE EACH
					nil,
					// BENCHMARKED CODE
					func(ctx context.Context) error {
						return s.Scan(
							ctx,
							nil,
							func(context.Context, []byte, []byte) (bool, error) {
								return true, nil
							},
						)
					},
					// AFTER EACH
					nil,
				)
			})
		}
	})
}
