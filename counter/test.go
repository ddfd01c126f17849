package counter

import (
	"sync"
	"testing"

	"github.com/dogmatiq/structkit/internal/x/xtesting"
	"pgregory.net/rapid"
)

// RunTests runs tests that confirm a [Store] implementation behaves correctly.
func RunTests[T Integer](
	t *testing.T,
	store Store[T],
) {
	setup := func(t *testing.T) Counter[T] {
		name := xtesting.SequentialName("counter")

		c, err := store.Open(t.Context(), name)
		if err != nil {
			t.Fatal(err)
		}

		t.Cleanup(func() {
			if err := c.Close(); err != nil {
				t.Error(err)
			}
		})

		if c.Name() != name {
			t.Fatalf("unexpected counter name: got %q, want %q", c.Name(), name)
		}

		return c
	}

	expectValue := func(t *testing.T, c Counter[T], expect T, expectOK bool) {
		t.Helper()

		v, ok, err := c.Get(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if ok != expectOK {
			t.Fatalf("unexpected presence: got %t, want %t", ok, expectOK)
		}

		if v != expect {
			t.Fatalf("unexpected value: got %d, want %d", v, expect)
		}
	}

	increment := func(t *testing.T, c Counter[T], expect T) {
		t.Helper()

		v, err := c.Increment(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if v != expect {
			t.Fatalf("unexpected value after increment: got %d, want %d", v, expect)
		}
	}

	t.Run("Counter", func(t *testing.T) {
		t.Parallel()

		t.Run("Get", func(t *testing.T) {
			t.Parallel()

			t.Run("it returns false if the counter does not exist", func(t *testing.T) {
				t.Parallel()

				c := setup(t)
				expectValue(t, c, 0, false)
			})

			t.Run("it returns the value that was set", func(t *testing.T) {
				t.Parallel()

				c := setup(t)

				if err := c.Set(t.Context(), 42); err != nil {
					t.Fatal(err)
				}

				expectValue(t, c, 42, true)
			})

			t.Run("it distinguishes a zero value from a missing counter", func(t *testing.T) {
				t.Parallel()

				c := setup(t)

				if err := c.Set(t.Context(), 0); err != nil {
					t.Fatal(err)
				}

				expectValue(t, c, 0, true)
			})
		})

		t.Run("Increment", func(t *testing.T) {
			t.Parallel()

			t.Run("it treats a missing counter as zero", func(t *testing.T) {
				t.Parallel()

				c := setup(t)
				increment(t, c, 1)
				expectValue(t, c, 1, true)
			})

			t.Run("it returns the new value", func(t *testing.T) {
				t.Parallel()

				c := setup(t)

				if err := c.Set(t.Context(), 10); err != nil {
					t.Fatal(err)
				}

				increment(t, c, 11)
				increment(t, c, 12)
			})

			t.Run("it wraps on overflow", func(t *testing.T) {
				t.Parallel()

				for _, n := range []uint64{1<<63 - 1, 1<<64 - 1} {
					c := setup(t)

					v := T(n)
					if err := c.Set(t.Context(), v); err != nil {
						t.Fatal(err)
					}

					v++
					increment(t, c, v)
				}
			})

			t.Run("it does not lose concurrent increments", func(t *testing.T) {
				t.Parallel()

				c := setup(t)

				const n = 20
				var g sync.WaitGroup

				for range n {
					g.Add(1)
					go func() {
						defer g.Done()

						if _, err := c.Increment(t.Context()); err != nil {
							t.Error(err)
						}
					}()
				}

				g.Wait()

				expectValue(t, c, n, true)
			})
		})

		t.Run("Delete", func(t *testing.T) {
			t.Parallel()

			t.Run("it removes the counter", func(t *testing.T) {
				t.Parallel()

				c := setup(t)
				increment(t, c, 1)

				if err := c.Delete(t.Context()); err != nil {
					t.Fatal(err)
				}

				expectValue(t, c, 0, false)
				increment(t, c, 1)
			})

			t.Run("it does not return an error if the counter does not exist", func(t *testing.T) {
				t.Parallel()

				c := setup(t)

				if err := c.Delete(t.Context()); err != nil {
					t.Fatal(err)
				}
			})
		})

		t.Run("it keeps counters with similar names separate", func(t *testing.T) {
			t.Parallel()

			name := xtesting.SequentialName("counter")

			a, err := store.Open(t.Context(), name)
			if err != nil {
				t.Fatal(err)
			}
			defer a.Close()

			b, err := store.Open(t.Context(), name+"_x")
			if err != nil {
				t.Fatal(err)
			}
			defer b.Close()

			increment(t, a, 1)
			increment(t, a, 2)
			increment(t, b, 1)

			expectValue(t, a, 2, true)
			expectValue(t, b, 1, true)
		})
	})

	t.Run("property-based", func(t *testing.T) {
		t.Parallel()

		rapid.Check(t, func(t *rapid.T) {
			c, err := store.Open(t.Context(), xtesting.SequentialName("counter"))
			if err != nil {
				t.Fatal(err)
			}
			defer c.Close()

			var (
				model  T
				exists bool
			)

			t.Repeat(
				map[string]func(*rapid.T){
					"Get": func(t *rapid.T) {
						v, ok, err := c.Get(t.Context())
						if err != nil {
							t.Fatal(err)
						}

						if ok != exists || v != model {
							t.Fatalf("unexpected result: got (%d, %t), want (%d, %t)", v, ok, model, exists)
						}
					},
					"Set": func(t *rapid.T) {
						v := T(rapid.Uint64().Draw(t, "value"))

						if err := c.Set(t.Context(), v); err != nil {
							t.Fatal(err)
						}

						model, exists = v, true
					},
					"Increment": func(t *rapid.T) {
						v, err := c.Increment(t.Context())
						if err != nil {
							t.Fatal(err)
						}

						model++
						exists = true

						if v != model {
							t.Fatalf("unexpected value after increment: got %d, want %d", v, model)
						}
					},
					"Delete": func(t *rapid.T) {
						if err := c.Delete(t.Context()); err != nil {
							t.Fatal(err)
						}

						model, exists = 0, false
					},
				},
			)
		})
	})
}
