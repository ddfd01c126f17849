package list

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dogmatiq/structkit/internal/x/xtesting"
	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

// RunTests runs tests that confirm a [Store] implementation behaves correctly.
func RunTests(
	t *testing.T,
	store Store,
) {
	setup := func(t *testing.T) List {
		name := xtesting.SequentialName("list")

		l, err := store.Open(t.Context(), name)
		if err != nil {
			t.Fatal(err)
		}

		t.Cleanup(func() {
			if err := l.Close(); err != nil {
				t.Error(err)
			}
		})

		if l.Name() != name {
			t.Fatalf("unexpected list name: got %q, want %q", l.Name(), name)
		}

		return l
	}

	push := func(t *testing.T, l List, values ...string) {
		t.Helper()

		for _, v := range values {
			if _, err := l.Push(t.Context(), v); err != nil {
				t.Fatal(err)
			}
		}
	}

	expectAll := func(t *testing.T, l List, expect ...string) {
		t.Helper()

		actual, err := l.All(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(expect, actual); diff != "" {
			t.Fatal(diff)
		}
	}

	expectLen := func(t *testing.T, l List, expect uint64) {
		t.Helper()

		actual, err := l.Len(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if actual != expect {
			t.Fatalf("unexpected length: got %d, want %d", actual, expect)
		}
	}

	expectExists := func(t *testing.T, l List, expect bool) {
		t.Helper()

		actual, err := l.Exists(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if actual != expect {
			t.Fatalf("unexpected existence: got %t, want %t", actual, expect)
		}
	}

	t.Run("Store", func(t *testing.T) {
		t.Parallel()

		t.Run("Open", func(t *testing.T) {
			t.Parallel()

			t.Run("allows lists to be opened multiple times", func(t *testing.T) {
				t.Parallel()

				name := xtesting.SequentialName("list")

				l1, err := store.Open(t.Context(), name)
				if err != nil {
					t.Fatal(err)
				}
				defer l1.Close()

				l2, err := store.Open(t.Context(), name)
				if err != nil {
					t.Fatal(err)
				}
				defer l2.Close()

				push(t, l1, "<value>")
				expectAll(t, l2, "<value>")
			})

			t.Run("it keeps lists with similar names separate", func(t *testing.T) {
				t.Parallel()

				name := xtesting.SequentialName("list")

				a, err := store.Open(t.Context(), name)
				if err != nil {
					t.Fatal(err)
				}
				defer a.Close()

				b, err := store.Open(t.Context(), name+"_1")
				if err != nil {
					t.Fatal(err)
				}
				defer b.Close()

				push(t, a, "a0", "a1", "a2")
				push(t, b, "b0")

				expectAll(t, a, "a0", "a1", "a2")
				expectAll(t, b, "b0")
			})
		})
	})

	t.Run("List", func(t *testing.T) {
		t.Parallel()

		t.Run("Push", func(t *testing.T) {
			t.Parallel()

			t.Run("it returns the index of the new element", func(t *testing.T) {
				t.Parallel()

				l := setup(t)

				for want := range Index(5) {
					got, err := l.Push(t.Context(), fmt.Sprintf("<value-%d>", want))
					if err != nil {
						t.Fatal(err)
					}

					if got != want {
						t.Fatalf("unexpected index: got %d, want %d", got, want)
					}
				}
			})

			t.Run("it creates the list", func(t *testing.T) {
				t.Parallel()

				l := setup(t)
				expectExists(t, l, false)

				push(t, l, "<value>")
				expectExists(t, l, true)
			})

			t.Run("it accepts empty strings", func(t *testing.T) {
				t.Parallel()

				l := setup(t)
				push(t, l, "", "x", "")
				expectAll(t, l, "", "x", "")
			})

			t.Run("it does not lose concurrent pushes", func(t *testing.T) {
				t.Parallel()

				l := setup(t)

				const n = 20
				var g sync.WaitGroup

				for i := range n {
					g.Add(1)
					go func() {
						defer g.Done()

						if _, err := l.Push(t.Context(), fmt.Sprintf("<value-%d>", i)); err != nil {
							t.Error(err)
						}
					}()
				}

				g.Wait()

				expectLen(t, l, n)

				all, err := l.All(t.Context())
				if err != nil {
					t.Fatal(err)
				}

				if len(all) != n {
					t.Fatalf("unexpected number of elements: got %d, want %d", len(all), n)
				}
			})
		})

		t.Run("Get", func(t *testing.T) {
			t.Parallel()

			t.Run("it returns the element at the given index", func(t *testing.T) {
				t.Parallel()

				l := setup(t)
				push(t, l, "a", "b", "c")

				for i, want := range []string{"a", "b", "c"} {
					got, err := l.Get(t.Context(), Index(i))
					if err != nil {
						t.Fatal(err)
					}

					if got != want {
						t.Fatalf("unexpected element at index %d: got %q, want %q", i, got, want)
					}
				}
			})

			t.Run("it returns an ElementNotFoundError if the index is out of range", func(t *testing.T) {
				t.Parallel()

				l := setup(t)

				if _, err := l.Get(t.Context(), 0); !IsNotFound(err) {
					t.Fatalf("expected ElementNotFoundError, got %v", err)
				}

				push(t, l, "a")

				if _, err := l.Get(t.Context(), 1); !IsNotFound(err) {
					t.Fatalf("expected ElementNotFoundError, got %v", err)
				}
			})
		})

		t.Run("All", func(t *testing.T) {
			t.Parallel()

			t.Run("it returns elements in push order", func(t *testing.T) {
				t.Parallel()

				l := setup(t)

				var expect []string
				for i := range 12 {
					v := fmt.Sprintf("<value-%d>", i)
					push(t, l, v)
					expect = append(expect, v)
				}

				expectAll(t, l, expect...)
			})

			t.Run("it returns an empty result if the list does not exist", func(t *testing.T) {
				t.Parallel()

				l := setup(t)
				expectAll(t, l)
			})
		})

		t.Run("Range", func(t *testing.T) {
			t.Parallel()

			t.Run("it passes the index of each element", func(t *testing.T) {
				t.Parallel()

				l := setup(t)
				push(t, l, "a", "b")

				var expect Index
				if err := l.Range(
					t.Context(),
					func(_ context.Context, i Index, _ string) (bool, error) {
						if i != expect {
							return false, fmt.Errorf("unexpected index: got %d, want %d", i, expect)
						}
						expect++
						return true, nil
					},
				); err != nil {
					t.Fatal(err)
				}

				if expect != 2 {
					t.Fatalf("unexpected number of elements visited: got %d, want 2", expect)
				}
			})

			t.Run("it stops iterating if the function returns false", func(t *testing.T) {
				t.Parallel()

				l := setup(t)
				push(t, l, "a", "b")

				called := false
				if err := l.Range(
					t.Context(),
					func(context.Context, Index, string) (bool, error) {
						if called {
							return false, errors.New("unexpected call")
						}

						called = true
						return false, nil
					},
				); err != nil {
					t.Fatal(err)
				}
			})
		})

		t.Run("Len", func(t *testing.T) {
			t.Parallel()

			t.Run("it returns zero if the list does not exist", func(t *testing.T) {
				t.Parallel()

				l := setup(t)
				expectLen(t, l, 0)
			})

			t.Run("it returns the number of pushed elements", func(t *testing.T) {
				t.Parallel()

				l := setup(t)
				push(t, l, "a", "b", "c")
				expectLen(t, l, 3)
			})
		})

		t.Run("DeleteAll", func(t *testing.T) {
			t.Parallel()

			t.Run("it removes the list and its elements", func(t *testing.T) {
				t.Parallel()

				l := setup(t)
				push(t, l, "a", "b", "c")

				if err := l.DeleteAll(t.Context()); err != nil {
					t.Fatal(err)
				}

				expectExists(t, l, false)
				expectLen(t, l, 0)
				expectAll(t, l)

				if _, err := l.Get(t.Context(), 0); !IsNotFound(err) {
					t.Fatalf("expected ElementNotFoundError, got %v", err)
				}
			})

			t.Run("it does not return an error if the list does not exist", func(t *testing.T) {
				t.Parallel()

				l := setup(t)

				if err := l.DeleteAll(t.Context()); err != nil {
					t.Fatal(err)
				}
			})

			t.Run("it allows the list to be recreated", func(t *testing.T) {
				t.Parallel()

				l := setup(t)
				push(t, l, "a", "b")

				if err := l.DeleteAll(t.Context()); err != nil {
					t.Fatal(err)
				}

				i, err := l.Push(t.Context(), "c")
				if err != nil {
					t.Fatal(err)
				}

				if i != 0 {
					t.Fatalf("unexpected index: got %d, want 0", i)
				}

				expectAll(t, l, "c")
			})
		})

		t.Run("it supports the push, len, get, delete scenario", func(t *testing.T) {
			t.Parallel()

			l := setup(t)
			push(t, l, "x", "y")
			expectLen(t, l, 2)
			expectAll(t, l, "x", "y")

			if err := l.DeleteAll(t.Context()); err != nil {
				t.Fatal(err)
			}

			expectLen(t, l, 0)
			expectExists(t, l, false)
		})
	})

	t.Run("property-based", func(t *testing.T) {
		t.Parallel()

		rapid.Check(t, func(t *rapid.T) {
			l, err := store.Open(t.Context(), xtesting.SequentialName("list"))
			if err != nil {
				t.Fatal(err)
			}
			defer l.Close()

			var model []string

			t.Repeat(
				map[string]func(*rapid.T){
					"Push": func(t *rapid.T) {
						v := rapid.String().Draw(t, "value")

						i, err := l.Push(t.Context(), v)
						if err != nil {
							t.Fatal(err)
						}

						if i != Index(len(model)) {
							t.Fatalf("unexpected index: got %d, want %d", i, len(model))
						}

						model = append(model, v)
					},
					"Get": func(t *rapid.T) {
						i := Index(rapid.IntRange(0, len(model)+1).Draw(t, "index"))

						v, err := l.Get(t.Context(), i)

						if int(i) >= len(model) {
							if !IsNotFound(err) {
								t.Fatalf("expected ElementNotFoundError, got (%q, %v)", v, err)
							}
							return
						}

						if err != nil {
							t.Fatal(err)
						}

						if v != model[i] {
							t.Fatalf("unexpected element at index %d: got %q, want %q", i, v, model[i])
						}
					},
					"Len": func(t *rapid.T) {
						n, err := l.Len(t.Context())
						if err != nil {
							t.Fatal(err)
						}

						if n != uint64(len(model)) {
							t.Fatalf("unexpected length: got %d, want %d", n, len(model))
						}
					},
					"All": func(t *rapid.T) {
						actual, err := l.All(t.Context())
						if err != nil {
							t.Fatal(err)
						}

						if diff := cmp.Diff(model, actual); diff != "" {
							t.Fatal(diff)
						}
					},
					"DeleteAll": func(t *rapid.T) {
						if err := l.DeleteAll(t.Context()); err != nil {
							t.Fatal(err)
						}

						model = nil
					},
				},
			)
		})
	})
}
