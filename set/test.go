package set

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dogmatiq/structkit/internal/x/xtesting"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"pgregory.net/rapid"
)

// RunTests runs tests that confirm a [Store] implementation behaves correctly.
func RunTests(
	t *testing.T,
	store Store,
) {
	setup := func(t *testing.T) Set {
		name := xtesting.SequentialName("set")

		set, err := store.Open(t.Context(), name)
		if err != nil {
			t.Fatal(err)
		}

		t.Cleanup(func() {
			if err := set.Close(); err != nil {
				t.Error(err)
			}
		})

		if set.Name() != name {
			t.Fatalf("unexpected set name: got %q, want %q", set.Name(), name)
		}

		return set
	}

	add := func(t *testing.T, set Set, members ...string) {
		t.Helper()

		for _, m := range members {
			if err := set.Add(t.Context(), m); err != nil {
				t.Fatal(err)
			}
		}
	}

	expectHas := func(t *testing.T, set Set, m string, expect bool) {
		t.Helper()

		ok, err := set.Has(t.Context(), m)
		if err != nil {
			t.Fatal(err)
		}

		if ok != expect {
			t.Fatalf("unexpected membership of %q: got %t, want %t", m, ok, expect)
		}
	}

	expectMembers := func(t *testing.T, set Set, expect ...string) {
		t.Helper()

		actual, err := set.Members(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(expect, actual, cmpopts.EquateEmpty()); diff != "" {
			t.Fatal(diff)
		}
	}

	t.Run("Store", func(t *testing.T) {
		t.Parallel()

		t.Run("Open", func(t *testing.T) {
			t.Parallel()

			t.Run("allows sets to be opened multiple times", func(t *testing.T) {
				t.Parallel()

				name := xtesting.SequentialName("set")

				s1, err := store.Open(t.Context(), name)
				if err != nil {
					t.Fatal(err)
				}
				defer s1.Close()

				s2, err := store.Open(t.Context(), name)
				if err != nil {
					t.Fatal(err)
				}
				defer s2.Close()

				add(t, s1, "<member>")
				expectHas(t, s2, "<member>", true)
			})

			t.Run("it keeps sets with similar names separate", func(t *testing.T) {
				t.Parallel()

				name := xtesting.SequentialName("set")

				a, err := store.Open(t.Context(), name)
				if err != nil {
					t.Fatal(err)
				}
				defer a.Close()

				b, err := store.Open(t.Context(), name+"x")
				if err != nil {
					t.Fatal(err)
				}
				defer b.Close()

				add(t, a, "a1", "a2")
				add(t, b, "b1")

				expectMembers(t, a, "a1", "a2")
				expectMembers(t, b, "b1")
			})
		})
	})

	t.Run("Set", func(t *testing.T) {
		t.Parallel()

		t.Run("Has", func(t *testing.T) {
			t.Parallel()

			t.Run("it returns false if the member is not present", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				expectHas(t, set, "<member>", false)
			})

			t.Run("it returns true if the member is present", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, "<member>")
				expectHas(t, set, "<member>", true)
			})

			t.Run("it returns false if the member has been removed", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, "<member>")

				if err := set.Remove(t.Context(), "<member>"); err != nil {
					t.Fatal(err)
				}

				expectHas(t, set, "<member>", false)
			})

			t.Run("it returns false if the member is not present, but others are", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, "<member-1>")
				expectHas(t, set, "<member-2>", false)
			})
		})

		t.Run("Add", func(t *testing.T) {
			t.Parallel()

			t.Run("it is idempotent", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, "<member>", "<member>")
				expectMembers(t, set, "<member>")
			})

			t.Run("it accepts members containing separator characters", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, "a:b", "a_b", "")
				expectMembers(t, set, "", "a:b", "a_b")
			})
		})

		t.Run("TryAdd", func(t *testing.T) {
			t.Parallel()

			t.Run("it returns true if the member was added", func(t *testing.T) {
				t.Parallel()

				set := setup(t)

				ok, err := set.TryAdd(t.Context(), "<member>")
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					t.Fatal("expected ok to be true")
				}

				expectHas(t, set, "<member>", true)
			})

			t.Run("it returns false if the member was already present", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, "<member>")

				ok, err := set.TryAdd(t.Context(), "<member>")
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					t.Fatal("expected ok to be false")
				}
			})

			t.Run("it reports success to exactly one concurrent caller", func(t *testing.T) {
				t.Parallel()

				set := setup(t)

				var (
					g     sync.WaitGroup
					added atomic.Int64
				)

				for range 10 {
					g.Add(1)
					go func() {
						defer g.Done()

						ok, err := set.TryAdd(t.Context(), "<member>")
						if err != nil {
							t.Error(err)
						}
						if ok {
							added.Add(1)
						}
					}()
				}

				g.Wait()

				if n := added.Load(); n != 1 {
					t.Fatalf("unexpected number of successful calls: got %d, want 1", n)
				}
			})
		})

		t.Run("Remove", func(t *testing.T) {
			t.Parallel()

			t.Run("it does not return an error if the member is not present", func(t *testing.T) {
				t.Parallel()

				set := setup(t)

				if err := set.Remove(t.Context(), "<member>"); err != nil {
					t.Fatal(err)
				}
			})

			t.Run("it does not affect other members", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, "<member-1>", "<member-2>")

				if err := set.Remove(t.Context(), "<member-1>"); err != nil {
					t.Fatal(err)
				}

				expectMembers(t, set, "<member-2>")
			})
		})

		t.Run("TryRemove", func(t *testing.T) {
			t.Parallel()

			t.Run("it returns true if the member was removed", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, "<member>")

				ok, err := set.TryRemove(t.Context(), "<member>")
				if err != nil {
					t.Fatal(err)
				}
				if !ok {
					t.Fatal("expected ok to be true")
				}

				expectHas(t, set, "<member>", false)
			})

			t.Run("it returns false if the member was not present", func(t *testing.T) {
				t.Parallel()

				set := setup(t)

				ok, err := set.TryRemove(t.Context(), "<member>")
				if err != nil {
					t.Fatal(err)
				}
				if ok {
					t.Fatal("expected ok to be false")
				}
			})
		})

		t.Run("Members", func(t *testing.T) {
			t.Parallel()

			t.Run("it returns an empty result if the set is empty", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				expectMembers(t, set)
			})

			t.Run("it returns members in ascending order", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, "c", "a", "b")
				expectMembers(t, set, "a", "b", "c")
			})
		})

		t.Run("Range", func(t *testing.T) {
			t.Parallel()

			t.Run("it stops iterating if the function returns false", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, "a", "b")

				called := false
				if err := set.Range(
					t.Context(),
					func(context.Context, string) (bool, error) {
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

			t.Run("it returns the error produced by the function", func(t *testing.T) {
				t.Parallel()

				set := setup(t)
				add(t, set, "a")

				want := errors.New("<error>")
				got := set.Range(
					t.Context(),
					func(context.Context, string) (bool, error) {
						return false, want
					},
				)

				if !errors.Is(got, want) {
					t.Fatalf("unexpected error: got %v, want %v", got, want)
				}
			})
		})

		t.Run("it supports the add, add, members, remove scenario", func(t *testing.T) {
			t.Parallel()

			set := setup(t)

			for i := range 3 {
				add(t, set, fmt.Sprintf("<member-%d>", i%2))
			}

			expectMembers(t, set, "<member-0>", "<member-1>")

			if err := set.Remove(t.Context(), "<member-0>"); err != nil {
				t.Fatal(err)
			}

			expectMembers(t, set, "<member-1>")
		})
	})

	t.Run("property-based", func(t *testing.T) {
		t.Parallel()

		rapid.Check(t, func(t *rapid.T) {
			set, err := store.Open(t.Context(), xtesting.SequentialName("set"))
			if err != nil {
				t.Fatal(err)
			}
			defer set.Close()

			model := map[string]struct{}{}

			member := func(t *rapid.T) string {
				if len(model) != 0 && rapid.Bool().Draw(t, "existing") {
					existing := make([]string, 0, len(model))
					for m := range model {
						existing = append(existing, m)
					}
					slices.Sort(existing)
					return rapid.SampledFrom(existing).Draw(t, "member")
				}
				return rapid.String().Draw(t, "member")
			}

			t.Repeat(
				map[string]func(*rapid.T){
					"Has": func(t *rapid.T) {
						m := member(t)

						ok, err := set.Has(t.Context(), m)
						if err != nil {
							t.Fatal(err)
						}

						_, expect := model[m]
						if ok != expect {
							t.Fatalf("unexpected membership of %q: got %t, want %t", m, ok, expect)
						}
					},
					"Add": func(t *rapid.T) {
						m := member(t)

						if err := set.Add(t.Context(), m); err != nil {
							t.Fatal(err)
						}

						model[m] = struct{}{}
					},
					"TryAdd": func(t *rapid.T) {
						m := member(t)

						ok, err := set.TryAdd(t.Context(), m)
						if err != nil {
							t.Fatal(err)
						}

						_, present := model[m]
						if ok == present {
							t.Fatalf("unexpected TryAdd result for %q: got %t, want %t", m, ok, !present)
						}

						model[m] = struct{}{}
					},
					"Remove": func(t *rapid.T) {
						m := member(t)

						if err := set.Remove(t.Context(), m); err != nil {
							t.Fatal(err)
						}

						delete(model, m)
					},
					"TryRemove": func(t *rapid.T) {
						m := member(t)

						ok, err := set.TryRemove(t.Context(), m)
						if err != nil {
							t.Fatal(err)
						}

						_, present := model[m]
						if ok != present {
							t.Fatalf("unexpected TryRemove result for %q: got %t, want %t", m, ok, present)
						}

						delete(model, m)
					},
					"Members": func(t *rapid.T) {
						actual, err := set.Members(t.Context())
						if err != nil {
							t.Fatal(err)
						}

						expect := make([]string, 0, len(model))
						for m := range model {
							expect = append(expect, m)
						}
						slices.Sort(expect)

						if diff := cmp.Diff(expect, actual, cmpopts.EquateEmpty()); diff != "" {
							t.Fatal(diff)
						}
					},
				},
			)
		})
	})
}
