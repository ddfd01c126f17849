package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

// RunTests runs tests that confirm a [Store] implementation behaves correctly.
//
// newStore must return a new, empty store each time it is called. It is
// responsible for closing the store when the test ends.
func RunTests(
	t *testing.T,
	newStore func(t *testing.T) Store,
) {
	put := func(t *testing.T, s Store, k, v string) {
		t.Helper()

		if err := s.Put(t.Context(), []byte(k), []byte(v)); err != nil {
			t.Fatal(err)
		}
	}

	expectValue := func(t *testing.T, s Store, k, expect string) {
		t.Helper()

		actual, ok, err := s.Get(t.Context(), []byte(k))
		if err != nil {
			t.Fatal(err)
		}

		if !ok {
			t.Fatalf("expected key %q to be present", k)
		}

		if string(actual) != expect {
			t.Fatalf(
				"unexpected value for key %q, want %q, got %q",
				k,
				expect,
				string(actual),
			)
		}
	}

	expectAbsent := func(t *testing.T, s Store, k string) {
		t.Helper()

		v, ok, err := s.Get(t.Context(), []byte(k))
		if err != nil {
			t.Fatal(err)
		}

		if ok {
			t.Fatalf("expected key %q to be absent, got value %q", k, string(v))
		}
	}

	scanAll := func(t *testing.T, s Store, start string) []string {
		t.Helper()

		var pairs []string
		if err := s.Scan(
			t.Context(),
			[]byte(start),
			func(_ context.Context, k, v []byte) (bool, error) {
				pairs = append(pairs, string(k)+"="+string(v))
				return true, nil
			},
		); err != nil {
			t.Fatal(err)
		}

		return pairs
	}

	t.Run("Get", func(t *testing.T) {
		t.Parallel()

		t.Run("it returns ok=false if the key doesn't exist", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)
			expectAbsent(t, s, "<key>")
		})

		t.Run("it returns ok=false if the key has been deleted", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)
			put(t, s, "<key>", "<value>")

			if err := s.Delete(t.Context(), []byte("<key>")); err != nil {
				t.Fatal(err)
			}

			expectAbsent(t, s, "<key>")
		})

		t.Run("it returns the value if the key exists", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)

			for i := range 5 {
				put(t, s, fmt.Sprintf("<key-%d>", i), fmt.Sprintf("<value-%d>", i))
			}

			for i := range 5 {
				expectValue(t, s, fmt.Sprintf("<key-%d>", i), fmt.Sprintf("<value-%d>", i))
			}
		})

		t.Run("it distinguishes an empty value from an absent key", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)
			put(t, s, "<key>", "")
			expectValue(t, s, "<key>", "")
		})

		t.Run("it does not return its internal byte slice", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)
			put(t, s, "<key>", "<value>")

			v, _, err := s.Get(t.Context(), []byte("<key>"))
			if err != nil {
				t.Fatal(err)
			}

			v[0] = 'X'

			expectValue(t, s, "<key>", "<value>")
		})
	})

	t.Run("Put", func(t *testing.T) {
		t.Parallel()

		t.Run("it replaces an existing value", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)
			put(t, s, "<key>", "<value>")
			put(t, s, "<key>", "<updated>")
			expectValue(t, s, "<key>", "<updated>")
		})

		t.Run("it does not keep a reference to the key slice", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)

			k := []byte("<key>")
			if err := s.Put(t.Context(), k, []byte("<value>")); err != nil {
				t.Fatal(err)
			}

			k[0] = 'X'

			expectAbsent(t, s, "Xkey>")
			expectValue(t, s, "<key>", "<value>")
		})

		t.Run("it does not keep a reference to the value slice", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)

			v := []byte("<value>")
			if err := s.Put(t.Context(), []byte("<key>"), v); err != nil {
				t.Fatal(err)
			}

			v[0] = 'X'

			expectValue(t, s, "<key>", "<value>")
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Parallel()

		t.Run("it does not return an error if the key doesn't exist", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)

			if err := s.Delete(t.Context(), []byte("<key>")); err != nil {
				t.Fatal(err)
			}
		})

		t.Run("it does not affect other keys", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)
			put(t, s, "<key-1>", "<value-1>")
			put(t, s, "<key-2>", "<value-2>")

			if err := s.Delete(t.Context(), []byte("<key-1>")); err != nil {
				t.Fatal(err)
			}

			expectAbsent(t, s, "<key-1>")
			expectValue(t, s, "<key-2>", "<value-2>")
		})
	})

	t.Run("Write", func(t *testing.T) {
		t.Parallel()

		t.Run("it applies every operation in the batch", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)
			put(t, s, "<existing>", "<value>")

			if err := s.Write(
				t.Context(),
				PutOp([]byte("<key-1>"), []byte("<value-1>")),
				PutOp([]byte("<key-2>"), []byte("<value-2>")),
				DeleteOp([]byte("<existing>")),
			); err != nil {
				t.Fatal(err)
			}

			expectValue(t, s, "<key-1>", "<value-1>")
			expectValue(t, s, "<key-2>", "<value-2>")
			expectAbsent(t, s, "<existing>")
		})

		t.Run("it applies the last operation on each key", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)

			if err := s.Write(
				t.Context(),
				PutOp([]byte("<key-1>"), []byte("<first>")),
				PutOp([]byte("<key-1>"), []byte("<second>")),
				PutOp([]byte("<key-2>"), []byte("<value>")),
				DeleteOp([]byte("<key-2>")),
			); err != nil {
				t.Fatal(err)
			}

			expectValue(t, s, "<key-1>", "<second>")
			expectAbsent(t, s, "<key-2>")
		})

		t.Run("it accepts an empty batch", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)

			if err := s.Write(t.Context()); err != nil {
				t.Fatal(err)
			}
		})

		t.Run("it does not keep a reference to the operation slices", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)

			k := []byte("<key>")
			v := []byte("<value>")

			if err := s.Write(t.Context(), PutOp(k, v)); err != nil {
				t.Fatal(err)
			}

			k[0] = 'X'
			v[0] = 'Y'

			expectValue(t, s, "<key>", "<value>")
		})
	})

	t.Run("Scan", func(t *testing.T) {
		t.Parallel()

		t.Run("it visits keys in ascending bytewise order", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)

			keys := []string{"b", "a", "ab", "b\x00", "\x7f", "aa", "A", "c_1", "c_10", "c_2"}
			for _, k := range keys {
				put(t, s, k, "v")
			}

			// Go compares strings bytewise.
			slices.Sort(keys)

			var expect []string
			for _, k := range keys {
				expect = append(expect, k+"=v")
			}

			if diff := cmp.Diff(expect, scanAll(t, s, "")); diff != "" {
				t.Fatal(diff)
			}
		})

		t.Run("it starts at the first key greater than or equal to start", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)
			put(t, s, "a", "1")
			put(t, s, "b", "2")
			put(t, s, "bb", "3")
			put(t, s, "c", "4")

			if diff := cmp.Diff(
				[]string{"b=2", "bb=3", "c=4"},
				scanAll(t, s, "b"),
			); diff != "" {
				t.Fatal(diff)
			}

			if diff := cmp.Diff(
				[]string{"bb=3", "c=4"},
				scanAll(t, s, "ba"),
			); diff != "" {
				t.Fatal(diff)
			}
		})

		t.Run("it does not visit anything when the store is empty", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)

			if pairs := scanAll(t, s, ""); len(pairs) != 0 {
				t.Fatalf("unexpected pairs: %q", pairs)
			}
		})

		t.Run("it stops iterating if the function returns false", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)
			put(t, s, "a", "1")
			put(t, s, "b", "2")

			called := false
			if err := s.Scan(
				t.Context(),
				nil,
				func(context.Context, []byte, []byte) (bool, error) {
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

		t.Run("it propagates errors returned by the function", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)
			put(t, s, "a", "1")

			want := errors.New("<error>")
			err := s.Scan(
				t.Context(),
				nil,
				func(context.Context, []byte, []byte) (bool, error) {
					return true, want
				},
			)

			if !errors.Is(err, want) {
				t.Fatalf("unexpected error: got %v, want %v", err, want)
			}
		})

		t.Run("it restarts iteration on each call", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)
			put(t, s, "a", "1")
			put(t, s, "b", "2")

			first := scanAll(t, s, "")
			second := scanAll(t, s, "")

			if diff := cmp.Diff(first, second); diff != "" {
				t.Fatal(diff)
			}
		})

		t.Run("it does not invoke the function with its internal byte slices", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)
			put(t, s, "<key>", "<value>")

			if err := s.Scan(
				t.Context(),
				nil,
				func(_ context.Context, k, v []byte) (bool, error) {
					k[0] = 'X'
					v[0] = 'Y'
					return true, nil
				},
			); err != nil {
				t.Fatal(err)
			}

			expectAbsent(t, s, "Xkey>")
			expectValue(t, s, "<key>", "<value>")
		})

		t.Run("it allows calls to Get() during iteration", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)
			put(t, s, "<key>", "<value>")

			if err := s.Scan(
				t.Context(),
				nil,
				func(ctx context.Context, k, expect []byte) (bool, error) {
					actual, ok, err := s.Get(ctx, k)
					if err != nil {
						return false, err
					}

					if !ok || !bytes.Equal(expect, actual) {
						return false, fmt.Errorf(
							"unexpected value, want %q, got %q",
							string(expect),
							string(actual),
						)
					}

					return false, nil
				},
			); err != nil {
				t.Fatal(err)
			}
		})

		t.Run("it allows calls to Put() during iteration", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)
			put(t, s, "<key>", "<value>")

			if err := s.Scan(
				t.Context(),
				nil,
				func(ctx context.Context, k, _ []byte) (bool, error) {
					return false, s.Put(ctx, k, []byte("<updated>"))
				},
			); err != nil {
				t.Fatal(err)
			}

			expectValue(t, s, "<key>", "<updated>")
		})

		t.Run("it allows calls to Delete() during iteration", func(t *testing.T) {
			t.Parallel()

			s := newStore(t)
			put(t, s, "a", "1")
			put(t, s, "b", "2")

			if err := s.Scan(
				t.Context(),
				nil,
				func(ctx context.Context, k, _ []byte) (bool, error) {
					return true, s.Delete(ctx, k)
				},
			); err != nil {
				t.Fatal(err)
			}

			if pairs := scanAll(t, s, ""); len(pairs) != 0 {
				t.Fatalf("unexpected pairs: %q", pairs)
			}
		})
	})

	t.Run("property-based", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)
		run := 0

		rapid.Check(t, func(t *rapid.T) {
			// Each check uses its own portion of the key space so that the
			// model can be compared against full scans of that portion.
			run++
			ns := fmt.Sprintf("run-%06d/", run)

			keyGen := rapid.StringN(1, 8, -1)
			valueGen := rapid.StringN(0, 16, -1)

			pairs := map[string]string{}
			var keys []string

			del := func(k string) {
				delete(pairs, k)
				keys = slices.DeleteFunc(keys, func(x string) bool { return x == k })
			}

			set := func(k, v string) {
				if _, ok := pairs[k]; !ok {
					keys = append(keys, k)
				}
				pairs[k] = v
			}

			t.Repeat(
				map[string]func(*rapid.T){
					"Get": func(t *rapid.T) {
						k := keyGen.Draw(t, "key")

						v, ok, err := s.Get(t.Context(), []byte(ns+k))
						if err != nil {
							t.Fatal(err)
						}

						expect, expectOK := pairs[k]
						if ok != expectOK || string(v) != expect {
							t.Fatalf(
								"unexpected result for key %q: got (%q, %t), want (%q, %t)",
								k, string(v), ok, expect, expectOK,
							)
						}
					},
					"Get (key exists)": func(t *rapid.T) {
						if len(keys) == 0 {
							t.Skip("skip: store is empty")
						}

						k := rapid.SampledFrom(keys).Draw(t, "key")

						v, ok, err := s.Get(t.Context(), []byte(ns+k))
						if err != nil {
							t.Fatal(err)
						}

						if !ok || string(v) != pairs[k] {
							t.Fatalf(
								"unexpected result for key %q: got (%q, %t), want (%q, true)",
								k, string(v), ok, pairs[k],
							)
						}
					},
					"Put": func(t *rapid.T) {
						k := keyGen.Draw(t, "key")
						v := valueGen.Draw(t, "value")

						if err := s.Put(t.Context(), []byte(ns+k), []byte(v)); err != nil {
							t.Fatal(err)
						}

						set(k, v)
					},
					"Delete": func(t *rapid.T) {
						if len(keys) == 0 {
							t.Skip("skip: store is empty")
						}

						k := rapid.SampledFrom(keys).Draw(t, "key")

						if err := s.Delete(t.Context(), []byte(ns+k)); err != nil {
							t.Fatal(err)
						}

						del(k)
					},
					"Write": func(t *rapid.T) {
						n := rapid.IntRange(1, 5).Draw(t, "batch size")
						var ops []Op

						for range n {
							k := keyGen.Draw(t, "key")

							if rapid.Bool().Draw(t, "delete") {
								ops = append(ops, DeleteOp([]byte(ns+k)))
								del(k)
							} else {
								v := valueGen.Draw(t, "value")
								ops = append(ops, PutOp([]byte(ns+k), []byte(v)))
								set(k, v)
							}
						}

						if err := s.Write(t.Context(), ops...); err != nil {
							t.Fatal(err)
						}
					},
					"Scan": func(t *rapid.T) {
						var expect []pair
						for k, v := range pairs {
							expect = append(expect, pair{k, v})
						}
						slices.SortFunc(expect, func(a, b pair) int {
							return strings.Compare(a.K, b.K)
						})

						var actual []pair
						if err := ScanPrefix(
							t.Context(),
							s,
							[]byte(ns),
							func(_ context.Context, k, v []byte) (bool, error) {
								actual = append(actual, pair{string(k[len(ns):]), string(v)})
								return true, nil
							},
						); err != nil {
							t.Fatal(err)
						}

						if diff := cmp.Diff(expect, actual); diff != "" {
							t.Fatal(diff)
						}
					},
				},
			)
		})
	})
}

type pair struct {
	K, V string
}
