package key_test

import (
	"bytes"
	"fmt"
	"testing"

	. "github.com/dogmatiq/structkit/key"
	"pgregory.net/rapid"
)

func TestBuilders(t *testing.T) {
	cases := []struct {
		Desc string
		Got  []byte
		Want string
	}{
		{"list metadata", Meta(List, "mylist"), "meta_l_mylist"},
		{"list element", ListIndex("mylist", 0), "data_l_mylist_0"},
		{"list element with multi-digit index", ListIndex("mylist", 1234), "data_l_mylist_1234"},
		{"list element with underscore key", ListIndex("my_list", 7), "data_l_my_list_7"},
		{"set member", SetMember("myset", "alice"), "data_z_myset:alice"},
		{"set member with empty member", SetMember("myset", ""), "data_z_myset:"},
		{"set scan prefix", SetScanPrefix("myset"), "data_z_myset:"},
		{"scalar", ScalarValue("greeting"), "data_s_greeting"},
		{"counter", CounterValue("hits"), "data_c_hits"},
		{"data with empty key", Data(List, ""), "data_l_"},
	}

	for _, c := range cases {
		t.Run(c.Desc, func(t *testing.T) {
			if got := string(c.Got); got != c.Want {
				t.Fatalf("unexpected key: got %q, want %q", got, c.Want)
			}
		})
	}
}

func TestBuilders_deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := rapid.String().Draw(t, "key")
		m := rapid.String().Draw(t, "member")
		i := rapid.Uint64().Draw(t, "index")

		if !bytes.Equal(ListIndex(k, i), ListIndex(k, i)) {
			t.Fatal("list index key is not deterministic")
		}

		if !bytes.Equal(SetMember(k, m), SetMember(k, m)) {
			t.Fatal("set member key is not deterministic")
		}
	})
}

func TestSetMember_hasScanPrefix(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := rapid.StringMatching(`[^:]*`).Draw(t, "key")
		m := rapid.String().Draw(t, "member")

		if !bytes.HasPrefix(SetMember(k, m), SetScanPrefix(k)) {
			t.Fatal("member key does not start with the set's scan prefix")
		}
	})
}

func TestSetMember_noAliasingBetweenValidKeys(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k1 := rapid.StringMatching(`[^:]*`).Draw(t, "k1")
		k2 := rapid.StringMatching(`[^:]*`).Draw(t, "k2")
		m := rapid.String().Draw(t, "member")

		if k1 == k2 {
			t.Skip("keys are equal")
		}

		if bytes.HasPrefix(SetMember(k1, m), SetScanPrefix(k2)) {
			t.Fatalf("member of %q falls within the scan range of %q", k1, k2)
		}
	})
}

func TestListIndex_noAliasing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k1 := rapid.String().Draw(t, "k1")
		k2 := rapid.String().Draw(t, "k2")
		i1 := rapid.Uint64().Draw(t, "i1")
		i2 := rapid.Uint64().Draw(t, "i2")

		if k1 == k2 && i1 == i2 {
			t.Skip("triples are equal")
		}

		if bytes.Equal(ListIndex(k1, i1), ListIndex(k2, i2)) {
			t.Fatalf("(%q, %d) and (%q, %d) share a physical key", k1, i1, k2, i2)
		}
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		Type  Type
		Key   string
		Valid bool
	}{
		{List, "orders", true},
		{List, "with_underscore", true},
		{List, "with:colon", true},
		{Set, "with_underscore", true},
		{Set, "with:colon", false},
		{Counter, string([]byte{0xff, 0xfe}), false},
		{Scalar, "", true},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("%s %q", c.Type, c.Key), func(t *testing.T) {
			err := Validate(c.Type, c.Key)

			if c.Valid {
				if err != nil {
					t.Fatalf("unexpected error: %s", err)
				}
				return
			}

			if !IsInvalidKey(err) {
				t.Fatalf("expected InvalidKeyError, got %v", err)
			}
		})
	}
}
