package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dogmatiq/structkit/counter"
	"github.com/dogmatiq/structkit/driver/badger/badgerstore"
	"github.com/dogmatiq/structkit/driver/pebble/pebblestore"
	"github.com/dogmatiq/structkit/set"
	"github.com/dogmatiq/structkit/store"
	"github.com/google/go-cmp/cmp"
)

func TestInspect(t *testing.T) {
	t.Parallel()

	populate := func(t *testing.T, s store.Store) {
		t.Helper()
		defer s.Close()

		tags, err := set.NewStore(s).Open(t.Context(), "tags")
		if err != nil {
			t.Fatal(err)
		}
		defer tags.Close()

		for _, m := range []string{"red", "blue"} {
			if err := tags.Add(t.Context(), m); err != nil {
				t.Fatal(err)
			}
		}

		hits, err := counter.NewStore[int64](s).Open(t.Context(), "hits")
		if err != nil {
			t.Fatal(err)
		}
		defer hits.Close()

		if err := hits.Set(t.Context(), -3); err != nil {
			t.Fatal(err)
		}
	}

	pebbleDir := func(t *testing.T) string {
		dir := t.TempDir()

		s, err := pebblestore.Open(dir)
		if err != nil {
			t.Fatal(err)
		}
		populate(t, s)

		return dir
	}

	run := func(t *testing.T, args ...string) (string, error) {
		var out bytes.Buffer

		cmd := newRootCommand()
		cmd.SetArgs(args)
		cmd.SetOut(&out)

		err := cmd.ExecuteContext(t.Context())
		return out.String(), err
	}

	expectOutput := func(t *testing.T, want string, args ...string) {
		t.Helper()

		got, err := run(t, args...)
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatal(diff)
		}
	}

	t.Run("it prints set members in key order", func(t *testing.T) {
		t.Parallel()

		expectOutput(
			t,
			"data_z_tags:blue\t\"blue\"\ndata_z_tags:red\t\"red\"\n",
			pebbleDir(t), "--prefix", "data_z_tags:",
		)
	})

	t.Run("it prints signed integers", func(t *testing.T) {
		t.Parallel()

		expectOutput(
			t,
			"data_c_hits\t-3\n",
			pebbleDir(t), "--prefix", "data_c_", "--type", "int",
		)
	})

	t.Run("it prints unsigned integers", func(t *testing.T) {
		t.Parallel()

		expectOutput(
			t,
			"data_c_hits\t18446744073709551613\n",
			pebbleDir(t), "-p", "data_c_", "-t", "uint",
		)
	})

	t.Run("it prints nothing when no keys match", func(t *testing.T) {
		t.Parallel()

		expectOutput(t, "", pebbleDir(t), "--prefix", "data_l_")
	})

	t.Run("it reads the engine and path from a config file", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "badger")

		s, err := badgerstore.Open(dir)
		if err != nil {
			t.Fatal(err)
		}
		populate(t, s)

		cfg := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(
			cfg,
			[]byte("engine: badger\ncompression: snappy\npath: "+dir+"\n"),
			0o600,
		); err != nil {
			t.Fatal(err)
		}

		expectOutput(
			t,
			"data_z_tags:blue\t\"blue\"\ndata_z_tags:red\t\"red\"\n",
			"--config", cfg, "--prefix", "data_z_",
		)
	})

	t.Run("it combines a config file without a path with the path argument", func(t *testing.T) {
		t.Parallel()

		cfg := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(cfg, []byte("compression: snappy\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		expectOutput(
			t,
			"data_c_hits\t-3\n",
			"-c", cfg, pebbleDir(t), "-p", "data_c_", "-t", "int",
		)
	})

	t.Run("it accepts the engine flag in any case", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "badger")

		s, err := badgerstore.Open(dir)
		if err != nil {
			t.Fatal(err)
		}
		populate(t, s)

		expectOutput(
			t,
			"data_c_hits\t-3\n",
			dir, "--engine", "Badger", "-p", "data_c_", "-t", "int",
		)
	})

	t.Run("it returns an error if the path does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, filepath.Join(t.TempDir(), "missing"))
		if err == nil {
			t.Fatal("expected an error")
		}

		if !strings.Contains(err.Error(), "unable to open pebble store") {
			t.Fatalf("unexpected error: %s", err)
		}
	})

	t.Run("it returns an error if no path is given", func(t *testing.T) {
		t.Parallel()

		if _, err := run(t); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("it returns an error if the value type is not supported", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, pebbleDir(t), "--type", "float")
		if err == nil {
			t.Fatal("expected an error")
		}

		if !strings.Contains(err.Error(), `unsupported value type "float"`) {
			t.Fatalf("unexpected error: %s", err)
		}
	})
}
