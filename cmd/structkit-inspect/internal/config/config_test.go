package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/dogmatiq/structkit/cmd/structkit-inspect/internal/config"
	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, content string) string {
		t.Helper()

		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		return path
	}

	t.Run("it loads all fields", func(t *testing.T) {
		t.Parallel()

		path := write(t, "engine: Badger\npath: /var/lib/data\ncompression: ZSTD\n")

		got, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}

		want := Config{
			Engine:      Badger,
			Path:        "/var/lib/data",
			Compression: Zstd,
		}

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("it applies defaults to omitted fields", func(t *testing.T) {
		t.Parallel()

		path := write(t, "path: /var/lib/data\n")

		got, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}

		want := Config{
			Engine:      Pebble,
			Path:        "/var/lib/data",
			Compression: Snappy,
		}

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("it returns an error if the file does not exist", func(t *testing.T) {
		t.Parallel()

		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("it returns an error if the YAML is malformed", func(t *testing.T) {
		t.Parallel()

		_, err := Load(write(t, "engine: ["))
		if err == nil {
			t.Fatal("expected an error")
		}

		if !strings.Contains(err.Error(), "unable to parse config YAML") {
			t.Fatalf("unexpected error: %s", err)
		}
	})

	t.Run("it does not require a path", func(t *testing.T) {
		t.Parallel()

		got, err := Load(write(t, "compression: none\n"))
		if err != nil {
			t.Fatal(err)
		}

		want := Config{
			Engine:      Pebble,
			Compression: NoCompression,
		}

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatal(diff)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("it accepts a complete config", func(t *testing.T) {
		t.Parallel()

		cfg := Default()
		cfg.Path = "/var/lib/data"

		if err := cfg.Validate(); err != nil {
			t.Fatal(err)
		}
	})

	cases := []struct {
		Name   string
		Config Config
		Want   string
	}{
		{"unknown engine", Config{Engine: "leveldb", Path: "x", Compression: Snappy}, `unsupported engine "leveldb"`},
		{"unknown compression", Config{Engine: Pebble, Path: "x", Compression: "lz4"}, `unsupported compression "lz4"`},
		{"missing path", Config{Engine: Pebble, Compression: Snappy}, "path must not be empty"},
	}

	for _, c := range cases {
		t.Run("it rejects "+c.Name, func(t *testing.T) {
			t.Parallel()

			err := c.Config.Validate()
			if err == nil {
				t.Fatal("expected an error")
			}

			if !strings.Contains(err.Error(), c.Want) {
				t.Fatalf("unexpected error: got %q, want it to contain %q", err, c.Want)
			}
		})
	}
}

func TestParseEngine(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"badger", "Badger", "BADGER"} {
		if got := ParseEngine(s); got != Badger {
			t.Fatalf("unexpected engine for %q: got %q, want %q", s, got, Badger)
		}
	}
}
