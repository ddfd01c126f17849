package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/cockroachdb/pebble"
	"github.com/dgraph-io/badger/v2/options"
	"github.com/dogmatiq/structkit/cmd/structkit-inspect/internal/config"
	"github.com/dogmatiq/structkit/driver/badger/badgerstore"
	"github.com/dogmatiq/structkit/driver/pebble/pebblestore"
	"github.com/dogmatiq/structkit/scan"
	"github.com/dogmatiq/structkit/store"
)

const (
	typeString   = "string"
	typeInteger  = "int"
	typeUnsigned = "uint"
)

// request describes the records to print.
type request struct {
	Prefix string
	Type   string
}

// inspect prints the records that match req to w, one per line, in key order.
func inspect(
	ctx context.Context,
	w io.Writer,
	cfg config.Config,
	req request,
) error {
	// Opening a missing path would create an empty store.
	if _, err := os.Stat(cfg.Path); err != nil {
		return fmt.Errorf("unable to open %s store: %w", cfg.Engine, err)
	}

	s, err := open(cfg)
	if err != nil {
		return fmt.Errorf("unable to open %s store: %w", cfg.Engine, err)
	}
	defer s.Close()

	prefix := []byte(req.Prefix)

	switch req.Type {
	case typeString:
		records, err := scan.Strings(ctx, s, prefix)
		if err != nil {
			return err
		}
		return printRecords(w, records, "%s\t%q\n")
	case typeInteger:
		records, err := scan.Integers(ctx, s, prefix)
		if err != nil {
			return err
		}
		return printRecords(w, records, "%s\t%d\n")
	case typeUnsigned:
		records, err := scan.Unsigned(ctx, s, prefix)
		if err != nil {
			return err
		}
		return printRecords(w, records, "%s\t%d\n")
	default:
		return fmt.Errorf("unsupported value type %q", req.Type)
	}
}

// open opens the store described by cfg.
func open(cfg config.Config) (store.Store, error) {
	switch cfg.Engine {
	case config.Pebble:
		c := pebble.SnappyCompression
		switch cfg.Compression {
		case config.NoCompression:
			c = pebble.NoCompression
		case config.Zstd:
			c = pebble.ZstdCompression
		}
		return pebblestore.Open(cfg.Path, pebblestore.WithCompression(c))

	case config.Badger:
		c := options.Snappy
		switch cfg.Compression {
		case config.NoCompression:
			c = options.None
		case config.Zstd:
			c = options.ZSTD
		}
		return badgerstore.Open(cfg.Path, badgerstore.WithCompression(c))
	}

	return nil, errors.New("unsupported engine")
}

func printRecords[T any](w io.Writer, records map[string]T, format string) error {
	for _, k := range slices.Sorted(maps.Keys(records)) {
		if _, err := fmt.Fprintf(w, format, k, records[k]); err != nil {
			return err
		}
	}
	return nil
}
