package store

import (
	"context"

	"github.com/dogmatiq/structkit/internal/telemetry"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// WithTelemetry returns a [Store] that adds telemetry to s.
func WithTelemetry(
	s Store,
	p trace.TracerProvider,
	m metric.MeterProvider,
	l log.LoggerProvider,
) Store {
	provider := telemetry.Provider{
		TracerProvider: p,
		MeterProvider:  m,
		LoggerProvider: l,
	}

	telem := provider.Recorder(
		"github.com/dogmatiq/structkit/store",
		telemetry.Type("store.engine", s),
		telemetry.String("store.handle", telemetry.HandleID()),
	)

	return &instrumentedStore{
		Next:      s,
		Telemetry: telem,
		Misses:    telem.Counter("misses", "{operation}", "The number of times the value associated with a specific key was requested but not present in the store."),
		KeyIO:     telem.Counter("key.io", "By", "The cumulative size of the keys that have been operated upon."),
		ValueIO:   telem.Counter("value.io", "By", "The cumulative size of the values that have been operated upon."),
		KeySize:   telem.Histogram("key.size", "By", "The sizes of the keys that have been operated upon."),
		ValueSize: telem.Histogram("value.size", "By", "The sizes of the values that have been operated upon."),
		BatchSize: telem.Histogram("batch.size", "{operation}", "The number of operations in each batch written to the store."),
	}
}

// instrumentedStore is a decorator that adds instrumentation to a [Store].
type instrumentedStore struct {
	Next      Store
	Telemetry *telemetry.Recorder

	Misses    telemetry.Instrument[int64]
	KeyIO     telemetry.Instrument[int64]
	ValueIO   telemetry.Instrument[int64]
	KeySize   telemetry.Instrument[int64]
	ValueSize telemetry.Instrument[int64]
	BatchSize telemetry.Instrument[int64]
}

func (s *instrumentedStore) Get(ctx context.Context, k []byte) ([]byte, bool, error) {
	keySize := int64(len(k))

	ctx, span := s.Telemetry.StartSpan(
		ctx,
		"store.get",
		telemetry.Key("key", k),
		telemetry.Int("key_size", keySize),
	)
	defer span.End()

	s.KeyIO(ctx, keySize, telemetry.WriteDirection)
	s.KeySize(ctx, keySize, telemetry.WriteDirection)

	v, ok, err := s.Next.Get(ctx, k)
	if err != nil {
		s.Telemetry.Error(ctx, "store.get.error", err)
		return nil, false, err
	}

	span.SetAttributes(
		telemetry.Bool("key_present", ok),
	)

	if !ok {
		s.Misses(ctx, 1)
		s.Telemetry.Info(ctx, "store.get.ok", "key is not present in store")
		return nil, false, nil
	}

	valueSize := int64(len(v))

	s.ValueIO(ctx, valueSize, telemetry.ReadDirection)
	s.ValueSize(ctx, valueSize, telemetry.ReadDirection)

	span.SetAttributes(
		telemetry.Binary("value", v),
		telemetry.Int("value_size", valueSize),
	)

	s.Telemetry.Info(ctx, "store.get.ok", "fetched value associated with key")

	return v, true, nil
}

func (s *instrumentedStore) Put(ctx context.Context, k, v []byte) error {
	keySize := int64(len(k))
	valueSize := int64(len(v))

	ctx, span := s.Telemetry.StartSpan(
		ctx,
		"store.put",
		telemetry.Key("key", k),
		telemetry.Int("key_size", keySize),
		telemetry.Binary("value", v),
		telemetry.Int("value_size", valueSize),
	)
	defer span.End()

	s.KeyIO(ctx, keySize, telemetry.WriteDirection)
	s.KeySize(ctx, keySize, telemetry.WriteDirection)
	s.ValueIO(ctx, valueSize, telemetry.WriteDirection)
	s.ValueSize(ctx, valueSize, telemetry.WriteDirection)

	if err := s.Next.Put(ctx, k, v); err != nil {
		s.Telemetry.Error(ctx, "store.put.error", err)
		return err
	}

	s.Telemetry.Info(ctx, "store.put.ok", "set key/value pair")

	return nil
}

func (s *instrumentedStore) Delete(ctx context.Context, k []byte) error {
	keySize := int64(len(k))

	ctx, span := s.Telemetry.StartSpan(
		ctx,
		"store.delete",
		telemetry.Key("key", k),
		telemetry.Int("key_size", keySize),
	)
	defer span.End()

	s.KeyIO(ctx, keySize, telemetry.WriteDirection)
	s.KeySize(ctx, keySize, telemetry.WriteDirection)

	if err := s.Next.Delete(ctx, k); err != nil {
		s.Telemetry.Error(ctx, "store.delete.error", err)
		return err
	}

	s.Telemetry.Info(ctx, "store.delete.ok", "deleted key/value pair")

	return nil
}

func (s *instrumentedStore) Write(ctx context.Context, ops ...Op) error {
	var puts, deletes int64

	for _, op := range ops {
		if op.Kind == PutKind {
			puts++
		} else {
			deletes++
		}
	}

	ctx, span := s.Telemetry.StartSpan(
		ctx,
		"store.write",
		telemetry.Int("batch_size", len(ops)),
		telemetry.Int("puts", puts),
		telemetry.Int("deletes", deletes),
	)
	defer span.End()

	s.BatchSize(ctx, int64(len(ops)))

	for _, op := range ops {
		keySize := int64(len(op.Key))
		s.KeyIO(ctx, keySize, telemetry.WriteDirection)
		s.KeySize(ctx, keySize, telemetry.WriteDirection)

		if op.Kind == PutKind {
			valueSize := int64(len(op.Value))
			s.ValueIO(ctx, valueSize, telemetry.WriteDirection)
			s.ValueSize(ctx, valueSize, telemetry.WriteDirection)
		}
	}

	if err := s.Next.Write(ctx, ops...); err != nil {
		s.Telemetry.Error(ctx, "store.write.error", err)
		return err
	}

	s.Telemetry.Info(ctx, "store.write.ok", "wrote batch atomically")

	return nil
}

func (s *instrumentedStore) Scan(ctx context.Context, start []byte, fn RangeFunc) error {
	ctx, span := s.Telemetry.StartSpan(
		ctx,
		"store.scan",
		telemetry.If(len(start) != 0, telemetry.Key("start", start)),
	)
	defer span.End()

	var (
		count     uint64
		totalSize int64
		brokeLoop bool
	)

	s.Telemetry.Info(ctx, "store.scan.start", "reading key/value pairs")

	err := s.Next.Scan(
		ctx,
		start,
		func(ctx context.Context, k, v []byte) (bool, error) {
			count++

			keySize := int64(len(k))
			valueSize := int64(len(v))
			totalSize += keySize + valueSize

			s.KeyIO(ctx, keySize, telemetry.ReadDirection)
			s.KeySize(ctx, keySize, telemetry.ReadDirection)

			s.ValueIO(ctx, valueSize, telemetry.ReadDirection)
			s.ValueSize(ctx, valueSize, telemetry.ReadDirection)

			ok, err := fn(ctx, k, v)
			if ok || err != nil {
				return ok, err
			}

			brokeLoop = true
			return false, nil
		},
	)

	span.SetAttributes(
		telemetry.Int("pairs_read", count),
		telemetry.Int("bytes_read", totalSize),
		telemetry.Bool("reached_end", !brokeLoop && err == nil),
	)

	if err != nil {
		s.Telemetry.Error(ctx, "store.scan.error", err)
		return err
	}

	if brokeLoop {
		s.Telemetry.Info(ctx, "store.scan.break", "scan stopped cleanly before visiting all key/value pairs")
	} else {
		s.Telemetry.Info(ctx, "store.scan.end", "scan visited all key/value pairs")
	}

	return nil
}

func (s *instrumentedStore) Close() error {
	ctx, span := s.Telemetry.StartSpan(context.Background(), "store.close")
	defer span.End()

	if err := s.Next.Close(); err != nil {
		s.Telemetry.Error(ctx, "store.close.error", err)
		return err
	}

	s.Telemetry.Info(ctx, "store.close.ok", "store closed")

	return nil
}
