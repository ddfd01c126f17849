package list

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
	return &instrumentedStore{
		Next: s,
		Telemetry: telemetry.Provider{
			TracerProvider: p,
			MeterProvider:  m,
			LoggerProvider: l,
		},
	}
}

// instrumentedStore is a decorator that adds instrumentation to a [Store].
type instrumentedStore struct {
	Next      Store
	Telemetry telemetry.Provider
}

// Open returns the list with the given name.
func (s *instrumentedStore) Open(ctx context.Context, name string) (List, error) {
	telem := s.Telemetry.Recorder(
		"github.com/dogmatiq/structkit/list",
		telemetry.Type("list.store", s.Next),
		telemetry.String("list.name", name),
		telemetry.String("list.handle", telemetry.HandleID()),
	)

	l := &instrumentedList{
		Telemetry:    telem,
		OpenLists:    telem.UpDownCounter("open_lists", "{list}", "The number of lists that are currently open."),
		ElementIO:    telem.Counter("element.io", "{element}", "The number of list elements that have been read and written."),
		ElementSize:  telem.Histogram("element.size", "By", "The sizes of the list elements that have been read and written."),
		DeletedLists: telem.Counter("deleted", "{list}", "The number of lists that have been deleted."),
	}

	ctx, span := telem.StartSpan(ctx, "list.open")
	defer span.End()

	next, err := s.Next.Open(ctx, name)
	if err != nil {
		l.Telemetry.Error(ctx, "list.open.error", err)
		return nil, err
	}

	l.Next = next

	l.OpenLists(ctx, 1)
	l.Telemetry.Info(ctx, "list.open.ok", "opened list")

	return l, nil
}

type instrumentedList struct {
	Next      List
	Telemetry *telemetry.Recorder

	OpenLists    telemetry.Instrument[int64]
	ElementIO    telemetry.Instrument[int64]
	ElementSize  telemetry.Instrument[int64]
	DeletedLists telemetry.Instrument[int64]
}

func (l *instrumentedList) Name() string {
	return l.Next.Name()
}

func (l *instrumentedList) Push(ctx context.Context, v string) (Index, error) {
	size := int64(len(v))

	ctx, span := l.Telemetry.StartSpan(
		ctx,
		"list.push",
		telemetry.Int("element_size", size),
	)
	defer span.End()

	i, err := l.Next.Push(ctx, v)
	if err != nil {
		l.Telemetry.Error(ctx, "list.push.error", err)
		return 0, err
	}

	l.ElementIO(ctx, 1, telemetry.WriteDirection)
	l.ElementSize(ctx, size, telemetry.WriteDirection)

	span.SetAttributes(
		telemetry.Int("index", i),
	)

	l.Telemetry.Info(ctx, "list.push.ok", "pushed element to list")

	return i, nil
}

func (l *instrumentedList) Get(ctx context.Context, i Index) (string, error) {
	ctx, span := l.Telemetry.StartSpan(
		ctx,
		"list.get",
		telemetry.Int("index", i),
	)
	defer span.End()

	v, err := l.Next.Get(ctx, i)
	if err != nil {
		if IsNotFound(err) {
			span.SetAttributes(telemetry.Bool("element_present", false))
			l.Telemetry.Info(ctx, "list.get.not_found", "element does not exist")
		} else {
			l.Telemetry.Error(ctx, "list.get.error", err)
		}
		return "", err
	}

	size := int64(len(v))

	l.ElementIO(ctx, 1, telemetry.ReadDirection)
	l.ElementSize(ctx, size, telemetry.ReadDirection)

	span.SetAttributes(
		telemetry.Bool("element_present", true),
		telemetry.Int("element_size", size),
	)

	l.Telemetry.Info(ctx, "list.get.ok", "fetched list element")

	return v, nil
}

func (l *instrumentedList) All(ctx context.Context) ([]string, error) {
	ctx, span := l.Telemetry.StartSpan(ctx, "list.all")
	defer span.End()

	elements, err := l.Next.All(ctx)
	if err != nil {
		l.Telemetry.Error(ctx, "list.all.error", err)
		return nil, err
	}

	var totalSize int64
	for _, v := range elements {
		size := int64(len(v))
		totalSize += size
		l.ElementSize(ctx, size, telemetry.ReadDirection)
	}
	l.ElementIO(ctx, int64(len(elements)), telemetry.ReadDirection)

	span.SetAttributes(
		telemetry.Int("elements_read", len(elements)),
		telemetry.Int("bytes_read", totalSize),
	)

	l.Telemetry.Info(ctx, "list.all.ok", "fetched all list elements")

	return elements, nil
}

func (l *instrumentedList) Range(ctx context.Context, fn RangeFunc) error {
	ctx, span := l.Telemetry.StartSpan(ctx, "list.range")
	defer span.End()

	var (
		count     uint64
		totalSize int64
		brokeLoop bool
	)

	l.Telemetry.Info(ctx, "list.range.start", "reading list elements")

	err := l.Next.Range(
		ctx,
		func(ctx context.Context, i Index, v string) (bool, error) {
			count++

			size := int64(len(v))
			totalSize += size

			l.ElementIO(ctx, 1, telemetry.ReadDirection)
			l.ElementSize(ctx, size, telemetry.ReadDirection)

			ok, err := fn(ctx, i, v)
			if ok || err != nil {
				return ok, err
			}

			brokeLoop = true
			return false, nil
		},
	)

	span.SetAttributes(
		telemetry.Int("elements_read", count),
		telemetry.Int("bytes_read", totalSize),
		telemetry.Bool("reached_end", !brokeLoop && err == nil),
	)

	if err != nil {
		l.Telemetry.Error(ctx, "list.range.error", err)
		return err
	}

	if brokeLoop {
		l.Telemetry.Info(ctx, "list.range.break", "range aborted cleanly before visiting all list elements")
	} else {
		l.Telemetry.Info(ctx, "list.range.end", "range visited all list elements")
	}

	return nil
}

func (l *instrumentedList) Len(ctx context.Context) (uint64, error) {
	ctx, span := l.Telemetry.StartSpan(ctx, "list.len")
	defer span.End()

	n, err := l.Next.Len(ctx)
	if err != nil {
		l.Telemetry.Error(ctx, "list.len.error", err)
		return 0, err
	}

	span.SetAttributes(
		telemetry.Int("length", n),
	)

	l.Telemetry.Info(ctx, "list.len.ok", "fetched list length")

	return n, nil
}

func (l *instrumentedList) Exists(ctx context.Context) (bool, error) {
	ctx, span := l.Telemetry.StartSpan(ctx, "list.exists")
	defer span.End()

	ok, err := l.Next.Exists(ctx)
	if err != nil {
		l.Telemetry.Error(ctx, "list.exists.error", err)
		return false, err
	}

	span.SetAttributes(
		telemetry.Bool("list_exists", ok),
	)

	if ok {
		l.Telemetry.Info(ctx, "list.exists.ok", "list exists")
	} else {
		l.Telemetry.Info(ctx, "list.exists.ok", "list does not exist")
	}

	return ok, nil
}

func (l *instrumentedList) DeleteAll(ctx context.Context) error {
	ctx, span := l.Telemetry.StartSpan(ctx, "list.delete_all")
	defer span.End()

	if err := l.Next.DeleteAll(ctx); err != nil {
		l.Telemetry.Error(ctx, "list.delete_all.error", err)
		return err
	}

	l.DeletedLists(ctx, 1)
	l.Telemetry.Info(ctx, "list.delete_all.ok", "deleted list and all of its elements")

	return nil
}

func (l *instrumentedList) Close() error {
	if l.Next == nil {
		// Closing an already-closed resource is not an error, allowing Close()
		// to be called unconditionally by a defer statement.
		return nil
	}

	ctx, span := l.Telemetry.StartSpan(context.Background(), "list.close")
	defer span.End()

	defer func() {
		l.Next = nil
		l.OpenLists(ctx, -1)
	}()

	if err := l.Next.Close(); err != nil {
		l.Telemetry.Error(ctx, "list.close.error", err)
		return err
	}

	l.Telemetry.Info(ctx, "list.close.ok", "list closed")

	return nil
}
