package set

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

// Open returns the set with the given name.
func (s *instrumentedStore) Open(ctx context.Context, name string) (Set, error) {
	telem := s.Telemetry.Recorder(
		"github.com/dogmatiq/structkit/set",
		telemetry.Type("set.store", s.Next),
		telemetry.String("set.name", name),
		telemetry.String("set.handle", telemetry.HandleID()),
	)

	set := &instrumentedSet{
		Telemetry:  telem,
		OpenSets:   telem.UpDownCounter("open_sets", "{set}", "The number of sets that are currently open."),
		MemberIO:   telem.Counter("member.io", "By", "The cumulative size of the members that have been operated upon."),
		MemberSize: telem.Histogram("member.size", "By", "The sizes of the members that have been operated upon."),
	}

	ctx, span := telem.StartSpan(ctx, "set.open")
	defer span.End()

	next, err := s.Next.Open(ctx, name)
	if err != nil {
		telem.Error(ctx, "set.open.error", err)
		return nil, err
	}

	set.Next = next

	set.OpenSets(ctx, 1)
	set.Telemetry.Info(ctx, "set.open.ok", "opened set")

	return set, nil
}

type instrumentedSet struct {
	Next      Set
	Telemetry *telemetry.Recorder

	OpenSets   telemetry.Instrument[int64]
	MemberIO   telemetry.Instrument[int64]
	MemberSize telemetry.Instrument[int64]
}

func (s *instrumentedSet) Name() string {
	return s.Next.Name()
}

// startMemberSpan starts a span for an operation on a single member and
// records the member's size in the write direction.
func (s *instrumentedSet) startMemberSpan(ctx context.Context, name, m string) (context.Context, *telemetry.Span) {
	size := int64(len(m))

	ctx, span := s.Telemetry.StartSpan(
		ctx,
		name,
		telemetry.String("member", m),
		telemetry.Int("member_size", size),
	)

	s.MemberIO(ctx, size, telemetry.WriteDirection)
	s.MemberSize(ctx, size, telemetry.WriteDirection)

	return ctx, span
}

func (s *instrumentedSet) Has(ctx context.Context, m string) (bool, error) {
	ctx, span := s.startMemberSpan(ctx, "set.has", m)
	defer span.End()

	ok, err := s.Next.Has(ctx, m)
	if err != nil {
		s.Telemetry.Error(ctx, "set.has.error", err)
		return false, err
	}

	span.SetAttributes(
		telemetry.Bool("member_present", ok),
	)

	if ok {
		s.Telemetry.Info(ctx, "set.has.ok", "member is present in set")
	} else {
		s.Telemetry.Info(ctx, "set.has.ok", "member is not present in set")
	}

	return ok, nil
}

func (s *instrumentedSet) Add(ctx context.Context, m string) error {
	ctx, span := s.startMemberSpan(ctx, "set.add", m)
	defer span.End()

	if err := s.Next.Add(ctx, m); err != nil {
		s.Telemetry.Error(ctx, "set.add.error", err)
		return err
	}

	s.Telemetry.Info(ctx, "set.add.ok", "added member to set")

	return nil
}

func (s *instrumentedSet) TryAdd(ctx context.Context, m string) (bool, error) {
	ctx, span := s.startMemberSpan(ctx, "set.try_add", m)
	defer span.End()

	ok, err := s.Next.TryAdd(ctx, m)
	if err != nil {
		s.Telemetry.Error(ctx, "set.try_add.error", err)
		return false, err
	}

	span.SetAttributes(
		telemetry.Bool("member_added", ok),
	)

	if ok {
		s.Telemetry.Info(ctx, "set.try_add.ok", "member was added to set")
	} else {
		s.Telemetry.Info(ctx, "set.try_add.ok", "member was already present in set")
	}

	return ok, nil
}

func (s *instrumentedSet) Remove(ctx context.Context, m string) error {
	ctx, span := s.startMemberSpan(ctx, "set.remove", m)
	defer span.End()

	if err := s.Next.Remove(ctx, m); err != nil {
		s.Telemetry.Error(ctx, "set.remove.error", err)
		return err
	}

	s.Telemetry.Info(ctx, "set.remove.ok", "removed member from set")

	return nil
}

func (s *instrumentedSet) TryRemove(ctx context.Context, m string) (bool, error) {
	ctx, span := s.startMemberSpan(ctx, "set.try_remove", m)
	defer span.End()

	ok, err := s.Next.TryRemove(ctx, m)
	if err != nil {
		s.Telemetry.Error(ctx, "set.try_remove.error", err)
		return false, err
	}

	span.SetAttributes(
		telemetry.Bool("member_removed", ok),
	)

	if ok {
		s.Telemetry.Info(ctx, "set.try_remove.ok", "member was removed from set")
	} else {
		s.Telemetry.Info(ctx, "set.try_remove.ok", "member was not present in set")
	}

	return ok, nil
}

func (s *instrumentedSet) Members(ctx context.Context) ([]string, error) {
	ctx, span := s.Telemetry.StartSpan(ctx, "set.members")
	defer span.End()

	members, err := s.Next.Members(ctx)
	if err != nil {
		s.Telemetry.Error(ctx, "set.members.error", err)
		return nil, err
	}

	var totalSize int64
	for _, m := range members {
		size := int64(len(m))
		totalSize += size
		s.MemberSize(ctx, size, telemetry.ReadDirection)
	}
	s.MemberIO(ctx, totalSize, telemetry.ReadDirection)

	span.SetAttributes(
		telemetry.Int("members_read", len(members)),
		telemetry.Int("bytes_read", totalSize),
	)

	s.Telemetry.Info(ctx, "set.members.ok", "fetched all set members")

	return members, nil
}

func (s *instrumentedSet) Range(ctx context.Context, fn RangeFunc) error {
	ctx, span := s.Telemetry.StartSpan(ctx, "set.range")
	defer span.End()

	var (
		count     uint64
		totalSize int64
		brokeLoop bool
	)

	s.Telemetry.Info(ctx, "set.range.start", "reading set members")

	err := s.Next.Range(
		ctx,
		func(ctx context.Context, m string) (bool, error) {
			count++

			size := int64(len(m))
			totalSize += size

			s.MemberIO(ctx, size, telemetry.ReadDirection)
			s.MemberSize(ctx, size, telemetry.ReadDirection)

			ok, err := fn(ctx, m)
			if ok || err != nil {
				return ok, err
			}

			brokeLoop = true
			return false, nil
		},
	)

	span.SetAttributes(
		telemetry.Int("members_read", count),
		telemetry.Int("bytes_read", totalSize),
		telemetry.Bool("reached_end", !brokeLoop && err == nil),
	)

	if err != nil {
		s.Telemetry.Error(ctx, "set.range.error", err)
		return err
	}

	if brokeLoop {
		s.Telemetry.Info(ctx, "set.range.break", "range aborted cleanly before visiting all set members")
	} else {
		s.Telemetry.Info(ctx, "set.range.end", "range visited all set members")
	}

	return nil
}

func (s *instrumentedSet) Close() error {
	if s.Next == nil {
		// If the resource has already been closed don't do anything at all,
		// even log a warning, because we want to allow the caller to defer
		// closing for safety _and_ close explicitly elsewhere for error
		// checking.
		return nil
	}

	ctx, span := s.Telemetry.StartSpan(context.Background(), "set.close")
	defer span.End()

	defer func() {
		s.Next = nil
		s.OpenSets(ctx, -1)
	}()

	if err := s.Next.Close(); err != nil {
		s.Telemetry.Error(ctx, "set.close.error", err)
		return err
	}

	s.Telemetry.Info(ctx, "set.close.ok", "closed set")

	return nil
}
