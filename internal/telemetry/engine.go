package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/log"
)

// EngineLogger adapts the printf-style logging interfaces used by embedded
// storage engines to an OpenTelemetry [log.Logger].
//
// It satisfies both pebble.Logger and badger.Logger.
type EngineLogger struct {
	logger log.Logger
	engine string
}

// NewEngineLogger returns an [EngineLogger] that emits records via p.
//
// pkg is the path of the Go package that opened the engine. engine is a short
// name for the engine, such as "pebble".
func NewEngineLogger(p log.LoggerProvider, pkg, engine string) *EngineLogger {
	return &EngineLogger{
		logger: p.Logger(
			pkg,
			logVersion,
			log.WithInstrumentationAttributes(
				asAttrKeyValues([]Attr{String("engine", engine)})...,
			),
		),
		engine: engine,
	}
}

// Debugf logs a debug message.
func (l *EngineLogger) Debugf(format string, args ...any) {
	l.emit(log.SeverityDebug, format, args)
}

// Infof logs an informational message.
func (l *EngineLogger) Infof(format string, args ...any) {
	l.emit(log.SeverityInfo, format, args)
}

// Warningf logs a warning.
func (l *EngineLogger) Warningf(format string, args ...any) {
	l.emit(log.SeverityWarn, format, args)
}

// Errorf logs an error.
func (l *EngineLogger) Errorf(format string, args ...any) {
	l.emit(log.SeverityError, format, args)
}

// Fatalf logs an unrecoverable error, then panics.
//
// The engine treats a call to Fatalf as terminal; it must not return.
func (l *EngineLogger) Fatalf(format string, args ...any) {
	l.emit(log.SeverityFatal, format, args)
	panic(fmt.Sprintf("%s: "+format, append([]any{l.engine}, args...)...))
}

func (l *EngineLogger) emit(severity log.Severity, format string, args []any) {
	ctx := context.Background()

	if !l.logger.Enabled(ctx, log.EnabledParameters{Severity: severity}) {
		return
	}

	var rec log.Record
	rec.SetTimestamp(time.Now())
	rec.SetEventName(l.engine + ".log")
	rec.SetSeverity(severity)
	rec.SetBody(log.StringValue(fmt.Sprintf(format, args...)))

	l.logger.Emit(ctx, rec)
}
