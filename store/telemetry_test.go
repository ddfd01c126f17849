package store_test

import (
	"testing"

	"github.com/dogmatiq/structkit/driver/memory/memorystore"
	. "github.com/dogmatiq/structkit/store"
	nooplog "go.opentelemetry.io/otel/log/noop"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

func TestWithTelemetry(t *testing.T) {
	RunTests(
		t,
		func(t *testing.T) Store {
			return WithTelemetry(
				&memorystore.Store{},
				nooptrace.NewTracerProvider(),
				noopmetric.NewMeterProvider(),
				nooplog.NewLoggerProvider(),
			)
		},
	)
}
