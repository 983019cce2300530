package tracing

import (
	"fmt"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/honeycombio/otel-config-go/otelconfig"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var GlobalTracer = otel.Tracer("traintrack-backend")

// HoneycombSetup configures the OpenTelemetry SDK via the honeycomb distro
// and attaches a tracing hook to the given redis client. The returned shutdown
// function must be called on server teardown.
// Expects HONEYCOMB_API_KEY (and optionally OTEL_EXPORTER_OTLP_ENDPOINT)
// to be set in the environment.
func HoneycombSetup(enabled bool, serviceName string, rdb *redis.Client) (shutdown func(), err error) {
	if !enabled {
		log.Warnln("honeycomb tracing disabled")
		return func() {}, nil
	}

	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(serviceName),
	)
	if err != nil {
		return nil, fmt.Errorf("configure opentelemetry: %w", err)
	}

	rdb.AddHook(redisotel.NewTracingHook())

	log.Debugln("honeycomb tracing set up")
	return otelShutdown, nil
}

// EndSpanWithErrCheck ends the span, recording the error on it if non-nil.
func EndSpanWithErrCheck(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
