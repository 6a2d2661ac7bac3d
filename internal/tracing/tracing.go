// Package tracing wraps session lifecycle, exec_cell, and tool upcalls in
// OpenTelemetry spans, following the same four otel modules the teacher
// already imports (otel, otel/sdk, otel/trace,
// otel/exporters/otlp/otlptrace/otlptracehttp). A noop TracerProvider is
// the zero-config default.
package tracing

import (
	"context"
	"fmt"
	"log"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/modfin/tooliscode"

// Tracer is the package-wide tracer, resolved lazily from whatever
// TracerProvider is registered with otel (a noop one by default).
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// Start begins a span named name with the given attributes and returns the
// updated context and the span; callers defer span.End().
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// InstallOTLPHTTP wires an OTLP/HTTP exporter into the global
// TracerProvider, pointed at endpoint (host:port, no scheme). It is opt-in:
// callers that never call this keep the default noop provider and pay
// nothing for tracing.
func InstallOTLPHTTP(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("tracing: build otlp exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracef logs a diagnostic to stderr when trace is true, mirroring the
// teacher's fmt.Printf("[PTC] ...") register and the Python original's
// sidelog()/_trace() helpers gated by WASI_SERVER_TRACE.
func Tracef(trace bool, format string, args ...any) {
	if !trace {
		return
	}
	log.New(os.Stderr, "[wasi] ", log.LstdFlags).Printf(format, args...)
}
