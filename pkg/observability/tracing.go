// Package observability wires OpenTelemetry tracing around dispatched
// bridge commands.
//
// Tracing is off until Initialize installs a tracer provider; before that,
// StartCommand returns no-op spans from the global provider.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	sperrors "github.com/ajitpratap0/sparquet/pkg/errors"
)

const tracerName = "github.com/ajitpratap0/sparquet"

// TracingConfig contains tracing configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	// Writer receives the exported spans; nil means stderr
	Writer      io.Writer
	PrettyPrint bool
}

var (
	mu       sync.Mutex
	provider *sdktrace.TracerProvider
)

// Initialize installs a tracer provider that exports spans synchronously to
// the configured writer. Spans are exported as they end, since a bridge
// call is short lived.
func Initialize(cfg TracingConfig) error {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSyncer(exporter),
	)

	mu.Lock()
	provider = tp
	mu.Unlock()
	otel.SetTracerProvider(tp)
	return nil
}

// Shutdown flushes and stops the installed provider, if any.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	tp := provider
	provider = nil
	mu.Unlock()
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// Tracer returns the bridge tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartCommand opens the span of one dispatched command.
func StartCommand(ctx context.Context, command string, args []string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "sparquet."+command,
		trace.WithAttributes(
			attribute.String("sparquet.command", command),
			attribute.StringSlice("sparquet.args", args),
		),
	)
}

// StartFile opens a child span for one file of a command.
func StartFile(ctx context.Context, op, path string, index int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "sparquet."+op+".file",
		trace.WithAttributes(
			attribute.String("sparquet.file", path),
			attribute.Int("sparquet.file_index", index),
		),
	)
}

// End records err on span, tagged with its error type and host code, and
// ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(
			attribute.String("sparquet.error_type", string(sperrors.TypeOf(err))),
			attribute.Int("sparquet.code", sperrors.Code(err)),
		)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
