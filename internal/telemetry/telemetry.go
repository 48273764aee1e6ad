// Package telemetry provides CodexPotter's optional tracing instrumentation:
// one span per round and one span per backend session, exported via stdout.
// Grounded on the teacher's otel wiring pattern (span-per-request-ish
// granularity); genuinely optional ambient instrumentation, not named by
// spec.md but carried as ambient stack per SPEC_FULL.md §11.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "codexpotter"

// Provider wraps a configured tracer provider and its shutdown hook.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// NewProvider builds a Provider. When enabled is false, it installs a no-op
// tracer so callers never need to branch on whether tracing is on; w is
// where span output is written (typically stdout), used only when enabled.
func NewProvider(enabled bool, w io.Writer) (*Provider, error) {
	if !enabled {
		return &Provider{tracer: otel.Tracer(tracerName)}, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("telemetry: create stdout exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return &Provider{tp: tp, tracer: tp.Tracer(tracerName)}, nil
}

// Shutdown flushes and releases the underlying tracer provider, if any.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// StartRoundSpan starts the "codexpotter.round" span for one round.
func (p *Provider) StartRoundSpan(ctx context.Context, current, total int) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "codexpotter.round", trace.WithAttributes(
		roundCurrentAttr(current), roundTotalAttr(total),
	))
}

// StartBackendSessionSpan starts the "codexpotter.backend_session" span
// covering one app-server child process lifetime.
func (p *Provider) StartBackendSessionSpan(ctx context.Context, codexBin string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "codexpotter.backend_session", trace.WithAttributes(
		codexBinAttr(codexBin),
	))
}

// NewStdoutProviderFromFlag is a small convenience for cmd/root.go: when the
// --otel-stdout debug flag is set, it returns a Provider writing to os.Stdout.
func NewStdoutProviderFromFlag(enabled bool) (*Provider, error) {
	return NewProvider(enabled, os.Stdout)
}
