package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelsdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// SpanAttr wraps an OpenTelemetry key/value pair so callers of StartSpan
// don't need to import go.opentelemetry.io/otel/attribute directly.
type SpanAttr struct{ kv attribute.KeyValue }

// StringAttr builds a string-valued span attribute.
func StringAttr(key, value string) SpanAttr {
	return SpanAttr{kv: attribute.String(key, value)}
}

// IntAttr builds an int-valued span attribute.
func IntAttr(key string, value int) SpanAttr {
	return SpanAttr{kv: attribute.Int(key, value)}
}

// RingSpanExporter is a bounded in-process sink for finished spans. It
// implements otelsdktrace.SpanExporter but never touches the network:
// spans land in a plain in-memory ring instead of shipping to a
// collector, keeping the OpenTelemetry API (Tracer, Span, attributes)
// usable without anything on the other end.
type RingSpanExporter struct {
	mu    sync.Mutex
	spans []SpanRecord
	cap   int
}

// SpanRecord is a minimal, host-readable projection of a finished span.
type SpanRecord struct {
	Name    string
	TraceID string
	SpanID  string
	Attrs   map[string]string
}

const spanRingCapacity = 1000

// NewRingSpanExporter creates an empty exporter.
func NewRingSpanExporter() *RingSpanExporter {
	return &RingSpanExporter{cap: spanRingCapacity}
}

// ExportSpans implements otelsdktrace.SpanExporter.
func (e *RingSpanExporter) ExportSpans(_ context.Context, spans []otelsdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range spans {
		attrs := make(map[string]string, len(s.Attributes()))
		for _, kv := range s.Attributes() {
			attrs[string(kv.Key)] = kv.Value.Emit()
		}
		e.spans = append(e.spans, SpanRecord{
			Name:    s.Name(),
			TraceID: s.SpanContext().TraceID().String(),
			SpanID:  s.SpanContext().SpanID().String(),
			Attrs:   attrs,
		})
	}
	if len(e.spans) > e.cap {
		e.spans = e.spans[len(e.spans)-e.cap:]
	}
	return nil
}

// Shutdown implements otelsdktrace.SpanExporter.
func (e *RingSpanExporter) Shutdown(context.Context) error { return nil }

// Recent returns up to limit most-recent-last recorded spans.
func (e *RingSpanExporter) Recent(limit int) []SpanRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	if limit <= 0 || limit > len(e.spans) {
		limit = len(e.spans)
	}
	start := len(e.spans) - limit
	out := make([]SpanRecord, limit)
	copy(out, e.spans[start:])
	return out
}

// Tracer wraps an OpenTelemetry tracer bound to an in-process exporter.
type Tracer struct {
	provider *otelsdktrace.TracerProvider
	exporter *RingSpanExporter
	tracer   trace.Tracer
}

// NewTracer builds a tracer for serviceName, recording spans into a
// bounded in-memory ring instead of shipping them over gRPC.
func NewTracer(serviceName string) *Tracer {
	exporter := NewRingSpanExporter()
	provider := otelsdktrace.NewTracerProvider(
		otelsdktrace.WithSyncer(exporter),
	)
	return &Tracer{
		provider: provider,
		exporter: exporter,
		tracer:   provider.Tracer(serviceName),
	}
}

// StartSpan starts a span named name and returns it alongside a context
// carrying it; callers must call span.End().
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...SpanAttr) (context.Context, trace.Span) {
	opts := make([]trace.SpanStartOption, 0, len(attrs))
	for _, a := range attrs {
		opts = append(opts, trace.WithAttributes(a.kv))
	}
	return t.tracer.Start(ctx, name, opts...)
}

// RecentSpans exposes the tracer's in-memory ring for host introspection.
func (t *Tracer) RecentSpans(limit int) []SpanRecord {
	return t.exporter.Recent(limit)
}

// Shutdown flushes and stops the tracer provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

// SetGlobal installs this tracer's provider as the process-wide default.
func (t *Tracer) SetGlobal() {
	otel.SetTracerProvider(t.provider)
}
