package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	narrerr "github.com/nguyentantai21042004/session-narrator/pkg/errors"
)

// TracerName is the instrumentation name used for narrator spans.
const TracerName = "session-narrator"

// Span attribute keys
const (
	AttrJobID      = "job_id"
	AttrFiles      = "files"
	AttrChunks     = "chunks"
	AttrChunkIndex = "chunk_index"
	AttrPhase      = "phase"
	AttrModel      = "model"
	AttrPromptLen  = "prompt_chars"
	AttrCategory   = "error_category"
)

// Span names
const (
	SpanJob         = "narrator.job"
	SpanGenerate    = "narrator.gateway.generate"
	SpanTranscribe  = "narrator.transcribe"
	spanPhasePrefix = "narrator.phase."
)

// Tracer starts spans for jobs, phases and gateway calls. Spans go to the global
// otel provider, which is a no-op unless the binary installs one.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer on the global provider.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(TracerName)}
}

// NewTracerFrom creates a Tracer on a specific provider.
func NewTracerFrom(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(TracerName)}
}

// StartJobSpan starts the root span of a summarization job.
func (t *Tracer) StartJobSpan(ctx context.Context, jobID string, files int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanJob,
		trace.WithAttributes(
			attribute.String(AttrJobID, jobID),
			attribute.Int(AttrFiles, files),
		),
	)
}

// StartPhaseSpan starts a span for one state of the job.
func (t *Tracer) StartPhaseSpan(ctx context.Context, phase string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, spanPhasePrefix+phase,
		trace.WithAttributes(attribute.String(AttrPhase, phase)),
	)
}

// StartGatewaySpan starts a span for a generation request. chunkIndex is -1 for
// the reduce call.
func (t *Tracer) StartGatewaySpan(ctx context.Context, model string, chunkIndex, promptLen int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanGenerate,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrModel, model),
			attribute.Int(AttrChunkIndex, chunkIndex),
			attribute.Int(AttrPromptLen, promptLen),
		),
	)
}

// StartTranscribeSpan starts a span for one audio file.
func (t *Tracer) StartTranscribeSpan(ctx context.Context, path string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanTranscribe,
		trace.WithAttributes(attribute.String("path", path)),
	)
}

// End closes span, recording err and its category when non-nil.
func End(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrCategory, string(narrerr.CategoryOf(err))))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// TraceID returns the trace ID carried by ctx, or "".
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
