package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/infrastructure"
)

// stageTracer wraps a run's stages in spans and stage metrics.
type stageTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// startRun creates the span covering a whole run.
func (st *stageTracer) startRun(ctx context.Context, organization string, rows, cols int) (context.Context, trace.Span) {
	return st.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.organization", organization),
			attribute.Int("pipeline.input_rows", rows),
			attribute.Int("pipeline.input_columns", cols),
		),
	)
}

// stage runs fn inside a span named after the stage and records its duration.
func (st *stageTracer) stage(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pipeline cancelled before stage %s: %w", id, err)
	}

	ctx, span := st.tracer.Start(ctx, "pipeline.stage."+id,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("pipeline.stage", id)),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	st.metrics.RecordStage(ctx, id, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// finishRun closes the run span and records the outcome.
func (st *stageTracer) finishRun(ctx context.Context, span trace.Span, organization string, start time.Time, features int, err error) {
	defer span.End()

	st.metrics.RecordRun(ctx, organization, time.Since(start), features, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(attribute.Int("pipeline.features", features))
	span.SetStatus(codes.Ok, "")
}
