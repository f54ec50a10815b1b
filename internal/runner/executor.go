package runner

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tokenstorm/tokenstorm/internal/feeder"
	"github.com/tokenstorm/tokenstorm/internal/provider"
	"github.com/tokenstorm/tokenstorm/internal/tracing"
)

// Executor converts one generation call into an Outcome. It never retries
// and never returns an error: provider failures become failed outcomes.
type Executor struct {
	caller  provider.Caller
	overlay provider.Overlay
	tracer  trace.Tracer
}

// NewExecutor creates an Executor around the injected provider caller. The
// tracer is optional; pass nil to skip span creation.
func NewExecutor(caller provider.Caller, overlay provider.Overlay, tracer trace.Tracer) *Executor {
	return &Executor{caller: caller, overlay: overlay, tracer: tracer}
}

// Execute performs exactly one provider call and measures start to settle.
func (e *Executor) Execute(ctx context.Context, sequence int, prompt feeder.Prompt) Outcome {
	if len(prompt.Vars) > 0 {
		prompt.Text = feeder.Substitute(prompt.Text, prompt.Vars)
	}

	var span trace.Span
	if e.tracer != nil {
		ctx, span = tracing.StartRequestSpan(ctx, e.tracer, e.overlay.Model, prompt.Name)
	}

	start := time.Now()
	completion, err := e.caller.Generate(ctx, prompt, e.overlay)
	latency := time.Since(start)

	outcome := Outcome{
		Sequence:  sequence,
		LatencyMs: latency.Milliseconds(),
		IssuedAt:  start.UnixMilli(),
	}
	if err != nil {
		outcome.Error = err.Error()
	} else {
		outcome.Success = true
		outcome.InputTokens = completion.InputTokens
		outcome.OutputTokens = completion.OutputTokens
	}

	if span != nil {
		tracing.EndSpan(span, err,
			attribute.Int64("tokenstorm.latency_ms", outcome.LatencyMs),
			attribute.Int("gen_ai.usage.input_tokens", outcome.InputTokens),
			attribute.Int("gen_ai.usage.output_tokens", outcome.OutputTokens),
		)
	}

	return outcome
}
