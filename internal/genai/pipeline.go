package genai

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hintly/go-hints-backend/internal/resources"
)

var (
	// aiGenerations counts model invocations by stage and outcome
	// (ok, error, fallback).
	aiGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_generations_total",
			Help: "Total generative-model invocations by hint stage and outcome.",
		},
		[]string{"stage", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(aiGenerations)
}

// Hint-stage generation parameters (mirrors the upstream app's tuning:
// creative for hints, focused for resources).
var (
	hintGenConfig = GenConfig{
		Temperature:     0.7,
		MaxOutputTokens: 4000,
	}
	resourceGenConfig = GenConfig{
		Temperature:     0.2,
		TopP:            0.8,
		TopK:            40,
		MaxOutputTokens: 2048,
	}
)

// Pipeline is the AI-response pipeline: it builds stage prompts, invokes the
// model, and applies deterministic post-processing. Construct with a Client
// in production or any TextGenerator in tests.
type Pipeline struct {
	Model TextGenerator
}

// Hint produces a hint for the given stage, trimmed to the stage's budget.
// History must be the full prior message list in conversation order; problem
// is the text the stage instruction wraps (the latest submission for the
// first stage, the original problem statement for the second).
//
// Failures are returned to the caller; there is no retry.
func (p *Pipeline) Hint(ctx context.Context, stage Stage, problem string, history []Turn) (string, error) {
	tr := otel.Tracer("genai/Pipeline")
	ctx, span := tr.Start(ctx, "Hint",
		trace.WithAttributes(attribute.String("hint.stage", stage.String())),
	)
	defer span.End()

	raw, err := p.Model.Generate(ctx, Request{
		Prompt:  BuildHintPrompt(stage, problem),
		History: history,
		Config:  hintGenConfig,
	})
	if err != nil {
		aiGenerations.WithLabelValues(stage.String(), "error").Inc()
		return "", fmt.Errorf("generate %s hint: %w", stage, err)
	}

	aiGenerations.WithLabelValues(stage.String(), "ok").Inc()
	return TrimForStage(stage, raw), nil
}

// Resources produces the categorized resource set for a problem. The method
// never fails: when the model call errors or its output does not decode into
// the structured format, the deterministic keyword fallback is substituted.
// The second return value reports whether the fallback was used.
func (p *Pipeline) Resources(ctx context.Context, problem string) ([]resources.Resource, bool) {
	tr := otel.Tracer("genai/Pipeline")
	ctx, span := tr.Start(ctx, "Resources")
	defer span.End()

	raw, err := p.Model.Generate(ctx, Request{
		Prompt: BuildResourcesPrompt(problem),
		Config: resourceGenConfig,
	})
	if err != nil {
		aiGenerations.WithLabelValues(StageResources.String(), "fallback").Inc()
		return resources.Fallback(problem), true
	}

	set, err := ParseResources(raw)
	if err != nil {
		aiGenerations.WithLabelValues(StageResources.String(), "fallback").Inc()
		return resources.Fallback(problem), true
	}

	aiGenerations.WithLabelValues(StageResources.String(), "ok").Inc()
	return set, false
}
