// Package pipeline runs a fixed, ordered sequence of agent stages over a
// shared LLM client. Each stage renders its instruction template with the
// runtime inputs, optionally folds in the output of earlier stages, and the
// final stage's text becomes the run result.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"agentic-rag/internal/llm"
)

// Agent describes the persona a stage speaks as.
type Agent struct {
	Role      string
	Goal      string
	Backstory string
}

// Stage is one step of the pipeline: an instruction template bound to an
// agent. InputKeys name the runtime inputs the template needs; ContextFrom
// names output keys of earlier stages whose text feeds this stage.
type Stage struct {
	Name           string
	Agent          Agent
	Description    string
	ExpectedOutput string
	InputKeys      []string
	ContextFrom    []string
	OutputKey      string
}

// Inputs are the runtime values substituted into stage templates.
type Inputs map[string]string

// Result carries the final stage's text and the run identifier. RunID is set
// even when the run fails.
type Result struct {
	RunID uuid.UUID
	Raw   string
}

// Pipeline is immutable after New and safe for concurrent Kickoff calls.
type Pipeline struct {
	stages []Stage
	llm    llm.Client
	log    *slog.Logger
	sem    *semaphore.Weighted
	tracer trace.Tracer
}

// Option adjusts pipeline construction.
type Option func(*Pipeline)

// WithLogger sets the logger for stage events.
func WithLogger(log *slog.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithMaxConcurrent bounds how many runs may execute at once. Zero or
// negative means unbounded.
func WithMaxConcurrent(n int64) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.sem = semaphore.NewWeighted(n)
		}
	}
}

// New validates the stage set and builds a pipeline.
func New(client llm.Client, stages []Stage, opts ...Option) (*Pipeline, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client required")
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("at least one stage required")
	}
	names := make(map[string]bool, len(stages))
	outputs := make(map[string]bool, len(stages))
	for i, st := range stages {
		if st.Name == "" {
			return nil, fmt.Errorf("stage %d: name required", i)
		}
		if names[st.Name] {
			return nil, fmt.Errorf("duplicate stage name %q", st.Name)
		}
		if st.OutputKey == "" {
			return nil, fmt.Errorf("stage %q: output key required", st.Name)
		}
		if outputs[st.OutputKey] {
			return nil, fmt.Errorf("stage %q: duplicate output key %q", st.Name, st.OutputKey)
		}
		for _, ref := range st.ContextFrom {
			if !outputs[ref] {
				return nil, fmt.Errorf("stage %q: context %q does not match an earlier stage output", st.Name, ref)
			}
		}
		names[st.Name] = true
		outputs[st.OutputKey] = true
	}

	p := &Pipeline{
		stages: stages,
		llm:    client,
		log:    slog.Default(),
		tracer: otel.Tracer("agentic-rag/pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Kickoff executes all stages in order. Latency is unbounded; ctx bounds
// only the wait for a run slot when a concurrency bound is set.
func (p *Pipeline) Kickoff(ctx context.Context, in Inputs) (Result, error) {
	res := Result{RunID: uuid.New()}
	if err := p.checkInputs(in); err != nil {
		return res, err
	}
	if p.sem != nil {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return res, fmt.Errorf("acquire run slot: %w", err)
		}
		defer p.sem.Release(1)
	}

	// A started run executes to completion. Callers that stop waiting (client
	// timeout, dropped connection) do not abort model work mid-stage.
	ctx = context.WithoutCancel(ctx)

	ctx, span := p.tracer.Start(ctx, "pipeline.kickoff",
		trace.WithAttributes(attribute.String("run_id", res.RunID.String())))
	defer span.End()

	outputs := make(map[string]string, len(p.stages))
	for _, st := range p.stages {
		out, err := p.runStage(ctx, res.RunID, st, in, outputs)
		if err != nil {
			return res, fmt.Errorf("stage %s: %w", st.Name, err)
		}
		outputs[st.OutputKey] = out
		res.Raw = out
	}
	return res, nil
}

func (p *Pipeline) runStage(ctx context.Context, runID uuid.UUID, st Stage, in Inputs, outputs map[string]string) (string, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.stage",
		trace.WithAttributes(attribute.String("stage", st.Name)))
	defer span.End()

	start := time.Now()
	out, err := p.llm.Complete(ctx, st.Agent.systemPrompt(), st.userPrompt(in, outputs))
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	p.log.Info("stage complete",
		"run_id", runID,
		"stage", st.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"output_chars", len(out),
	)
	return out, nil
}

func (p *Pipeline) checkInputs(in Inputs) error {
	for _, st := range p.stages {
		for _, k := range st.InputKeys {
			if in[k] == "" {
				return fmt.Errorf("missing input %q for stage %q", k, st.Name)
			}
		}
	}
	return nil
}
