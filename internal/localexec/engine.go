package localexec

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"quill/internal/client"
	"quill/internal/logging"
	"quill/internal/pipeline"
	"quill/internal/stream"
)

// Engine executes a pipeline in-process against a Generator while serving
// the execution service's wire contract: StreamRun emits the same SSE
// frames through a pipe, ExecuteInline returns the same buffered shape.
// That keeps local runs on the exact code path remote runs use.
type Engine struct {
	gen    Generator
	pipe   *pipeline.Pipeline
	system string
}

// New creates a local engine for one pipeline. system is the persona's
// system prompt; empty means none.
func New(gen Generator, p *pipeline.Pipeline, system string) *Engine {
	return &Engine{gen: gen, pipe: p, system: system}
}

// StreamRun implements the streaming execution surface. The runID is
// accepted for interface compatibility; the engine always executes its own
// pipeline.
func (e *Engine) StreamRun(ctx context.Context, runID, input string) (io.ReadCloser, error) {
	pr, pw := io.Pipe()

	go func() {
		emit := func(f pipeline.Frame) bool {
			data, err := stream.EncodeFrame(f)
			if err != nil {
				logging.Error("failed to encode frame", "error", err)
				return false
			}
			_, err = pw.Write(data)
			return err == nil
		}

		final, err := e.execute(ctx, input, emit)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		emit(pipeline.Frame{Type: pipeline.FrameComplete, FinalOutput: final})
		pw.Write(stream.DoneLine())
		pw.Close()
	}()

	return pr, nil
}

// ExecuteInline implements the buffered execution surface.
func (e *Engine) ExecuteInline(ctx context.Context, req client.InlineRequest) (*client.InlineResponse, error) {
	var results []pipeline.StepResult
	final, err := e.execute(ctx, req.Input, func(f pipeline.Frame) bool {
		if f.Result != nil {
			results = append(results, *f.Result)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return &client.InlineResponse{Steps: results, FinalOutput: final}, nil
}

// execute runs the steps in order, emitting a frame per transition. The
// draft flows forward: each successful step's output becomes the next
// step's working text; a failed step is recorded and skipped over so later
// steps still run (matching the remote service's per-step failure
// semantics). The returned error is only ever the context's.
func (e *Engine) execute(ctx context.Context, input string, emit func(pipeline.Frame) bool) (string, error) {
	draft := input
	for _, step := range e.pipe.Steps {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !emit(pipeline.Frame{Type: pipeline.FrameStepStart, StepID: step.ID}) {
			return "", ctx.Err()
		}

		start := time.Now()
		output, err := e.gen.Generate(ctx, e.system, e.stepPrompt(step, draft))
		elapsed := time.Since(start).Milliseconds()

		result := pipeline.StepResult{
			StepID:     step.ID,
			StepName:   step.Name,
			Output:     output,
			DurationMs: elapsed,
		}

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			logging.Warn("step failed", "step", step.ID, "error", err)
			emit(pipeline.Frame{Type: pipeline.FrameStepError, StepID: step.ID, Result: &result, Error: err.Error()})
		case strings.TrimSpace(output) == "":
			emit(pipeline.Frame{Type: pipeline.FrameStepError, StepID: step.ID, Result: &result, Error: "model returned empty output"})
		default:
			result.ValidationPassed = true
			emit(pipeline.Frame{Type: pipeline.FrameStepComplete, StepID: step.ID, Result: &result})
			draft = output
		}
	}
	return draft, nil
}

// stepPrompt assembles the prompt for one step from its definition and the
// current draft.
func (e *Engine) stepPrompt(step pipeline.Step, draft string) string {
	var b strings.Builder
	if step.Actor != "" {
		fmt.Fprintf(&b, "You are acting as: %s\n\n", step.Actor)
	}
	instruction := step.Input
	if instruction == "" {
		instruction = step.Name
	}
	b.WriteString(instruction)
	if step.Output != "" {
		fmt.Fprintf(&b, "\n\nExpected output: %s", step.Output)
	}
	fmt.Fprintf(&b, "\n\n---\n\n%s", draft)
	return b.String()
}
