package localexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill/internal/client"
	"quill/internal/pipeline"
	"quill/internal/stream"
)

// scriptedGenerator returns canned outputs in call order and records the
// prompts it saw.
type scriptedGenerator struct {
	outputs []string
	errs    []error
	prompts []string
	systems []string
	calls   int
}

func (g *scriptedGenerator) Name() string { return "scripted" }

func (g *scriptedGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	i := g.calls
	g.calls++
	g.prompts = append(g.prompts, prompt)
	g.systems = append(g.systems, system)
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.outputs) {
		return g.outputs[i], nil
	}
	return "", fmt.Errorf("unexpected call %d", i)
}

func twoStepPipeline() *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Name:  "blog-draft",
		RunID: "local-run",
		Steps: []pipeline.Step{
			{ID: "outline", Name: "Outline", Order: 1, Input: "Produce an outline.", Actor: "editor"},
			{ID: "draft", Name: "Draft", Order: 2, Input: "Write the draft."},
		},
	}
}

func decodeStream(t *testing.T, body io.ReadCloser) []pipeline.Frame {
	t.Helper()
	defer body.Close()
	raw, err := io.ReadAll(body)
	require.NoError(t, err)

	var s stream.LineScanner
	var frames []pipeline.Frame
	for _, line := range s.Feed(raw) {
		if f, ok := stream.DecodeFrame(line); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

func TestStreamRunEmitsFrameSequence(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{"1. intro\n2. body", "full draft text"}}
	eng := New(gen, twoStepPipeline(), "be concise")

	body, err := eng.StreamRun(context.Background(), "local-run", "write about go")
	require.NoError(t, err)

	frames := decodeStream(t, body)
	require.Len(t, frames, 5)
	assert.Equal(t, pipeline.FrameStepStart, frames[0].Type)
	assert.Equal(t, "outline", frames[0].StepID)
	assert.Equal(t, pipeline.FrameStepComplete, frames[1].Type)
	require.NotNil(t, frames[1].Result)
	assert.True(t, frames[1].Result.ValidationPassed)
	assert.Equal(t, pipeline.FrameStepStart, frames[2].Type)
	assert.Equal(t, "draft", frames[2].StepID)
	assert.Equal(t, pipeline.FrameStepComplete, frames[3].Type)
	assert.Equal(t, pipeline.FrameComplete, frames[4].Type)
	assert.Equal(t, "full draft text", frames[4].FinalOutput)

	// The draft flows forward: step two's prompt carries step one's output.
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[0], "You are acting as: editor")
	assert.Contains(t, gen.prompts[0], "write about go")
	assert.Contains(t, gen.prompts[1], "1. intro")
	assert.Equal(t, []string{"be concise", "be concise"}, gen.systems)
}

func TestStreamRunStepErrorDoesNotStopRun(t *testing.T) {
	gen := &scriptedGenerator{
		outputs: []string{"", "recovered draft"},
		errs:    []error{errors.New("model refused"), nil},
	}
	eng := New(gen, twoStepPipeline(), "")

	body, err := eng.StreamRun(context.Background(), "local-run", "topic")
	require.NoError(t, err)

	frames := decodeStream(t, body)
	require.Len(t, frames, 5)
	assert.Equal(t, pipeline.FrameStepError, frames[1].Type)
	assert.Equal(t, "model refused", frames[1].Error)
	assert.Equal(t, pipeline.FrameStepComplete, frames[3].Type)
	// The failed step contributed nothing, so the draft flowing into
	// the final output comes from the surviving step.
	assert.Equal(t, "recovered draft", frames[4].FinalOutput)
}

func TestStreamRunEmptyOutputIsStepError(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{"  \n ", "draft"}}
	eng := New(gen, twoStepPipeline(), "")

	body, err := eng.StreamRun(context.Background(), "local-run", "topic")
	require.NoError(t, err)

	frames := decodeStream(t, body)
	require.Len(t, frames, 5)
	assert.Equal(t, pipeline.FrameStepError, frames[1].Type)
	assert.Equal(t, "model returned empty output", frames[1].Error)
}

func TestStreamRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &scriptedGenerator{outputs: []string{"a", "b"}}
	eng := New(gen, twoStepPipeline(), "")

	body, err := eng.StreamRun(ctx, "local-run", "topic")
	require.NoError(t, err)
	defer body.Close()

	_, err = io.ReadAll(body)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, gen.calls)
}

func TestExecuteInline(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{"outline text", "draft text"}}
	eng := New(gen, twoStepPipeline(), "")

	resp, err := eng.ExecuteInline(context.Background(), client.InlineRequest{Input: "topic"})
	require.NoError(t, err)
	require.Len(t, resp.Steps, 2)
	assert.Equal(t, "outline", resp.Steps[0].StepID)
	assert.True(t, resp.Steps[0].ValidationPassed)
	assert.Equal(t, "draft text", resp.FinalOutput)
}

func TestExecuteInlineCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := New(&scriptedGenerator{}, twoStepPipeline(), "")
	_, err := eng.ExecuteInline(ctx, client.InlineRequest{Input: "topic"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStepPromptFallsBackToName(t *testing.T) {
	eng := New(&scriptedGenerator{}, twoStepPipeline(), "")
	prompt := eng.stepPrompt(pipeline.Step{ID: "x", Name: "Polish the prose", Output: "markdown"}, "current draft")
	assert.True(t, strings.Contains(prompt, "Polish the prose"))
	assert.Contains(t, prompt, "Expected output: markdown")
	assert.Contains(t, prompt, "current draft")
}
