package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"quill/internal/pipeline"
)

func viewFor(state pipeline.RunState) RunView {
	p := &pipeline.Pipeline{
		Name: "blog-draft",
		Steps: []pipeline.Step{
			{ID: "research", Name: "Research", Order: 1},
			{ID: "outline", Name: "Outline", Order: 2},
		},
	}
	return RunView{
		title:  p.Name,
		steps:  p.Steps,
		state:  state,
		styles: DefaultStyles(),
	}
}

func TestViewShowsStepGlyphs(t *testing.T) {
	state := pipeline.NewRunState([]pipeline.Step{
		{ID: "research", Name: "Research"},
		{ID: "outline", Name: "Outline"},
	})
	state = state.Apply(pipeline.Frame{
		Type:   pipeline.FrameStepComplete,
		StepID: "research",
		Result: &pipeline.StepResult{StepID: "research", DurationMs: 1500, ValidationPassed: true},
	})

	out := viewFor(state).View()
	assert.Contains(t, out, "Running: blog-draft")
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "○")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "press q to stop")
}

func TestViewShowsStepError(t *testing.T) {
	state := pipeline.NewRunState([]pipeline.Step{
		{ID: "research", Name: "Research"},
		{ID: "outline", Name: "Outline"},
	})
	state = state.Apply(pipeline.Frame{
		Type:   pipeline.FrameStepError,
		StepID: "outline",
		Error:  "model refused",
	})

	out := viewFor(state).View()
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "model refused")
}

func TestViewTerminalLines(t *testing.T) {
	base := pipeline.NewRunState([]pipeline.Step{{ID: "research", Name: "Research"}})

	failed := base.Fail("connection reset")
	assert.Contains(t, viewFor(failed).View(), "run failed: connection reset")

	stopped := base.Cancel()
	assert.Contains(t, viewFor(stopped).View(), "stopped")

	done := base.Apply(pipeline.Frame{Type: pipeline.FrameComplete, FinalOutput: "draft"})
	assert.Contains(t, viewFor(done).View(), "done")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", formatDuration(250))
	assert.Equal(t, "2.3s", formatDuration(2300))
}
