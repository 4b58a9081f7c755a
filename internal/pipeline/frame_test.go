package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoSteps() []Step {
	return []Step{
		{ID: "research", Name: "Research", Order: 1},
		{ID: "outline", Name: "Outline", Order: 2},
	}
}

func TestApplyHappyPath(t *testing.T) {
	state := NewRunState(twoSteps())
	assert.Equal(t, StatusPending, state.Statuses["research"])
	assert.Equal(t, StatusPending, state.Statuses["outline"])

	state = state.Apply(Frame{Type: FrameStepStart, StepID: "research"})
	assert.Equal(t, StatusRunning, state.Statuses["research"])
	assert.Equal(t, StatusPending, state.Statuses["outline"])

	state = state.Apply(Frame{
		Type:   FrameStepComplete,
		StepID: "research",
		Result: &StepResult{StepID: "research", Output: "facts", DurationMs: 120, ValidationPassed: true},
	})
	assert.Equal(t, StatusComplete, state.Statuses["research"])
	assert.Equal(t, "facts", state.Results["research"].Output)
	assert.True(t, state.Expanded["research"])

	state = state.Apply(Frame{Type: FrameStepStart, StepID: "outline"})
	state = state.Apply(Frame{
		Type:   FrameStepComplete,
		StepID: "outline",
		Result: &StepResult{StepID: "outline", Output: "1. intro", ValidationPassed: true},
	})
	state = state.Apply(Frame{Type: FrameComplete, FinalOutput: "the draft"})

	assert.True(t, state.Completed)
	assert.Equal(t, "the draft", state.FinalOutput)
	_, _, complete, failed := state.StepCounts()
	assert.Equal(t, 2, complete)
	assert.Zero(t, failed)
}

func TestApplyIsDeterministic(t *testing.T) {
	frames := []Frame{
		{Type: FrameStepStart, StepID: "research"},
		{Type: FrameStepComplete, StepID: "research", Result: &StepResult{Output: "a", ValidationPassed: true}},
		{Type: FrameStepStart, StepID: "outline"},
		{Type: FrameStepError, StepID: "outline", Error: "model refused"},
		{Type: FrameComplete, FinalOutput: "partial"},
	}

	run := func() RunState {
		s := NewRunState(twoSteps())
		for _, f := range frames {
			s = s.Apply(f)
		}
		return s
	}

	assert.Equal(t, run(), run())
}

func TestApplyIgnoresUnknownStep(t *testing.T) {
	state := NewRunState(twoSteps())
	next := state.Apply(Frame{Type: FrameStepStart, StepID: "ghost"})
	assert.Equal(t, state, next)
	next = next.Apply(Frame{Type: FrameStepComplete, StepID: "ghost", Result: &StepResult{Output: "x"}})
	assert.Equal(t, state, next)
	assert.NotContains(t, next.Statuses, "ghost")
}

func TestApplyIgnoresUnknownFrameType(t *testing.T) {
	state := NewRunState(twoSteps())
	next := state.Apply(Frame{Type: "step-progress", StepID: "research"})
	assert.Equal(t, state, next)
}

func TestApplyIgnoresFramesAfterCompletion(t *testing.T) {
	state := NewRunState(twoSteps())
	state = state.Apply(Frame{Type: FrameComplete, FinalOutput: "done"})
	require.True(t, state.Completed)

	next := state.Apply(Frame{Type: FrameStepStart, StepID: "research"})
	assert.Equal(t, state, next)
	assert.Equal(t, StatusPending, next.Statuses["research"])
}

func TestApplyStepErrorCarriesResult(t *testing.T) {
	state := NewRunState(twoSteps())
	state = state.Apply(Frame{
		Type:   FrameStepError,
		StepID: "outline",
		Error:  "generation timed out",
		Result: &StepResult{Output: "half an outline", DurationMs: 900},
	})

	assert.Equal(t, StatusError, state.Statuses["outline"])
	r := state.Results["outline"]
	assert.Equal(t, "outline", r.StepID)
	assert.Equal(t, "generation timed out", r.Error)
	assert.Equal(t, "half an outline", r.Output)
}

func TestApplyDefaultsResultStepID(t *testing.T) {
	state := NewRunState(twoSteps())
	state = state.Apply(Frame{Type: FrameStepComplete, StepID: "research"})
	assert.Equal(t, "research", state.Results["research"].StepID)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	initial := NewRunState(twoSteps())
	after := initial.Apply(Frame{Type: FrameStepStart, StepID: "research"})
	after = after.Apply(Frame{Type: FrameStepComplete, StepID: "research", Result: &StepResult{Output: "x"}})

	// Snapshots handed out earlier must not change under later frames.
	assert.Equal(t, StatusPending, initial.Statuses["research"])
	assert.Empty(t, initial.Results)
	assert.Equal(t, StatusComplete, after.Statuses["research"])
}

func TestApplyBatch(t *testing.T) {
	state := NewRunState(twoSteps())
	state = state.ApplyBatch([]StepResult{
		{StepID: "research", Output: "facts", ValidationPassed: true},
		{StepID: "outline", Output: "weak outline", ValidationPassed: false},
		{StepID: "ghost", Output: "stray"},
	}, "final draft")

	assert.True(t, state.Completed)
	assert.Equal(t, "final draft", state.FinalOutput)
	assert.Equal(t, StatusComplete, state.Statuses["research"])
	assert.Equal(t, StatusError, state.Statuses["outline"])
	assert.Equal(t, "step validation failed", state.Results["outline"].Error)
	assert.NotContains(t, state.Statuses, "ghost")
}

func TestFailAndCancelPreserveStepState(t *testing.T) {
	state := NewRunState(twoSteps())
	state = state.Apply(Frame{Type: FrameStepComplete, StepID: "research", Result: &StepResult{ValidationPassed: true}})

	failed := state.Fail("connection reset")
	assert.Equal(t, "connection reset", failed.RunErr)
	assert.Equal(t, StatusComplete, failed.Statuses["research"])

	stopped := state.Cancel()
	assert.True(t, stopped.Cancelled)
	assert.Empty(t, stopped.RunErr)
	assert.Equal(t, StatusComplete, stopped.Statuses["research"])
}
