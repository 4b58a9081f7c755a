package pipeline

import "maps"

// StepStatus is the lifecycle state of one step within a run.
type StepStatus string

const (
	StatusPending  StepStatus = "pending"
	StatusRunning  StepStatus = "running"
	StatusComplete StepStatus = "complete"
	StatusError    StepStatus = "error"
)

// Terminal reports whether the status is a final state for a step.
func (s StepStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// StepResult carries the outcome of one executed step.
// Error is set iff the step's terminal status is StatusError.
type StepResult struct {
	StepID           string `json:"stepId"`
	StepName         string `json:"stepName"`
	Output           string `json:"output"`
	DurationMs       int64  `json:"durationMs"`
	ValidationPassed bool   `json:"validationPassed"`
	Error            string `json:"error,omitempty"`
}

// RunState is the aggregate state of one run. It is treated as an immutable
// value: Apply and the other transition methods return a new state and never
// mutate the receiver, so snapshots handed to observers are safe to keep.
type RunState struct {
	// Statuses holds one entry per known step id for the whole run.
	Statuses map[string]StepStatus
	// Results holds an entry iff the step's status is terminal.
	Results map[string]StepResult
	// Expanded marks steps for default-expanded display. Presentation
	// hint only, carried here so one snapshot drives the whole view.
	Expanded map[string]bool

	// FinalOutput is set once, by the run-level completion frame.
	FinalOutput string
	// Completed reports whether the completion frame was seen.
	Completed bool
	// RunErr is a run-level failure (transport or request), never a
	// per-step error.
	RunErr string
	// Cancelled reports a user-initiated stop. Distinct from RunErr.
	Cancelled bool
}

// NewRunState builds the initial state for a run: every step pending,
// no results, no output.
func NewRunState(steps []Step) RunState {
	statuses := make(map[string]StepStatus, len(steps))
	for _, s := range steps {
		statuses[s.ID] = StatusPending
	}
	return RunState{
		Statuses: statuses,
		Results:  make(map[string]StepResult),
		Expanded: make(map[string]bool),
	}
}

func (rs RunState) clone() RunState {
	rs.Statuses = maps.Clone(rs.Statuses)
	rs.Results = maps.Clone(rs.Results)
	rs.Expanded = maps.Clone(rs.Expanded)
	return rs
}

// Fail returns a copy of the state carrying a run-level error message.
func (rs RunState) Fail(msg string) RunState {
	next := rs.clone()
	next.RunErr = msg
	return next
}

// Cancel returns a copy of the state marked as user-cancelled. Step
// statuses are left exactly as they were; nothing is rolled back.
func (rs RunState) Cancel() RunState {
	next := rs.clone()
	next.Cancelled = true
	return next
}

// StepCounts returns how many steps are in each status bucket.
func (rs RunState) StepCounts() (pending, running, complete, failed int) {
	for _, st := range rs.Statuses {
		switch st {
		case StatusPending:
			pending++
		case StatusRunning:
			running++
		case StatusComplete:
			complete++
		case StatusError:
			failed++
		}
	}
	return
}
