package pipeline

// Frame type discriminators emitted by the execution service.
const (
	FrameStepStart    = "step-start"
	FrameStepComplete = "step-complete"
	FrameStepError    = "step-error"
	FrameComplete     = "execution-complete"
)

// Frame is one decoded event from the execution stream. Which fields are
// populated depends on Type.
type Frame struct {
	Type        string      `json:"type"`
	StepID      string      `json:"stepId,omitempty"`
	Result      *StepResult `json:"result,omitempty"`
	Error       string      `json:"error,omitempty"`
	FinalOutput string      `json:"finalOutput,omitempty"`
}

// Apply is the run state machine: it returns the state that results from
// one frame. Frames arriving after the completion frame are ignored, as are
// frames for step ids the run does not know (a misbehaving service must not
// conjure steps into existence) and frame types this version does not
// understand.
func (rs RunState) Apply(f Frame) RunState {
	if rs.Completed {
		return rs
	}

	switch f.Type {
	case FrameStepStart:
		if _, known := rs.Statuses[f.StepID]; !known {
			return rs
		}
		next := rs.clone()
		next.Statuses[f.StepID] = StatusRunning
		return next

	case FrameStepComplete:
		if _, known := rs.Statuses[f.StepID]; !known {
			return rs
		}
		result := StepResult{}
		if f.Result != nil {
			result = *f.Result
		}
		if result.StepID == "" {
			result.StepID = f.StepID
		}
		next := rs.clone()
		next.Statuses[f.StepID] = StatusComplete
		next.Results[f.StepID] = result
		next.Expanded[f.StepID] = true
		return next

	case FrameStepError:
		if _, known := rs.Statuses[f.StepID]; !known {
			return rs
		}
		result := StepResult{}
		if f.Result != nil {
			result = *f.Result
		}
		if result.StepID == "" {
			result.StepID = f.StepID
		}
		result.Error = f.Error
		next := rs.clone()
		next.Statuses[f.StepID] = StatusError
		next.Results[f.StepID] = result
		return next

	case FrameComplete:
		next := rs.clone()
		next.FinalOutput = f.FinalOutput
		next.Completed = true
		return next

	default:
		// Unknown frame type: skip for forward compatibility.
		return rs
	}
}

// ApplyBatch applies the result of a buffered (non-streaming) execution:
// every carried result lands at once, complete or error depending on its
// validation flag, and the final output is set.
func (rs RunState) ApplyBatch(results []StepResult, finalOutput string) RunState {
	next := rs.clone()
	for _, r := range results {
		if _, known := next.Statuses[r.StepID]; !known {
			continue
		}
		if r.ValidationPassed {
			next.Statuses[r.StepID] = StatusComplete
		} else {
			next.Statuses[r.StepID] = StatusError
			if r.Error == "" {
				r.Error = "step validation failed"
			}
		}
		next.Results[r.StepID] = r
	}
	next.FinalOutput = finalOutput
	next.Completed = true
	return next
}
