package runner

import (
	"context"
	"sync"

	"quill/internal/pipeline"
)

// Run is one in-flight (or finished) execution. State snapshots stream out
// on Updates; Wait blocks for the terminal state. Each snapshot is an
// independent value, safe to keep or inspect after later transitions.
type Run struct {
	updates chan pipeline.RunState
	cancel  context.CancelFunc
	done    chan struct{}

	mu    sync.Mutex
	final pipeline.RunState
	err   error
}

func newRun(cancel context.CancelFunc) *Run {
	return &Run{
		updates: make(chan pipeline.RunState, 16),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Updates returns the snapshot channel. It is closed when the run ends.
func (r *Run) Updates() <-chan pipeline.RunState {
	return r.updates
}

// Cancel stops the run at its next suspension point. Steps keep whatever
// status they had; nothing is rolled back. Safe to call more than once.
func (r *Run) Cancel() {
	r.cancel()
}

// Wait blocks until the run ends and returns the final state. The error is
// nil for a normal end, ErrRunCancelled for a user stop, and a
// RequestError/TransportError (or the precondition sentinels) otherwise.
func (r *Run) Wait() (pipeline.RunState, error) {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.final, r.err
}

// Finished reports whether the run has ended.
func (r *Run) Finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// emit delivers a snapshot unless the run's context is gone.
func (r *Run) emit(ctx context.Context, state pipeline.RunState) {
	select {
	case r.updates <- state:
	case <-ctx.Done():
	}
}

// finish records the terminal state and releases waiters.
func (r *Run) finish(state pipeline.RunState, err error) {
	r.mu.Lock()
	r.final = state
	r.err = err
	r.mu.Unlock()
	close(r.updates)
	close(r.done)
}
