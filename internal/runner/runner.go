package runner

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"quill/internal/client"
	"quill/internal/logging"
	"quill/internal/pipeline"
	"quill/internal/stream"
)

// Transport is the slice of the execution service the runner depends on.
// *client.Client implements it for the remote service; the local engine
// implements it in-process.
type Transport interface {
	StreamRun(ctx context.Context, runID, input string) (io.ReadCloser, error)
	ExecuteInline(ctx context.Context, req client.InlineRequest) (*client.InlineResponse, error)
}

// Options control how one run executes.
type Options struct {
	// ForceInline uses the buffered path even when the pipeline has a
	// persisted run id.
	ForceInline bool
	// Timeout, when positive, bounds the whole run. It fires through the
	// same path as Cancel.
	Timeout time.Duration
}

// Runner executes drafting pipelines. A pipeline with a persisted run id
// streams frames incrementally; one without falls back to a single
// buffered call. One run is active per Runner at a time: starting a new
// run cancels the previous one first.
type Runner struct {
	transport Transport

	mu     sync.Mutex
	active *Run
}

// New creates a runner on top of the given transport.
func New(transport Transport) *Runner {
	return &Runner{transport: transport}
}

// Run starts one execution and returns its handle. An empty (post-trim)
// input or an empty step list is a caller error: nothing is started and no
// state changes.
func (r *Runner) Run(ctx context.Context, p *pipeline.Pipeline, input string, opts Options) (*Run, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}
	if p == nil || len(p.Steps) == 0 {
		return nil, ErrNoSteps
	}

	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	run := newRun(cancel)

	r.mu.Lock()
	if r.active != nil && !r.active.Finished() {
		logging.Info("cancelling previous run before starting a new one")
		r.active.Cancel()
	}
	r.active = run
	r.mu.Unlock()

	streaming := p.RunID != "" && !opts.ForceInline
	go func() {
		defer cancel()
		if streaming {
			r.runStreaming(ctx, run, p, input)
		} else {
			r.runInline(ctx, run, p, input)
		}
	}()
	return run, nil
}

// runStreaming drives the SSE path: read chunks, frame lines, decode
// frames, fold them through the state machine, snapshot after every
// transition.
func (r *Runner) runStreaming(ctx context.Context, run *Run, p *pipeline.Pipeline, input string) {
	state := pipeline.NewRunState(p.Steps)
	run.emit(ctx, state)

	body, err := r.transport.StreamRun(ctx, p.RunID, input)
	if err != nil {
		if ctx.Err() != nil {
			run.finish(state.Cancel(), ErrRunCancelled)
			return
		}
		reqErr := asRequestError(err)
		state = state.Fail(reqErr.Message)
		run.emit(ctx, state)
		run.finish(state, reqErr)
		return
	}
	defer body.Close()

	var scanner stream.LineScanner
	buf := make([]byte, 8192)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, line := range scanner.Feed(buf[:n]) {
				frame, ok := stream.DecodeFrame(line)
				if !ok {
					continue
				}
				next := state.Apply(frame)
				if next.Completed && !state.Completed {
					logging.Debug("run completed", "pipeline", p.Name)
				}
				state = next
				run.emit(ctx, state)
			}
		}
		if readErr == nil {
			continue
		}
		if errors.Is(readErr, io.EOF) {
			// EOF without a completion frame is accepted as-is: the run
			// ends with whatever state accumulated and no run error.
			run.finish(state, nil)
			return
		}
		if ctx.Err() != nil {
			// An aborted read is the cancellation taking effect, not a
			// transport failure.
			run.finish(state.Cancel(), ErrRunCancelled)
			return
		}
		logging.Warn("stream read failed", "error", readErr)
		state = state.Fail(readErr.Error())
		run.emit(ctx, state)
		run.finish(state, &TransportError{Err: readErr})
		return
	}
}

// runInline drives the buffered path. Failure here is all-or-nothing:
// every step stays pending and only the run-level error is set.
func (r *Runner) runInline(ctx context.Context, run *Run, p *pipeline.Pipeline, input string) {
	state := pipeline.NewRunState(p.Steps)
	run.emit(ctx, state)

	resp, err := r.transport.ExecuteInline(ctx, client.InlineRequest{
		Persona: p.Persona,
		Steps:   p.Steps,
		Input:   input,
	})
	if err != nil {
		if ctx.Err() != nil {
			run.finish(state.Cancel(), ErrRunCancelled)
			return
		}
		reqErr := asRequestError(err)
		state = state.Fail(reqErr.Message)
		run.emit(ctx, state)
		run.finish(state, reqErr)
		return
	}

	state = state.ApplyBatch(resp.Steps, resp.FinalOutput)
	run.emit(ctx, state)
	run.finish(state, nil)
}

// asRequestError maps a transport-level failure on the initial request to
// the RequestError surfaced to callers, keeping the service's message when
// one was decoded.
func asRequestError(err error) *RequestError {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return &RequestError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return &RequestError{Message: err.Error()}
}
