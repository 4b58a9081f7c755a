package localexec

import "context"

// Generator produces one completion for a step prompt.
type Generator interface {
	// Name identifies the backing provider/model for logs and results.
	Name() string
	// Generate returns the model output for the given system prompt and
	// step prompt. Blocking; honors ctx cancellation.
	Generate(ctx context.Context, system, prompt string) (string, error)
}
