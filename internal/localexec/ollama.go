package localexec

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"quill/internal/logging"
)

// OllamaGenerator runs steps against a local or remote Ollama server.
type OllamaGenerator struct {
	client *api.Client
	model  string
}

// NewOllamaGenerator creates a generator for the given Ollama server and
// model. baseURL defaults to the standard local server.
func NewOllamaGenerator(baseURL, model string, timeout time.Duration) (*OllamaGenerator, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama model name is required (see 'ollama list')")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL %q: %w", baseURL, err)
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaGenerator{
		client: api.NewClient(u, &http.Client{Timeout: timeout}),
		model:  model,
	}, nil
}

func (g *OllamaGenerator) Name() string {
	return "ollama/" + g.model
}

func (g *OllamaGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	var messages []api.Message
	if system != "" {
		messages = append(messages, api.Message{Role: "system", Content: system})
	}
	messages = append(messages, api.Message{Role: "user", Content: prompt})

	streaming := false
	req := &api.ChatRequest{
		Model:    g.model,
		Messages: messages,
		Stream:   &streaming,
	}

	var out strings.Builder
	err := g.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}
	logging.Debug("ollama step generated", "model", g.model, "chars", out.Len())
	return out.String(), nil
}
