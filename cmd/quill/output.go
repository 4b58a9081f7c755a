package main

import (
	"context"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"

	"quill/internal/client"
	"quill/internal/config"
	"quill/internal/localexec"
	"quill/internal/logging"
	"quill/internal/persona"
	"quill/internal/pipeline"
	"quill/internal/runner"
	"quill/internal/ui"
)

// buildTransport picks the execution backend: the remote service by
// default, an in-process engine with --local.
func buildTransport(ctx context.Context, p *pipeline.Pipeline, flags runFlags) (runner.Transport, error) {
	if flags.local {
		system := ""
		if p.Persona != "" {
			store := persona.NewStore(config.PersonasDir())
			pe, err := store.Get(p.Persona)
			if err != nil {
				logging.Warn("persona not found, running without a system prompt", "persona", p.Persona)
			} else {
				system = pe.SystemPrompt
			}
		}
		gen, err := buildGenerator(ctx, flags)
		if err != nil {
			return nil, err
		}
		// Local runs always stream; mint a run id so the streaming
		// path is selected.
		if p.RunID == "" {
			p.RunID = uuid.NewString()
		}
		return localexec.New(gen, p, system), nil
	}

	if err := cfg.ValidateRemote(); err != nil {
		return nil, err
	}
	return client.New(client.Config{
		BaseURL:     cfg.Service.BaseURL,
		APIKey:      cfg.Service.APIKey,
		HTTPTimeout: cfg.Service.HTTPTimeout,
		Retry: client.RetryConfig{
			MaxRetries: cfg.Service.Retry.MaxRetries,
			RetryDelay: cfg.Service.Retry.RetryDelay,
			MaxDelay:   cfg.Service.Retry.MaxDelay,
		},
	}), nil
}

func buildGenerator(ctx context.Context, flags runFlags) (localexec.Generator, error) {
	provider := firstNonEmpty(flags.provider, cfg.Local.Provider)
	model := firstNonEmpty(flags.model, cfg.Local.Model)

	switch provider {
	case "ollama":
		return localexec.NewOllamaGenerator(cfg.Local.OllamaBaseURL, model, cfg.Service.HTTPTimeout)
	case "gemini":
		return localexec.NewGeminiGenerator(ctx, cfg.Local.GeminiKey, model)
	default:
		return nil, fmt.Errorf("unknown local provider %q (want ollama or gemini)", provider)
	}
}

// deliverOutput renders, diffs, writes, and copies the final draft
// according to the flags.
func deliverOutput(final pipeline.RunState, flags runFlags) error {
	if !final.Completed {
		// The stream ended without a completion frame; whatever step
		// results arrived were already shown.
		fmt.Fprintln(os.Stderr, "run ended without a final draft")
		return nil
	}
	output := final.FinalOutput

	if flags.diffAgainst != "" {
		prev, err := os.ReadFile(flags.diffAgainst)
		if err != nil {
			return fmt.Errorf("failed to read previous revision: %w", err)
		}
		fmt.Print(ui.RenderDiff(string(prev), output))
	}

	if flags.out != "" {
		if err := os.WriteFile(flags.out, []byte(output), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", flags.out)
	} else if flags.diffAgainst == "" {
		if flags.plain || cfg.Output.Plain {
			fmt.Print(ui.RenderPlain(output))
		} else {
			fmt.Print(ui.RenderMarkdown(output, cfg.Output.Theme))
		}
	}

	if flags.copyOut {
		if err := clipboard.WriteAll(output); err != nil {
			logging.Warn("failed to copy to clipboard", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, "copied to clipboard")
		}
	}

	return nil
}
