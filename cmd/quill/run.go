package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"quill/internal/gather"
	"quill/internal/pipeline"
	"quill/internal/runner"
	"quill/internal/ui"
	"quill/internal/watcher"
)

type runFlags struct {
	input       string
	inputFile   string
	contexts    []string
	noStream    bool
	local       bool
	provider    string
	model       string
	out         string
	copyOut     bool
	diffAgainst string
	watch       bool
	plain       bool
}

func newRunCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run <pipeline.yaml>",
		Short: "Run a drafting pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "input text for the run")
	cmd.Flags().StringVarP(&flags.inputFile, "input-file", "f", "", "file to read the input from")
	cmd.Flags().StringArrayVarP(&flags.contexts, "context", "c", nil, "context source: glob, URL, or sftp:// (repeatable)")
	cmd.Flags().BoolVar(&flags.noStream, "no-stream", false, "use the buffered execution path even for persisted pipelines")
	cmd.Flags().BoolVar(&flags.local, "local", false, "execute locally against an LLM provider instead of the service")
	cmd.Flags().StringVar(&flags.provider, "provider", "", "local provider: ollama or gemini")
	cmd.Flags().StringVar(&flags.model, "model", "", "model for local execution")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "write the final draft to a file")
	cmd.Flags().BoolVar(&flags.copyOut, "copy", false, "copy the final draft to the clipboard")
	cmd.Flags().StringVar(&flags.diffAgainst, "diff-against", "", "show a diff against a previous revision file")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "re-run when local context files change")
	cmd.Flags().BoolVar(&flags.plain, "plain", false, "plain line output instead of the live view")

	return cmd
}

func runPipeline(path string, flags runFlags) error {
	p, err := pipeline.Load(path)
	if err != nil {
		return err
	}
	input, err := resolveInput(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g := gather.New(gather.Options{
		MaxFileSize: cfg.Context.MaxFileSize,
		HTTPTimeout: cfg.Context.HTTPTimeout,
	})

	if !flags.watch {
		return executeOnce(ctx, p, input, g, flags)
	}

	// Watch mode: run, then wait for a context change and run again.
	paths, err := g.LocalPaths(flags.contexts)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("--watch needs at least one local --context file")
	}

	for {
		if err := executeOnce(ctx, p, input, g, flags); err != nil {
			// A failed run should not end watch mode.
			fmt.Fprintln(os.Stderr, "Error:", err)
		}

		changed := make(chan struct{}, 1)
		w, err := watcher.New(paths, cfg.Watcher.DebounceMs, func([]string) {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
		if err != nil {
			return err
		}
		w.Start()

		fmt.Fprintln(os.Stderr, "watching context files; ctrl+c to exit")
		select {
		case <-changed:
			w.Stop()
		case <-ctx.Done():
			w.Stop()
			return nil
		}
	}
}

func executeOnce(ctx context.Context, p *pipeline.Pipeline, input string, g *gather.Gatherer, flags runFlags) error {
	full := input
	if len(flags.contexts) > 0 {
		ctxText, err := g.Collect(ctx, flags.contexts)
		if err != nil {
			return err
		}
		if ctxText != "" {
			full = ctxText + "\n" + input
		}
	}

	transport, err := buildTransport(ctx, p, flags)
	if err != nil {
		return err
	}

	r := runner.New(transport)
	run, err := r.Run(ctx, p, full, runner.Options{
		ForceInline: flags.noStream,
		Timeout:     cfg.Run.Timeout,
	})
	if err != nil {
		return err
	}

	var final pipeline.RunState
	if flags.plain || cfg.Output.Plain {
		final, err = consumePlain(p, run)
	} else {
		if _, teaErr := tea.NewProgram(ui.NewRunView(p, run)).Run(); teaErr != nil {
			run.Cancel()
			return teaErr
		}
		final, err = run.Wait()
	}

	if err != nil {
		if runner.IsCancelled(err) {
			fmt.Fprintln(os.Stderr, "stopped")
			return nil
		}
		return err
	}
	return deliverOutput(final, flags)
}

// consumePlain prints one line per step transition, for pipes and CI.
func consumePlain(p *pipeline.Pipeline, run *runner.Run) (pipeline.RunState, error) {
	last := make(map[string]pipeline.StepStatus, len(p.Steps))
	for state := range run.Updates() {
		for _, s := range p.Steps {
			status := state.Statuses[s.ID]
			if status == last[s.ID] {
				continue
			}
			last[s.ID] = status
			switch status {
			case pipeline.StatusRunning:
				fmt.Fprintf(os.Stderr, "▸ %s...\n", s.Name)
			case pipeline.StatusComplete:
				result := state.Results[s.ID]
				fmt.Fprintf(os.Stderr, "✓ %s (%dms)\n", s.Name, result.DurationMs)
			case pipeline.StatusError:
				result := state.Results[s.ID]
				fmt.Fprintf(os.Stderr, "✗ %s: %s\n", s.Name, result.Error)
			}
		}
	}
	return run.Wait()
}

func resolveInput(flags runFlags) (string, error) {
	if flags.input != "" {
		return flags.input, nil
	}
	if flags.inputFile != "" {
		data, err := os.ReadFile(flags.inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("provide --input or --input-file")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
