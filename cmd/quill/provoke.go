package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"quill/internal/config"
	"quill/internal/gather"
	"quill/internal/persona"
)

func newProvokeCmd() *cobra.Command {
	var flags runFlags
	var personaName string

	cmd := &cobra.Command{
		Use:   "provoke <document>",
		Short: "Get a persona-driven critique of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := persona.NewStore(config.PersonasDir())
			pe, err := store.Get(personaName)
			if err != nil {
				return err
			}

			doc, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p := persona.ProvocationPipeline(pe)
			g := gather.New(gather.Options{
				MaxFileSize: cfg.Context.MaxFileSize,
				HTTPTimeout: cfg.Context.HTTPTimeout,
			})
			return executeOnce(ctx, p, string(doc), g, flags)
		},
	}

	cmd.Flags().StringVarP(&personaName, "persona", "p", "editor", "persona delivering the critique")
	cmd.Flags().BoolVar(&flags.local, "local", false, "execute locally against an LLM provider instead of the service")
	cmd.Flags().StringVar(&flags.provider, "provider", "", "local provider: ollama or gemini")
	cmd.Flags().StringVar(&flags.model, "model", "", "model for local execution")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "write the critique to a file")
	cmd.Flags().BoolVar(&flags.copyOut, "copy", false, "copy the critique to the clipboard")
	cmd.Flags().BoolVar(&flags.plain, "plain", false, "plain line output instead of the live view")

	return cmd
}
