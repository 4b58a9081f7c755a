package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quill/internal/config"
	"quill/internal/logging"
)

var version = "0.1.0"

var cfg *config.Config

func main() {
	rootCmd := &cobra.Command{
		Use:   "quill",
		Short: "AI-assisted document drafting pipelines",
		Long: `Quill runs multi-step drafting pipelines against an execution
service or a local model. Define steps and a persona in YAML, capture
context from files, URLs, or remote hosts, and watch the draft evolve
step by step.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Logging.File {
				if dir := config.ConfigDir(); dir != "" {
					if err := logging.EnableFileLogging(dir, logging.Level(cfg.Logging.Level)); err != nil {
						return fmt.Errorf("failed to enable logging: %w", err)
					}
				}
			}
			return nil
		},
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newProvokeCmd())
	rootCmd.AddCommand(newPersonasCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("quill version %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
