// Package main provides the narrator CLI entry point.
// narrator turns per-participant session transcripts into one narrative summary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/session-narrator/internal/config"
	"github.com/nguyentantai21042004/session-narrator/internal/logger"
)

const defaultConfigFile = "config.yaml"

// Global flags and state.
var (
	cfgFile   string
	logLevel  string
	logFormat string

	// cfg holds the loaded configuration.
	cfg *config.Config
	// log is the shared logger, built from cfg and the flags.
	log logger.Logger
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "narrator",
		Short: "Turn session transcripts into one narrative summary",
		Long: `narrator merges per-participant transcripts of a recorded session, splits the
result into overlapping chunks and asks a local Ollama model (or Gemini) to
retell the session as a narrative.

COMMON WORKFLOWS:
  Check setup:     narrator health
  Transcribe:      narrator transcribe recordings/*.flac
  Summarize:       narrator summarize session/transcripts/*.txt
  Preview chunks:  narrator plan session/transcripts/*.txt
  Custom prompts:  narrator prompts --write prompts/`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			var err error
			cfg, err = loadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if logFormat != "" {
				cfg.Logging.Format = logFormat
			}
			log = logger.NewWithOptions(logger.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Output: os.Stderr,
			})
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default ./config.yaml if present)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")

	root.AddCommand(
		NewSummarizeCommand(),
		NewPlanCommand(),
		NewHealthCommand(),
		NewPromptsCommand(),
		NewTranscribeCommand(),
	)
	return root
}

// loadConfig reads path, or ./config.yaml when it exists, or falls back to the
// built-in defaults plus environment overrides.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			c := config.Default()
			c.ApplyEnv()
			if err := c.Validate(); err != nil {
				return nil, err
			}
			return c, nil
		}
		path = defaultConfigFile
	}
	return config.Load(path)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		stop()
		os.Exit(1)
	}
}
