// Package cmd wires the command line interface. Each subcommand lives in
// its own file and registers itself with the root command in init().
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/happytree/happytree/internal/botanist"
	"github.com/happytree/happytree/internal/config"
	"github.com/happytree/happytree/internal/log"
	"github.com/happytree/happytree/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "happytree",
	Short: "Happy Tree Friends, a conversational plant care assistant",
	Long: `Happy Tree Friends is a conversational plant care assistant backed by
Google's Gemini models. It serves a small web chat where you can ask about
watering, light, soil and pests, and attach plant photos for diagnosis.

Running happytree without a subcommand starts the web interface.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe("")
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads configuration behind the credential gate.
func loadConfig() (*config.Config, error) {
	return gateConfig(os.Stderr)
}

// gateConfig loads configuration and stops on a missing credential. The
// setup instructions go to w before any server or agent exists, so a
// misconfigured start fails with guidance instead of a stack trace.
func gateConfig(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			fmt.Fprintln(w, "Error: GOOGLE_API_KEY is not set")
			fmt.Fprintln(w, "")
			fmt.Fprintln(w, config.APIKeyInstructions)
			return nil, config.ErrMissingAPIKey
		}
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from configuration.
func newLogger(cfg *config.Config) log.Logger {
	return log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})
}

// agentFactory adapts botanist construction to the session layer. The
// factory runs lazily on the first turn and again whenever the credential
// changes.
func agentFactory(cfg *config.Config, logger log.Logger) session.Factory {
	return func(ctx context.Context, credential string) (session.Invoker, error) {
		return botanist.New(ctx, botanist.Config{
			APIKey:      credential,
			ModelName:   cfg.FullModelName(),
			Temperature: cfg.Temperature,
			Logger:      logger,
		})
	}
}
