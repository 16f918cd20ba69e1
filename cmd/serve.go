package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/happytree/happytree/internal/observability"
	"github.com/happytree/happytree/internal/session"
	"github.com/happytree/happytree/internal/web"
)

// flushTimeout bounds the final trace export during shutdown.
const flushTimeout = 5 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [addr]",
	Short: "Start the web interface",
	Long: `Start the HTTP server that hosts the chat interface.

The listen address comes from configuration (HAPPYTREE_ADDR) and can be
overridden with a positional argument or the --addr flag:

  happytree serve
  happytree serve :3000
  happytree serve --addr 127.0.0.1:3000`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" && len(args) > 0 {
			addr = args[0]
		}
		return runServe(addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (host:port)")
	rootCmd.AddCommand(serveCmd)
}

// runServe starts the web server and blocks until a signal arrives or the
// server fails. An empty addrOverride keeps the configured listen address.
func runServe(addrOverride string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	addr := cfg.Addr
	if addrOverride != "" {
		addr = addrOverride
	}
	if err := validateAddr(addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}

	logger := newLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	flushTraces, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		Environment: cfg.Telemetry.Environment,
		ServiceName: cfg.Telemetry.ServiceName,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), flushTimeout)
		defer flushCancel()
		if err := flushTraces(flushCtx); err != nil {
			logger.Warn("flushing traces failed", "error", err)
		}
	}()

	logger.Info("starting happytree",
		"version", AppVersion,
		"model", cfg.FullModelName(),
		"addr", addr,
	)

	sessions, err := session.NewManager(session.Config{
		Factory: agentFactory(cfg, logger),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}

	srv, err := web.NewServer(web.Config{
		Sessions:       sessions,
		Credential:     cfg.APIKey,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		return fmt.Errorf("creating web server: %w", err)
	}

	return srv.Run(ctx, addr)
}
