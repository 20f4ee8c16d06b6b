package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opensource-finance/kestrel/internal/api"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/rules"
)

var (
	serveHost       string
	servePort       int
	serveExtensions string
)

func getServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the validation HTTP server",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default from config/env)")
	cmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config/env)")
	cmd.Flags().StringVar(&serveExtensions, "rules", "", "Path to a YAML file of CEL extension rules")
	return cmd
}

// loadConfig builds the runtime configuration from defaults, KESTREL_* env
// vars, and flags, in increasing precedence.
func loadConfig() *domain.Config {
	cfg := domain.DefaultConfig()

	if host := os.Getenv("KESTREL_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("KESTREL_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if path := os.Getenv("KESTREL_RULES"); path != "" {
		cfg.Rules.ExtensionsPath = path
	}

	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveExtensions != "" {
		cfg.Rules.ExtensionsPath = serveExtensions
	}

	return cfg
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	slog.Info("starting kestrel",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	slog.Info("rule engine initialized",
		"builtin_checks", engine.BatteryLen(),
		"extension_rules", engine.ExtensionCount(),
	)

	srv := api.NewServer(cfg.Server, engine, Version)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	slog.Info("kestrel is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	slog.Info("kestrel stopped")
	return nil
}

// newEngine creates the rule engine and loads extension rules if configured.
func newEngine(cfg *domain.Config) (*rules.Engine, error) {
	engine, err := rules.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rule engine: %w", err)
	}
	if cfg.Rules.ExtensionsPath != "" {
		if err := engine.LoadExtensionsFile(cfg.Rules.ExtensionsPath); err != nil {
			return nil, err
		}
	}
	return engine, nil
}
