package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/wardend/internal/catalog"
	"github.com/fyrsmithlabs/wardend/internal/config"
	"github.com/fyrsmithlabs/wardend/internal/decision"
	"github.com/fyrsmithlabs/wardend/internal/enforcement"
	"github.com/fyrsmithlabs/wardend/internal/events"
	"github.com/fyrsmithlabs/wardend/internal/httpapi"
	"github.com/fyrsmithlabs/wardend/internal/logging"
	"github.com/fyrsmithlabs/wardend/internal/mcp"
	"github.com/fyrsmithlabs/wardend/internal/orchestrator"
	"github.com/fyrsmithlabs/wardend/internal/provider"
	"github.com/fyrsmithlabs/wardend/internal/scopelock"
	"github.com/fyrsmithlabs/wardend/internal/services"
	"github.com/fyrsmithlabs/wardend/internal/store"
	"github.com/fyrsmithlabs/wardend/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wardend daemon",
	Long: `Start the wardend daemon: the MCP tool surface on stdio and the HTTP
health/metrics server.

Examples:
  # Start with defaults
  wardend serve

  # Start with an explicit config file
  wardend serve --config /etc/wardend/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

// runServe wires the full service stack and blocks until the context is
// cancelled or the MCP transport closes.
func runServe(ctx context.Context) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("starting wardend",
		zap.String("version", version),
		zap.String("store_path", cfg.Store.Path),
		zap.Int("http_port", cfg.Server.HTTPPort),
		zap.Duration("session_ttl", cfg.Enforcement.SessionTTL.Duration()))

	tel, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:         cfg.Telemetry.Enabled,
		Endpoint:        cfg.Telemetry.Endpoint,
		Protocol:        cfg.Telemetry.Protocol,
		Insecure:        cfg.Telemetry.Insecure,
		ServiceName:     "wardend",
		ServiceVersion:  version,
		ExportInterval:  cfg.Telemetry.ExportInterval.Duration(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration(),
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("store close failed", zap.Error(err))
		}
	}()

	registry, err := buildRegistry(cfg, st, logger)
	if err != nil {
		return err
	}

	mcpServer, err := mcp.NewServer(&mcp.Config{
		Name:    "wardend",
		Version: version,
		Logger:  logger,
	}, registry)
	if err != nil {
		return fmt.Errorf("create MCP server: %w", err)
	}

	httpServer, err := httpapi.NewServer(st, logger, &httpapi.Config{
		Host:    cfg.Server.HTTPHost,
		Port:    cfg.Server.HTTPPort,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("create HTTP server: %w", err)
	}

	httpErr := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
		close(httpErr)
	}()

	mcpDone := make(chan error, 1)
	go func() {
		mcpDone <- mcpServer.Run(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-httpErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case err := <-mcpDone:
		// Claude Code closing stdin ends the MCP session; treat it as a
		// normal shutdown unless the transport failed outright.
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("mcp server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}

	logger.Info("wardend shutdown complete")
	return runErr
}

// buildRegistry constructs every domain service over the shared store.
func buildRegistry(cfg *config.Config, st *store.Store, logger *zap.Logger) (services.Registry, error) {
	sink := events.NewLogSink(logger)
	journal := decision.NewLog(st)
	gate := enforcement.NewGate(st, catalog.NewStatic(), journal, sink, logger, cfg.Enforcement.SessionTTL.Duration())
	orch := orchestrator.New(st, sink, logger)
	scopes := scopelock.NewService(st, sink, logger)

	var prov provider.Provider
	if cfg.Provider.APIKey.IsSet() {
		llm, err := provider.NewOpenAI(cfg.Provider.Model, cfg.Provider.APIKey.Value(), logger)
		if err != nil {
			return nil, fmt.Errorf("create completion provider: %w", err)
		}
		prov = llm
	} else {
		logger.Warn("no provider api key configured; session_execute returns a canned completion")
		prov = &provider.Static{Response: "no completion provider configured"}
	}

	return services.NewRegistry(services.Options{
		Gate:         gate,
		Orchestrator: orch,
		Journal:      journal,
		Scopes:       scopes,
		Provider:     prov,
	}), nil
}
