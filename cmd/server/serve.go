package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/YuarenArt/peerjam/internal/config"
	"github.com/YuarenArt/peerjam/internal/iceconfig"
	"github.com/YuarenArt/peerjam/internal/logging"
	"github.com/YuarenArt/peerjam/internal/presence"
	"github.com/YuarenArt/peerjam/internal/server"
	"github.com/YuarenArt/peerjam/pkg/signaling"
	"github.com/YuarenArt/peerjam/pkg/websocket"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signaling server",
	Long: `Run the signaling server.

Every flag can also be set through its environment variable, which takes
precedence (PORT, LOG_LEVEL, ALLOWED_ORIGINS, REDIS_ADDR, ...).

Examples:
  peerjam serve --port 9000
  REDIS_ADDR=localhost:6379 peerjam serve --ice-config ice.toml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	level := logging.ParseLevel(cfg.LogLevel)
	logger, err := logging.NewFileLogger(cfg.LogFile, true, level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	apiLogger, err := logging.NewFileLogger(filepath.Join(filepath.Dir(cfg.LogFile), "api.log"), false, level)
	if err != nil {
		return fmt.Errorf("failed to initialize API logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	taskPool, err := websocket.NewTaskPool(cfg.TaskPoolSize)
	if err != nil {
		logger.Error(ctx, "Failed to initialize task pool", "error", err.Error())
		return fmt.Errorf("failed to initialize task pool: %w", err)
	}

	iceServers, err := iceconfig.Load(cfg.ICEConfigPath)
	if err != nil {
		taskPool.Release()
		return err
	}

	metrics := server.NewMetrics()
	observers := signaling.Observers{metrics}

	var mirror *presence.Mirror
	if cfg.PresenceEnabled() {
		client, err := presence.Connect(cfg.Redis)
		if err != nil {
			metrics.Stop()
			taskPool.Release()
			return err
		}
		defer client.Close()

		mirror = presence.NewMirror(client, cfg.Redis.PresenceTTL, logger.With("component", "presence"))
		if err := mirror.Start(taskPool); err != nil {
			metrics.Stop()
			taskPool.Release()
			return fmt.Errorf("failed to start presence mirror: %w", err)
		}
		observers = append(observers, mirror)
		logger.Info(ctx, "Presence mirror enabled", "redis_addr", cfg.Redis.Addr)
	}

	hub := websocket.NewHub(metrics)
	router := signaling.NewRouter(hub,
		signaling.WithObserver(observers),
		signaling.WithLogger(logger.With("component", "signaling")),
	)
	wsHandler := websocket.NewHandler(hub, router, taskPool,
		websocket.WithAllowedOrigins(cfg.AllowedOrigins),
		websocket.WithSendBuffer(cfg.SendBuffer),
		websocket.WithHandlerLogger(logger.With("component", "transport")),
		websocket.WithMetrics(metrics),
	)
	srv := server.NewServer(cfg, wsHandler, metrics, logger,
		server.WithAPILogger(apiLogger),
		server.WithICEServers(iceServers),
	)

	runErr := srv.Run(ctx)
	if runErr != nil {
		logger.Error(ctx, "Server failed", "error", runErr.Error())
	}

	logger.Info(ctx, "Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Server forced to shutdown", "error", err.Error())
	}
	if mirror != nil {
		mirror.Close()
	}

	logger.Info(shutdownCtx, "Server exited")
	return runErr
}
