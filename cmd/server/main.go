// Package main provides the server entry point for the DeFi dashboard tools.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/defi-dashboard/internal/api"
	"github.com/defi-dashboard/internal/catalog"
	"github.com/defi-dashboard/internal/circuitbreaker"
	"github.com/defi-dashboard/internal/config"
	"github.com/defi-dashboard/internal/logging"
	"github.com/defi-dashboard/internal/mcpserver"
	"github.com/defi-dashboard/internal/metrics"
	"github.com/defi-dashboard/internal/retry"
	"github.com/defi-dashboard/internal/service"
	"github.com/defi-dashboard/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server exited with error")
	}
	logger.Info("Server exited")
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data := catalog.Default()
	logger.WithField("chains", data.ChainNames()).Info("Stub catalog loaded")

	// Usage counters: Redis when configured, process memory otherwise
	var usage storage.UsageStore
	if cfg.Redis.Enabled() {
		redis, err := storage.ConnectRedis(logging.WithLogger(ctx, logger), &cfg.Redis, retry.DefaultRetryConfig())
		if err != nil {
			return err
		}
		defer redis.Close()
		usage = storage.NewBreakerUsageStore(
			storage.NewRedisUsageStore(redis),
			circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("redis-usage")),
		)
		logger.WithField("addr", cfg.Redis.Addr).Info("Tool usage counted in Redis")
	} else {
		usage = storage.NewMemoryUsageStore()
		logger.Info("Tool usage counted in memory")
	}

	m := metrics.New()

	// Initialize services
	dashboardService := service.NewDashboardService(data)
	registry := mcpserver.NewDashboardRegistry(dashboardService, usage, m)
	mcpServer := mcpserver.NewMCPServer(registry)

	logger.WithField("tools", registry.Names()).Info("Tools registered")

	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimitRPS:    cfg.RateLimit.RPS,
		RateLimitBurst:  cfg.RateLimit.Burst,
	}

	server := api.NewServer(
		serverConfig,
		registry,
		mcpserver.NewStreamableHTTPHandler(mcpServer, "/mcp"),
		m.Handler(),
		logger,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Wait for a signal or a server failure, then shut down gracefully
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	logger.WithFields(map[string]interface{}{
		"host":     cfg.Server.Host,
		"port":     cfg.Server.Port,
		"endpoint": "/mcp",
	}).Info("Server started successfully")

	return g.Wait()
}
