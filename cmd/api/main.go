// Package main is the entry point for the carbonview API server.
//
// It loads configuration, connects the Postgres pool and the AWS CloudWatch
// client, builds the HTTP server with the core chassis (middleware, routing,
// health check), and starts listening for requests.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/jackc/pgx/v5/pgxpool"

	"carbonview/internal/api/handlers"
	"carbonview/internal/config"
	"carbonview/internal/core"
	"carbonview/internal/db"
	"carbonview/internal/emissions"
	"carbonview/internal/external"
	"carbonview/internal/footprint"
	"carbonview/internal/recommendations"
	"carbonview/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("carbonview API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
	)

	ctx := context.Background()

	// Postgres pool for usage line items, the estimate cache, and the
	// instance inventory.
	pool, err := newPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer pool.Close()

	usageRepo := db.NewUsageRepo(pool)
	estimateRepo := db.NewEstimateCacheRepo(pool)
	instanceRepo := db.NewInstanceRepo(pool)

	// Emissions service, optionally backed by a live grid-intensity
	// upstream behind the circuit-breaking client.
	var intensity emissions.IntensitySource
	if cfg.Emissions.UpstreamURL != "" {
		base := external.NewClient(
			&http.Client{Timeout: cfg.Emissions.UpstreamTimeout},
			"grid-intensity",
			external.DefaultRetryPolicy(),
			"carbonview/1.0",
		)
		intensity = external.NewGridIntensityClient(base, cfg.Emissions.UpstreamURL, cfg.Emissions.UpstreamAPIKey)
	}
	emissionsSvc := emissions.NewService(intensity, logger)

	// Footprint estimation pipeline.
	estimator := footprint.NewEstimator(emissionsSvc)
	footprintSvc := footprint.NewService(usageRepo, estimateRepo, estimator, cfg.Footprint.CacheEnabled, logger)

	// CloudWatch-backed recommendations.
	cwClient, err := newCloudWatchClient(ctx, cfg.AWS)
	if err != nil {
		return fmt.Errorf("initializing cloudwatch client: %w", err)
	}
	co2eSavings := func(ctx context.Context, provider types.CloudProvider, region string, kwh float64) float64 {
		return kwh * emissionsSvc.IntensityOrStatic(ctx, provider, region) / 1000.0
	}
	recommendationsSvc := recommendations.NewService(instanceRepo, cwClient, co2eSavings, logger)

	// Build the server and mount the route handlers.
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	footprintHandler := handlers.NewFootprintHandler(footprintSvc, cfg, logger)
	emissionsHandler := handlers.NewEmissionsHandler(emissionsSvc, logger)
	recommendationsHandler := handlers.NewRecommendationsHandler(recommendationsSvc, logger)

	srv.RouteRegistrars = append(srv.RouteRegistrars,
		footprintHandler.RegisterRoutes,
		emissionsHandler.RegisterRoutes,
		recommendationsHandler.RegisterRoutes,
	)
	srv.MountRoutes()

	return runHTTPServer(srv, cfg, logger)
}

// newPool builds the pgx connection pool from database config.
func newPool(ctx context.Context, dbCfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dbCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	poolCfg.MaxConns = int32(dbCfg.MaxConns)
	poolCfg.MinConns = int32(dbCfg.MinConns)
	poolCfg.MaxConnLifetime = dbCfg.MaxConnLifetime
	poolCfg.HealthCheckPeriod = dbCfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// newCloudWatchClient builds the CloudWatch client, honoring a LocalStack
// endpoint override when configured.
func newCloudWatchClient(ctx context.Context, awsCfg config.AWSConfig) (*cloudwatch.Client, error) {
	sdkCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsCfg.Region))
	if err != nil {
		return nil, err
	}
	var opts []func(*cloudwatch.Options)
	if awsCfg.EndpointURL != "" {
		opts = append(opts, func(o *cloudwatch.Options) {
			o.BaseEndpoint = aws.String(awsCfg.EndpointURL)
		})
	}
	return cloudwatch.NewFromConfig(sdkCfg, opts...), nil
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with a 10-second deadline.
	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler)
}
