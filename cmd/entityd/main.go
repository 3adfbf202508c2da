// Entityd is a personal-data API gateway.
//
// It exposes a uniform REST surface over ten entity kinds (tasks, events,
// reminders, people, places, documents, memories, projects, things,
// organizations) and unified cross-kind search, while delegating all durable
// storage, full-text/embedding search, and ranking to an external vector
// store reached over HTTP.
//
// Configuration is loaded from an optional YAML file plus environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start the gateway with defaults
//	entityd
//
//	# Configure via environment
//	SERVER_PORT=8080 STORE_BASE_URL=http://localhost:8000/api/products entityd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/entityd/internal/config"
	api "github.com/fyrsmithlabs/entityd/internal/http"
	"github.com/fyrsmithlabs/entityd/internal/search"
	"github.com/fyrsmithlabs/entityd/internal/store"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  entityd           Start the gateway\n")
			fmt.Fprintf(os.Stderr, "  entityd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("entityd\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the gateway and blocks until context cancellation.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting entityd",
		zap.Int("port", cfg.Server.Port),
		zap.String("store_url", cfg.Store.BaseURL),
		zap.String("index_prefix", cfg.Store.IndexPrefix),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	client, err := store.NewClient(store.Config{
		BaseURL:     cfg.Store.BaseURL,
		APIKey:      cfg.Store.APIKey,
		IndexPrefix: cfg.Store.IndexPrefix,
		Timeout:     cfg.Store.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create store client: %w", err)
	}

	aggregator, err := search.NewAggregator(client, logger)
	if err != nil {
		return fmt.Errorf("failed to create search aggregator: %w", err)
	}

	srv, err := api.NewServer(client, aggregator, logger, &api.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Register metrics endpoint
	srv.Echo().GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)),
		zap.String("api_prefix", "/api"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// initLogger initializes the structured logger.
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Logging.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
