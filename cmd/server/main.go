/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the working-time calendar server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, then flags)
  2. Build the zap logger
  3. Initialize SQLite store
  4. Seed calendars from a file or a demo scenario, if asked
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (override the environment):
  -port      HTTP server port (WORKCAL_PORT, default: 8080)
  -db        SQLite database path (WORKCAL_DB_PATH, default: ./workcal.db)
             Use ":memory:" for in-memory database
  -seed      JSON or YAML calendar file to load (WORKCAL_SEED_FILE)
  -scenario  Demo scenario to load, resets the store (WORKCAL_SCENARIO)

OTHER ENVIRONMENT:
  WORKCAL_ENV          development | production
  WORKCAL_LOG_LEVEL    debug | info | warn | error
  WORKCAL_RATE_LIMIT   Requests per minute per IP, 0 disables
  WORKCAL_CORS_ORIGINS Comma-separated allowed origins

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/workcal.db"

  # Demo data in memory
  ./server -db=":memory:" -scenario=timezones

  # Load company calendars on start
  ./server -seed=calendars.yaml

SEE ALSO:
  - internal/config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/workcalendar/api"
	"github.com/warp/workcalendar/internal/config"
	"github.com/warp/workcalendar/internal/logging"
	"github.com/warp/workcalendar/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	flag.StringVar(&cfg.SeedFile, "seed", cfg.SeedFile, "JSON or YAML calendar file to load on start")
	flag.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "demo scenario to load on start")
	flag.Parse()

	logger, err := logging.New(cfg.LogLevel, cfg.Env == config.EnvDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	handler := api.NewHandler(store, logger)

	if err := seed(context.Background(), handler, cfg, logger); err != nil {
		return err
	}

	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.CORSOrigins,
		RateLimit:      cfg.RateLimit,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Addr()),
			zap.String("db", cfg.DBPath),
			zap.String("env", cfg.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// seed loads the demo scenario first, then the seed file on top of it.
func seed(ctx context.Context, h *api.Handler, cfg config.Config, logger *zap.Logger) error {
	if cfg.Scenario != "" {
		if err := h.LoadScenarioByID(ctx, cfg.Scenario); err != nil {
			return fmt.Errorf("load scenario %s: %w", cfg.Scenario, err)
		}
	}
	if cfg.SeedFile == "" {
		return nil
	}

	defs, err := h.Factory.LoadFile(cfg.SeedFile)
	if err != nil {
		return fmt.Errorf("load seed file: %w", err)
	}
	for _, def := range defs {
		if err := h.SaveDefinition(ctx, def); err != nil {
			return fmt.Errorf("seed calendar %s: %w", def.Calendar.ID, err)
		}
	}
	logger.Info("seed file loaded", zap.String("path", cfg.SeedFile), zap.Int("calendars", len(defs)))
	return nil
}
