/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the sample-request SLA server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load YAML config, apply flag overrides
  2. Build the working calendar and SLA clock
  3. Initialize SQLite request mirror
  4. Configure HTTP router
  5. Run HTTP server and board refresher until SIGINT/SIGTERM

COMMAND-LINE FLAGS:
  -config   YAML config file (optional; defaults when omitted)
  -port     HTTP server port (overrides server.port)
  -db       SQLite database path (overrides database.path)
            Use ":memory:" for in-memory database
  -refresh  Board refresh interval (overrides refresh.interval)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the board refresher
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with a config file
  ./server -config=./sla-server.yaml

  # Run with in-memory database on a different port
  ./server -db=":memory:" -port=3000

SEE ALSO:
  - config/config.go: YAML configuration
  - api/server.go: Router configuration
  - api/refresher.go: Board refresher
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/sample-sla/api"
	"github.com/warp/sample-sla/calendar"
	"github.com/warp/sample-sla/config"
	"github.com/warp/sample-sla/sla"
	"github.com/warp/sample-sla/store/sqlite"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// Flags
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	refresh := flag.Duration("refresh", 0, "Board refresh interval (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *refresh != 0 {
		cfg.Refresh.Interval = refresh.String()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating flags: %w", err)
	}

	calCfg, err := cfg.CalendarConfig()
	if err != nil {
		return err
	}
	cal, err := calendar.New(calCfg)
	if err != nil {
		return err
	}
	clock := sla.NewClock(cal)

	interval, err := cfg.RefreshInterval()
	if err != nil {
		return err
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer store.Close()

	handler := api.NewHandler(store, clock, logger)
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	refresher := api.NewBoardRefresher(store, clock, logger)
	refresher.Interval = interval

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting",
			"addr", server.Addr,
			"db", cfg.Database.Path,
			"zone", cal.Location().String(),
			"work_hours", fmt.Sprintf("%02d:00-%02d:00", cal.WorkStartHour(), cal.WorkEndHour()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return refresher.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
