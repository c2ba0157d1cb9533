/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the home energy tracker server. Handles
  configuration, dependency injection, the nightly import schedule,
  and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from environment (.env supported)
  2. Initialize structured logging
  3. Initialize SQLite store
  4. Register the nightly solar import job
  5. Configure HTTP router
  6. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler, waiting for a running import
  4. Close database connection
  5. Exit

ENVIRONMENT:
  PORT                 HTTP server port (default: 3001)
  DATABASE_PATH        SQLite database path (default: ./data/tracker.db)
  LOG_LEVEL            debug, info, warn, error (default: info)
  DEV_MODE             pretty console logging (default: false)
  SOLAR_IMPORT_SPEC    cron spec for the nightly import (default: 0 2 * * *)

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment parsing
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ctcoding/hometracker/api"
	"github.com/ctcoding/hometracker/config"
	"github.com/ctcoding/hometracker/pkg/logger"
	"github.com/ctcoding/hometracker/scheduler"
	"github.com/ctcoding/hometracker/solar"
	"github.com/ctcoding/hometracker/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	logger.SetGlobalLogger(log)

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer st.Close()

	importer := solar.NewImporter(st, log)
	importer.SetFallbackCredentials(cfg.SolarCloudAPIKey, cfg.SolarSerialNumber)

	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.SolarImportSpec, importer); err != nil {
		log.Fatal().Err(err).Str("spec", cfg.SolarImportSpec).Msg("Failed to register import job")
	}
	sched.Start()

	handler := api.NewHandler(st, importer, log)
	handler.HADefaultURL = cfg.HomeAssistantURL
	handler.HADefaultToken = cfg.HomeAssistantToken
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	sched.Stop()

	log.Info().Msg("Server stopped")
}
