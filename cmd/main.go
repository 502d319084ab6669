/**
 * @description
 * This is the main entry point for the retention-service.
 * It initializes and wires together all the components of the application,
 * including configuration, database connection, repository, billing client,
 * service, and the HTTP router. Finally, it starts the HTTP server to listen
 * for incoming requests.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/algofomo/retention-service/internal/api"
	"github.com/algofomo/retention-service/internal/app"
	"github.com/algofomo/retention-service/internal/config"
	"github.com/algofomo/retention-service/internal/store"
	"github.com/algofomo/retention-service/pkg/whopclient"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load .env file if present (local development)
	_ = godotenv.Load()

	// Load application configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if cfg.WhopAPIKey == "" {
		// Not fatal: simulation mode works without it, live redemption
		// fails with a configuration error at call time.
		logger.Warn("WHOP_API_KEY is not set; live redemptions will fail")
	}

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up channel to listen for OS signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Establish connection to the PostgreSQL database
	dbpool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Initialize application layers
	repository := store.NewRepository(dbpool)
	billing := whopclient.NewClient(cfg.WhopAPIURL, cfg.WhopAPIKey)
	service := app.NewService(repository, billing, cfg.WhopAPIKey, logger)
	handler := api.NewHandler(service)
	router := api.NewRouter(handler)

	// Configure and start the HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for an OS signal
	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	// Create a context with a timeout for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Attempt to gracefully shut down the server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
