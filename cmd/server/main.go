package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/twhitfield/addrcheck/internal"
	"github.com/twhitfield/addrcheck/internal/address"
	"github.com/twhitfield/addrcheck/internal/handler/api"
	"github.com/twhitfield/addrcheck/internal/middleware"
	"github.com/twhitfield/addrcheck/internal/pipeline"
	"github.com/twhitfield/addrcheck/internal/router"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Acquire the batch token: a statically configured one wins, otherwise
	// exchange client credentials for one. A missing token is fatal before
	// any row is ever processed.
	token := cfg.USPS.Token
	if token == "" {
		logger.Info("Fetching USPS OAuth token...")
		tokenClient := address.NewTokenClient(cfg.USPS.BaseURL, cfg.Batch.RequestTimeout)
		token, err = tokenClient.FetchToken(ctx, cfg.USPS.ClientID, cfg.USPS.ClientSecret)
		if err != nil {
			return fmt.Errorf("failed to fetch USPS token: %w", err)
		}
		logger.Info("USPS OAuth token acquired")
	}

	// Initialize the standardizer and pipeline
	standardizer := address.NewUSPSStandardizer(address.USPSConfig{
		BaseURL:      cfg.USPS.BaseURL,
		Timeout:      cfg.Batch.RequestTimeout,
		MaxRetries:   cfg.Batch.MaxRetries,
		RetryBackoff: cfg.Batch.RetryBackoff,
		Logger:       logger,
	})

	registry := prometheus.DefaultRegisterer
	batchMetrics := pipeline.NewMetrics("addrcheck", registry)
	processor := pipeline.NewProcessor(standardizer, cfg.Batch.IDColumns, logger)
	runner := pipeline.NewRunner(processor, batchMetrics, logger)

	// Initialize HTTP metrics and middleware
	httpMetrics := middleware.NewMetrics("addrcheck", registry)

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		httpMetrics.Middleware,
		middleware.MaxBodySize(middleware.UploadMaxBodySize),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
	)

	validateHandler := api.NewValidateHandler(runner, token, logger)
	r.Post("/api/validate", validateHandler.ServeHTTP)

	// Metrics endpoint (protect via firewall in production)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		httpMetrics.Handler().ServeHTTP(w, req)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Serve until interrupted, then drain in-flight batches
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
