package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/config"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/di"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/ports"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	router http.Handler,
	history *core.HistoryService,
	emailFilter ports.EmailFilter,
) error {
	defer logger.Sync()

	serverCfg := cfg.GetServer()
	srv := &http.Server{
		Addr:         serverCfg.ListenAddress,
		Handler:      router,
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
		IdleTimeout:  serverCfg.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting",
			zap.String("address", serverCfg.ListenAddress),
			zap.Bool("durable_history", history.Durable()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Start the SMTP content filter if enabled
	smtpEnabled := cfg.GetSMTP().Enabled
	if smtpEnabled {
		if err := emailFilter.Start(); err != nil {
			logger.Error("Failed to start filter", zap.Error(err))
			return err
		}
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("Shutting down...", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("HTTP server failed", zap.Error(err))
		runErr = fmt.Errorf("failed to serve HTTP: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	// Stop the filter
	if smtpEnabled {
		if err := emailFilter.Stop(); err != nil {
			logger.Error("Failed to stop filter", zap.Error(err))
		}
	}

	if err := history.Close(); err != nil {
		logger.Error("Failed to close history", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return runErr
}
