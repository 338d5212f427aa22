package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openvms/gatekit/internal/observability"
)

// shutdownTimeout bounds graceful drain on exit.
const shutdownTimeout = 30 * time.Second

// runServer starts the HTTP server and blocks until a termination signal,
// then drains in-flight requests and releases resources.
func runServer(app *application, logger observability.Logger) {
	server := &http.Server{
		Addr:              app.cfg.ListenAddr,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", observability.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", observability.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", observability.Error(err))
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", observability.Error(err))
	}

	close(app.stopCh)
	if err := app.store.Close(); err != nil {
		logger.Error("failed to close audit store", observability.Error(err))
	}

	logger.Info("stopped")
}
