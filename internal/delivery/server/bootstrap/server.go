package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	serverHTTP "restoree/internal/delivery/server/http"
	"restoree/internal/shared/async"
	"restoree/internal/shared/config"
	"restoree/internal/shared/logging"
)

// RunServer starts the HTTP API and blocks until SIGINT/SIGTERM.
func RunServer(cfg config.Config, meta config.Metadata, version string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f, err := BuildFoundation(ctx, cfg, meta, FoundationOptions{})
	if err != nil {
		return err
	}
	defer f.Cleanup()

	logger := logging.NewComponentLogger("Main")
	LogServerConfiguration(logger, cfg, meta)
	if !f.Degraded.IsEmpty() {
		logger.Warn("[Bootstrap] Server starting in degraded mode: %s", f.Degraded)
	}

	router := serverHTTP.NewRouter(serverHTTP.RouterDeps{
		Service: f.Service,
		Metrics: f.Metrics,
		Logger:  logging.NewComponentLogger("HTTP"),
	}, serverHTTP.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxUploadBytes,
		RateLimit: serverHTTP.RateLimitConfig{
			RequestsPerMinute: cfg.Server.RateLimitPerMinute,
			Burst:             cfg.Server.RateLimitBurst,
		},
		Debug:   cfg.Server.Debug,
		Version: version,
	})

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	return serveUntilSignal(server, cfg.Server.ShutdownTimeout, logger)
}

func serveUntilSignal(server *http.Server, shutdownTimeout time.Duration, logger logging.Logger) error {
	logger = logging.OrNop(logger)
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	errCh := make(chan error, 1)
	async.Go(logger, "server.listen", func() {
		logger.Info("Server listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-quit:
		logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr := server.Shutdown(ctx)

		serveErr := <-errCh
		if errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}
		if shutdownErr != nil {
			return fmt.Errorf("shutdown: %w", shutdownErr)
		}
		if serveErr != nil {
			return fmt.Errorf("server error: %w", serveErr)
		}
		logger.Info("Server stopped")
		return nil
	}
}
