package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/crisis-triage-service/internal/adapter/http"
	"github.com/couchcryptid/crisis-triage-service/internal/app"
	"github.com/couchcryptid/crisis-triage-service/internal/config"
	"github.com/couchcryptid/crisis-triage-service/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	p, err := app.NewPipeline(cfg, clock, logger, metrics)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	audit, closeAudit := app.AuditLog(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Build one snapshot up front so /readyz reflects whether the feeds load.
	if crises, err := p.Crises(ctx); err != nil {
		logger.Warn("initial snapshot failed", "error", err)
	} else {
		logger.Info("initial snapshot built", "crises", len(crises), "data_dir", cfg.DataDir)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, audit, clock, logger, metrics)

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := closeAudit(); err != nil {
		logger.Error("audit log close error", "error", err)
	}

	logger.Info("shutdown complete")
}
