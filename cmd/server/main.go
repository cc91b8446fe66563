// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/posmap/internal/api"
	"github.com/tomtom215/posmap/internal/auth"
	"github.com/tomtom215/posmap/internal/config"
	"github.com/tomtom215/posmap/internal/database"
	"github.com/tomtom215/posmap/internal/logging"
	"github.com/tomtom215/posmap/internal/metrics"
	"github.com/tomtom215/posmap/internal/supervisor"
	"github.com/tomtom215/posmap/internal/supervisor/services"
	ws "github.com/tomtom215/posmap/internal/websocket"
)

const (
	shutdownTimeout    = 10 * time.Second
	checkpointInterval = 5 * time.Minute
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

//nolint:gocyclo // sequential startup
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	metrics.AppInfo.WithLabelValues(api.Version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", api.Version).
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("environment", cfg.Server.Environment).
		Str("timezone", cfg.Server.Location().String()).
		Msg("Starting PosMap")

	if path := config.File(); path != "" {
		err := config.WatchConfigFile(path, func() {
			logging.Warn().Str("path", path).Msg("Configuration file changed; restart the server to apply")
		})
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Cannot watch configuration file")
		}
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Database.SeedMockData {
		if err := db.SeedMockData(ctx); err != nil {
			return err
		}
	}

	if err := ensureJWTSecret(&cfg.Security); err != nil {
		return err
	}
	tokens, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return err
	}

	lockoutStore, lockoutCloser, err := newLockoutStore(&cfg.Security)
	if err != nil {
		return err
	}
	defer func() {
		if err := lockoutCloser.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing lockout store")
		}
	}()
	lockout := auth.NewLockoutManager(lockoutStore, auth.DefaultLockoutConfig())

	authService := auth.NewService(db, tokens, lockout)
	if err := ensureAdmin(ctx, authService, &cfg.Security); err != nil {
		return err
	}

	if !cfg.Security.AuthEnabled() {
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none): anyone can create, edit and delete points")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS_ORIGINS=* with authentication enabled lets any website call the API")
	}

	wsHub := ws.NewHub()
	handler := api.NewHandler(db, authService, cfg, wsHub)
	defer handler.Close()

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler).Setup(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  shutdownTimeout,
	})
	if err != nil {
		return err
	}
	tree.AddDataService(services.NewCheckpointService(db, checkpointInterval))
	tree.AddDataService(lockout)
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddAPIService(services.NewHTTPServerService(server, shutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services")
		runErr = <-errCh
	case runErr = <-errCh:
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
