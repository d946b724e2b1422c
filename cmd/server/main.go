package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stwalsh4118/streamhub/internal/config"
	"github.com/stwalsh4118/streamhub/internal/db"
	"github.com/stwalsh4118/streamhub/internal/logger"
	"github.com/stwalsh4118/streamhub/internal/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", true)
		logger.Log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Pretty)

	database, err := db.Open(cfg.Database.Path, db.Options{
		EnableWAL:         cfg.Database.EnableWAL,
		ConnectionTimeout: cfg.Database.ConnectionTimeout,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("Failed to open database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	sqlDB, err := database.GetSQLDB()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to access database handle")
	}
	if err := db.RunMigrations(sqlDB); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create server")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Log.Error().Err(err).Msg("Server failed")
		}
	case <-ctx.Done():
		logger.Log.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
