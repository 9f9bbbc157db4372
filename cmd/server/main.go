package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orderlink/importer/internal/api"
	"github.com/orderlink/importer/internal/cache"
	"github.com/orderlink/importer/internal/config"
	"github.com/orderlink/importer/internal/docstore/postgres"
	"github.com/orderlink/importer/internal/importer"
	"github.com/orderlink/importer/internal/source"
	"github.com/orderlink/importer/internal/storage"
	"github.com/orderlink/importer/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.SetLevel(cfg.Log.Level)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := postgres.NewStore(&cfg.Store)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to connect to store")
	}
	defer store.Close()

	var drive *source.Drive
	if cfg.Drive.CredentialsFile != "" {
		creds, err := os.ReadFile(cfg.Drive.CredentialsFile)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("failed to read drive credentials")
		}
		drive, err = source.NewDrive(context.Background(), creds)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("failed to create drive client")
		}
	}

	var archive storage.ObjectStorage
	if cfg.Archive.Enabled {
		archive, err = storage.NewMinioClient(cfg.Archive)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("failed to create archive client")
		}
	}

	docCache, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to connect to cache")
	}

	service := importer.NewService(store, cfg, source.NewFetcher(drive), archive, docCache)
	router := api.NewRouter(service, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
		// Imports run synchronously inside handlers; the write timeout
		// has to cover a whole batch run.
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("starting admin server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("forced shutdown")
	}
}
