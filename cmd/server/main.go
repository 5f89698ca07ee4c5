package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsagent/reorder/internal/api"
	"github.com/opsagent/reorder/internal/cache"
	"github.com/opsagent/reorder/internal/config"
	"github.com/opsagent/reorder/internal/dataset"
	"github.com/opsagent/reorder/internal/rationale"
	"github.com/opsagent/reorder/internal/repository"
	"github.com/opsagent/reorder/internal/repository/postgres"
	"github.com/opsagent/reorder/internal/service"
	"github.com/opsagent/reorder/internal/storage"
	"github.com/opsagent/reorder/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	store, cleanup, err := buildStore(cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize data source")
	}
	defer cleanup()

	recCache, err := cache.NewRecommendationCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Cache unavailable, running without it")
		recCache = cache.NewNoopRecommendationCache()
	}

	var objects storage.ObjectStorage
	if cfg.Storage.Enabled {
		minioClient, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Object storage unavailable, ledger exports stay local")
		} else {
			objects = minioClient
		}
	}

	var generator rationale.Generator = rationale.NewTemplateGenerator()
	if cfg.Rationale.OpenAIKey != "" {
		generator = rationale.NewOpenAIGenerator(cfg.Rationale.OpenAIKey, cfg.Rationale.OpenAIModel)
	}

	services := &api.Services{
		Recommend: service.NewRecommendService(store, recCache, generator, cfg.Engine),
		Backtest:  service.NewBacktestService(store, objects, cfg.Engine),
		OutputDir: cfg.App.OutputDir,
	}

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("data_source", cfg.App.DataSource).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func buildStore(cfg *config.Config) (repository.Store, func(), error) {
	switch cfg.App.DataSource {
	case "postgres":
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStore(db), func() { db.Close() }, nil
	default:
		repo, err := dataset.Open(cfg.App.SalesPath, cfg.App.SuppliersPath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	}
}
