package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/pairs-api/api/swagger"
	"github.com/noah-isme/pairs-api/internal/handler"
	"github.com/noah-isme/pairs-api/internal/middleware"
	"github.com/noah-isme/pairs-api/internal/repository"
	"github.com/noah-isme/pairs-api/internal/roster"
	"github.com/noah-isme/pairs-api/internal/service"
	"github.com/noah-isme/pairs-api/pkg/cache"
	"github.com/noah-isme/pairs-api/pkg/config"
	"github.com/noah-isme/pairs-api/pkg/export"
	"github.com/noah-isme/pairs-api/pkg/jobs"
	"github.com/noah-isme/pairs-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/pairs-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/pairs-api/pkg/middleware/requestid"
	"github.com/noah-isme/pairs-api/pkg/storage"
)

// @title Pairs API
// @version 1.0.0
// @description Daily roster pairing and shuffling service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := repository.OpenRosterStore(ctx, cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to open roster store", "error", err)
	}
	defer closeStore()

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, projection cache disabled", "error", err)
		} else {
			redisRepo := repository.NewCacheRepository(client, "pairs", logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.OptionsTTL, logr, cacheRepo != nil)

	rosters := service.NewRosterService(store, cacheSvc, metrics, roster.NewRand(cfg.Roster.Seed), service.RosterServiceConfig{
		RosterID:   cfg.Roster.ID,
		OptionsTTL: cfg.Cache.OptionsTTL,
	}, validator.New(), logr)

	if cacheSvc.Enabled() && cfg.Cache.WarmerEnabled {
		warmer := jobs.NewQueue("options-warmer", rosters.WarmOptions, jobs.QueueConfig{
			Workers:    cfg.Cache.WarmerWorkers,
			MaxRetries: cfg.Cache.WarmerRetries,
			Logger:     logr,
		})
		warmer.Start(ctx)
		defer warmer.Stop()
		rosters.SetWarmer(warmer)
	}

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	exports := service.NewExportService(rosters, exportStore,
		storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
		service.ExportConfig{
			APIPrefix:       cfg.APIPrefix,
			Retention:       cfg.Exports.Retention,
			CleanupInterval: cfg.Exports.CleanupInterval,
		}, logr, export.NewCSVExporter())
	exports.StartCleanup(ctx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	handler.Register(r.Group(cfg.APIPrefix), handler.Handlers{
		Students: handler.NewStudentHandler(rosters),
		Sections: handler.NewSectionHandler(rosters),
		Teams:    handler.NewTeamHandler(rosters),
		Days:     handler.NewDayHandler(rosters),
		Exports:  handler.NewExportHandler(exports),
		Metrics:  metricsHandler,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "storage", cfg.Roster.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Sugar().Infow("server stopped")
}
