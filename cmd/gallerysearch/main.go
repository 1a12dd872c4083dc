package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rrudduck/NuGetGallery/internal/config"
	dbRedis "github.com/rrudduck/NuGetGallery/internal/db/redis"
	"github.com/rrudduck/NuGetGallery/internal/jobs"
	logpkg "github.com/rrudduck/NuGetGallery/internal/logger"
	"github.com/rrudduck/NuGetGallery/internal/metrics"
	"github.com/rrudduck/NuGetGallery/internal/repository/catalog"
	statsrepo "github.com/rrudduck/NuGetGallery/internal/repository/stats"
	chiTransport "github.com/rrudduck/NuGetGallery/internal/transport/chi"
	"github.com/rrudduck/NuGetGallery/internal/transport/searchservice"
	healthuc "github.com/rrudduck/NuGetGallery/internal/usecase/health"
	searchuc "github.com/rrudduck/NuGetGallery/internal/usecase/search"
	statisticsuc "github.com/rrudduck/NuGetGallery/internal/usecase/statistics"
	"github.com/rrudduck/NuGetGallery/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting gallery search server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("search_service", cfg.SearchService.Enabled),
	)

	// Redis and Valkey share the wire protocol; one rueidis store serves both drivers.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterJobMetrics()

	catalogRepo := catalog.New(store)
	statsStore := statsrepo.New(store)

	var client *searchservice.Client
	if cfg.SearchService.Enabled {
		client, err = searchservice.NewClient(searchservice.Config{
			ServiceURI: cfg.SearchService.URI,
			Timeout:    time.Duration(cfg.SearchService.TimeoutSec) * time.Second,
			RateLimit:  cfg.SearchService.RateLimit,
			RateBurst:  cfg.SearchService.RateBurst,
			Logger:     logger,
		})
		if err != nil {
			logger.Fatal("Invalid search service configuration", zap.Error(err))
		}
		logger.Info("Search service configured", zap.String("uri", client.ServiceURI()))
	}

	// Pass nil interfaces (not typed nil pointers) when the search service is disabled.
	var (
		remote        searchuc.SearchService
		index         chiTransport.SearchIndex
		searchChecker healthuc.SearchChecker
	)
	if client != nil {
		remote, index, searchChecker = client, client, client
	}

	searchSvc := searchuc.New(remote, catalog.Search)
	statsSvc := statisticsuc.New(catalogRepo, statsStore)
	healthSvc := healthuc.New(store, searchChecker)

	// Background jobs: the index gets first say, then the statistics refresh.
	var jobList []jobs.Job
	if client != nil {
		jobList = client.RegisterBackgroundJobs(jobList, cfg.Jobs)
	}
	jobList = statsSvc.RegisterBackgroundJobs(jobList, cfg.Jobs)

	scheduler, err := jobs.NewScheduler(jobList, func(job string, err error) {
		logger.Error("Background job failed", zap.String("job", job), zap.Error(err))
	}, logger)
	if err != nil {
		logger.Fatal("Invalid background jobs", zap.Error(err))
	}

	server := chiTransport.NewServer(searchSvc, statsSvc, healthSvc, catalogRepo, index, chiTransport.Options{
		DefaultTop: cfg.Gallery.MaxPageSize,
		MaxTop:     cfg.Gallery.MaxPageSize,
		APIKeys:    cfg.Auth.APIKeys,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	scheduler.Start(ctx)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	scheduler.Stop()

	logger.Info("Server stopped gracefully")
}
