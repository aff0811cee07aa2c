package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	apiHttp "github.com/vibe-gaming/countries/internal/api/http"
	"github.com/vibe-gaming/countries/internal/cache"
	"github.com/vibe-gaming/countries/internal/config"
	"github.com/vibe-gaming/countries/internal/countryapi"
	"github.com/vibe-gaming/countries/internal/db"
	"github.com/vibe-gaming/countries/internal/queue/asynqserver"
	"github.com/vibe-gaming/countries/internal/repository"
	"github.com/vibe-gaming/countries/internal/server"
	"github.com/vibe-gaming/countries/internal/service"
	"github.com/vibe-gaming/countries/pkg/logger"
)

func main() {
	// Init cfg from environment variables
	cfg := config.MustLoad()

	// Dependencies
	appLogger := logger.SetupLogger(cfg.Env, cfg.LogLevel)
	defer logger.Sync()

	appLogger.Info("starting countries api", zap.String("env", cfg.Env))
	appLogger.Debug("debug messages are enabled")

	// Init database
	dbMySQL, err := db.New(cfg.Database)
	if err != nil {
		appLogger.Error("mysql connect problem", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		err = dbMySQL.Close()
		if err != nil {
			appLogger.Error("error when closing", zap.Error(err))
		}
	}()
	appLogger.Info("mysql connection done")

	if cfg.Database.EnsureSchema {
		if err := db.EnsureSchema(context.Background(), dbMySQL); err != nil {
			appLogger.Error("schema setup failed", zap.Error(err))
			os.Exit(1)
		}
	}

	// Stats cache. The API keeps serving from mysql while redis is down.
	redisClient, err := cache.NewRedis(cfg.Cache)
	if err != nil {
		appLogger.Warn("redis is unavailable, stats will be served uncached until it recovers", zap.Error(err))
	}
	var statsCache service.Cache
	if redisClient != nil {
		statsCache = cache.NewStatsCache(redisClient, cfg.Stats.CacheTTL)
		defer redisClient.Close()
	}

	// Services, Repos & API Handlers
	repos := repository.NewRepositories(dbMySQL)
	services := service.NewServices(service.Deps{
		Config: cfg,
		Repos:  repos,
		Source: countryapi.NewClient(cfg.Import),
		Cache:  statsCache,
	})
	handlers := apiHttp.NewHandlers(services, cfg)

	// HTTP Server
	srv := server.NewServer(cfg, handlers.Init(cfg))
	go func() {
		if err := srv.Run(); !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("error occurred while running http server", zap.Error(err))
		}
	}()
	appLogger.Info("server started", zap.String("port", cfg.HttpServer.Port))

	// Scheduled import
	var (
		queueServer *asynq.Server
		scheduler   *asynq.Scheduler
	)
	if cfg.Scheduler.Enabled {
		var mux *asynq.ServeMux
		queueServer, mux = asynqserver.New(cfg.Cache, services)
		if err := queueServer.Start(mux); err != nil {
			appLogger.Error("asynq server start failed", zap.Error(err))
			os.Exit(1)
		}

		scheduler, err = asynqserver.NewScheduler(cfg.Cache, cfg.Scheduler.Cron, cfg.Import.BatchSize)
		if err != nil {
			appLogger.Error("import scheduler creation failed", zap.Error(err))
			os.Exit(1)
		}
		if err := scheduler.Start(); err != nil {
			appLogger.Error("import scheduler start failed", zap.Error(err))
			os.Exit(1)
		}
		appLogger.Info("import scheduler started", zap.String("cron", cfg.Scheduler.Cron))
	}

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	const timeout = 5 * time.Second

	ctx, shutdown := context.WithTimeout(context.Background(), timeout)
	defer shutdown()

	if err := srv.Stop(ctx); err != nil {
		appLogger.Error("failed to stop server", zap.Error(err))
	}

	if scheduler != nil {
		scheduler.Shutdown()
	}
	if queueServer != nil {
		queueServer.Shutdown()
	}

	appLogger.Info("app stopped")
}
