// HTTP API движка бейджей: обработка событий, чтение бейджей и кодов, админка настроек
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glkeru/loyalty/badges/config"
	api "github.com/glkeru/loyalty/badges/internal/api"
	db "github.com/glkeru/loyalty/badges/internal/db"
	rabbit "github.com/glkeru/loyalty/badges/internal/external/rabbitmq"
	services "github.com/glkeru/loyalty/badges/internal/services"
	tracing "github.com/glkeru/loyalty/badges/observability/otel"
	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	// config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// log
	logger, err := config.NewLogger(cfg.Log.Mode)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// tracing
	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Otel.Endpoint, "badges", logger)
	if err != nil {
		logger.Error("tracer", zap.Error(err))
		shutdownTracer = func() {}
	}
	defer shutdownTracer()

	// database
	storage, closeStorage, err := db.OpenStorage(ctx, cfg.Storage, logger)
	if err != nil {
		panic(err)
	}
	defer closeStorage()

	// каталог бейджей
	source, closeSource, err := db.OpenCatalog(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer closeSource()

	// cache
	cache, closeCache, err := db.OpenCache(ctx, cfg.Redis)
	if err != nil {
		logger.Error("cache", zap.Error(err))
		cache, closeCache = nil, func() {}
	}
	defer closeCache()

	// services
	registry, err := services.NewRegistry(ctx, source, logger)
	if err != nil {
		panic(err)
	}
	defaults, err := cfg.Badges.Settings()
	if err != nil {
		panic(err)
	}
	settings, err := services.NewSettingsStore(ctx, storage, defaults, logger)
	if err != nil {
		panic(err)
	}
	minter := services.NewMinter(storage, settings, logger)
	evaluator := services.NewEvaluator(registry, settings, storage, storage, storage, minter, logger).
		WithCache(cache).
		WithWorkers(cfg.Workers.Events)

	// rabbitmq
	if cfg.Rabbit.URL != "" {
		publisher, err := rabbit.NewRabbitPublisher(cfg.Rabbit.URL, cfg.Rabbit.Queue)
		if err != nil {
			logger.Error("rabbit", zap.Error(err))
		} else {
			defer publisher.Close()
			evaluator.WithNotifier(publisher)
		}
	}

	// периодическое обновление каталога и настроек
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		panic(err)
	}
	if cfg.Server.RefreshMinutes > 0 {
		_, err = scheduler.NewJob(
			gocron.DurationJob(time.Duration(cfg.Server.RefreshMinutes)*time.Minute),
			gocron.NewTask(func() {
				if err := registry.Reload(ctx); err != nil {
					logger.Error("registry refresh", zap.Error(err))
				}
				if err := settings.Reload(ctx); err != nil {
					logger.Error("settings refresh", zap.Error(err))
				}
			}),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			panic(err)
		}
	}
	scheduler.Start()

	// api handlers
	r := api.NewHandler(evaluator, registry, settings, storage, logger)
	srv := &http.Server{
		Handler:      r.Traced(),
		Addr:         ":" + cfg.Server.Port,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", zap.Error(err))
			cancel()
		}
	}()
	logger.Info("badges server started", zap.String("port", cfg.Server.Port))

	// shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	select {
	case <-interrupt:
	case <-ctx.Done():
	}
	timeout, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()
	if err := srv.Shutdown(timeout); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	if err := scheduler.Shutdown(); err != nil {
		logger.Error("scheduler shutdown error", zap.Error(err))
	}
}
