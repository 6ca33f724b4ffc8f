// Job - обработка поведенческих событий
// Опрос Kafka -> оценка события -> выдача бейджей и кодов скидок
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/glkeru/loyalty/badges/config"
	db "github.com/glkeru/loyalty/badges/internal/db"
	kafkaevents "github.com/glkeru/loyalty/badges/internal/external/kafka"
	rabbit "github.com/glkeru/loyalty/badges/internal/external/rabbitmq"
	services "github.com/glkeru/loyalty/badges/internal/services"
	tracing "github.com/glkeru/loyalty/badges/observability/otel"
	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
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

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Otel.Endpoint, "badges-events", logger)
	if err != nil {
		logger.Error("tracer", zap.Error(err))
		shutdownTracer = func() {}
	}
	defer shutdownTracer()

	// kafka
	reader, err := kafkaevents.GetNewReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	if err != nil {
		panic(err)
	}
	defer reader.CloseReader()

	// database
	storage, closeStorage, err := db.OpenStorage(ctx, cfg.Storage, logger)
	if err != nil {
		panic(err)
	}
	defer closeStorage()

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
		WithCache(cache)

	if cfg.Rabbit.URL != "" {
		publisher, err := rabbit.NewRabbitPublisher(cfg.Rabbit.URL, cfg.Rabbit.Queue)
		if err != nil {
			logger.Error("rabbit", zap.Error(err))
		} else {
			defer publisher.Close()
			evaluator.WithNotifier(publisher)
		}
	}
	consumer := services.NewEventConsumer(evaluator, logger)

	// os signals
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		cancel()
	}()

	workers := cfg.Workers.Events
	for {
		batch, err := fetchBatch(ctx, reader, workers)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("kafka fetch", zap.Error(err))
			}
			return
		}

		// пачка обрабатывается параллельно, offset фиксируется только если обработаны все
		wg := &sync.WaitGroup{}
		errs := make([]error, len(batch))
		for i, msg := range batch {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = consumer.HandleMessage(ctx, msg.Value)
			}()
		}
		wg.Wait()

		if err := errors.Join(errs...); err != nil {
			// без commit: сообщения будут прочитаны снова после перезапуска
			logger.Error("event batch failed", zap.Error(err))
			return
		}
		if err := reader.Commit(ctx, batch...); err != nil {
			logger.Error("kafka commit", zap.Error(err))
			return
		}
	}
}

// Первое сообщение ждем, остальные добираем без ожидания
func fetchBatch(ctx context.Context, reader *kafkaevents.KafkaEvents, size int) ([]kafka.Message, error) {
	msg, err := reader.GetNewMessage(ctx)
	if err != nil {
		return nil, err
	}
	batch := []kafka.Message{msg}
	for len(batch) < size {
		fctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		msg, err := reader.GetNewMessage(fctx)
		cancel()
		if err != nil {
			break
		}
		batch = append(batch, msg)
	}
	return batch, nil
}
