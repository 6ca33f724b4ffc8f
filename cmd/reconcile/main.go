// Job - досоздание кодов скидок
// Бейджи с наградой, выданные без кода (сбой между выдачей и выпуском кода), получают код
package main

import (
	"context"

	"github.com/glkeru/loyalty/badges/config"
	db "github.com/glkeru/loyalty/badges/internal/db"
	services "github.com/glkeru/loyalty/badges/internal/services"
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

	ctx := context.Background()

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

	reconciler := services.NewReconciler(registry, storage, minter, cfg.Workers.Reconcile, logger)
	minted, err := reconciler.Run(ctx)
	if err != nil {
		logger.Error(err.Error())
		return
	}
	logger.Info("Job discount code reconcile is finished", zap.Int("minted", minted))
}
