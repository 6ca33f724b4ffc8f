package badges

import (
	"context"
	"fmt"
	"time"

	"github.com/glkeru/loyalty/badges/config"
	interf "github.com/glkeru/loyalty/badges/internal/interfaces"
	"go.uber.org/zap"
)

// Все хранилища движка в одной БД
type Storage interface {
	interf.EventLog
	interf.AwardStore
	interf.CodeStore
	interf.ProfileStore
	interf.SettingsStorage
}

func OpenStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Storage, func(), error) {
	switch cfg.Driver {
	case "postgres":
		db, err := NewBadgesDB(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case "sqlite", "":
		db, err := NewSQLiteDB(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func OpenCatalog(ctx context.Context, cfg *config.Config) (interf.DefinitionStorage, func(), error) {
	switch cfg.Registry.Source {
	case "default", "":
		return NewDefaultCatalog(), func() {}, nil
	case "file":
		c, err := NewFileCatalog(cfg.Registry.File)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	case "mongo":
		m, err := NewDefinitionsDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			return nil, nil, err
		}
		if _, err := SeedCatalog(ctx, m, NewDefaultCatalog()); err != nil {
			m.Close(context.Background())
			return nil, nil, err
		}
		return m, func() { m.Close(context.Background()) }, nil
	}
	return nil, nil, fmt.Errorf("unknown registry source %q", cfg.Registry.Source)
}

// Кэш опционален: без адреса возвращается nil
func OpenCache(ctx context.Context, cfg config.RedisConfig) (interf.EventCache, func(), error) {
	if cfg.Addr == "" {
		return nil, func() {}, nil
	}
	c, err := NewCacheService(ctx, cfg.Addr, cfg.User, cfg.Password, time.Duration(cfg.TTLMinutes)*time.Minute)
	if err != nil {
		return nil, nil, err
	}
	return c, func() { c.Close() }, nil
}
