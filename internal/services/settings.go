package badges

import (
	"context"
	"sync"
	"sync/atomic"

	interf "github.com/glkeru/loyalty/badges/internal/interfaces"
	models "github.com/glkeru/loyalty/badges/internal/models"
	"go.uber.org/zap"
)

// Настройки: значения по умолчанию из конфигурации + переопределения из БД
type SettingsStore struct {
	storage  interf.SettingsStorage
	defaults models.Settings
	current  atomic.Pointer[models.Settings]
	mu       sync.Mutex
	logger   *zap.Logger
}

func NewSettingsStore(ctx context.Context, storage interf.SettingsStorage, defaults models.Settings, logger *zap.Logger) (*SettingsStore, error) {
	s := &SettingsStore{storage: storage, defaults: defaults, logger: logger}
	s.current.Store(&defaults)
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SettingsStore) Current() models.Settings {
	return *s.current.Load()
}

// Перечитать переопределения. Неизвестные ключи пропускаются
func (s *SettingsStore) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	overrides, err := s.storage.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings := s.defaults
	for key, value := range overrides {
		next, err := settings.With(key, value)
		if err != nil {
			s.logger.Warn("setting ignored",
				zap.String("key", key),
				zap.String("value", value),
				zap.Error(err),
			)
			continue
		}
		settings = next
	}
	s.current.Store(&settings)
	return nil
}

// Изменить одну настройку
func (s *SettingsStore) Update(ctx context.Context, key, value string) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.Current().With(key, value)
	if err != nil {
		return s.Current(), err
	}
	if err := s.storage.SaveSetting(ctx, key, value); err != nil {
		return s.Current(), storageError("save setting", err)
	}
	s.current.Store(&settings)
	s.logger.Info("setting updated", zap.String("key", key), zap.String("value", value))
	return settings, nil
}
