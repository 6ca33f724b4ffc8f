package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	models "github.com/glkeru/loyalty/badges/internal/models"
	"github.com/spf13/viper"
)

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Registry RegistryConfig `mapstructure:"registry"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Rabbit   RabbitConfig   `mapstructure:"rabbit"`
	Otel     OtelConfig     `mapstructure:"otel"`
	Badges   BadgesConfig   `mapstructure:"badges"`
	Workers  WorkersConfig  `mapstructure:"workers"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"` // "development" or "production"
}

type ServerConfig struct {
	Port           string `mapstructure:"port"`
	RefreshMinutes int    `mapstructure:"refresh_minutes"` // registry/settings reload, 0 - off
}

type StorageConfig struct {
	Driver      string `mapstructure:"driver"` // "postgres" or "sqlite"
	PostgresDSN string `mapstructure:"postgres_dsn"`
	SQLitePath  string `mapstructure:"sqlite_path"`
}

type RegistryConfig struct {
	Source string `mapstructure:"source"` // "default", "file" or "mongo"
	File   string `mapstructure:"file"`
}

type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type RedisConfig struct {
	Addr       string `mapstructure:"addr"` // пусто - без кэша
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type RabbitConfig struct {
	URL   string `mapstructure:"url"` // пусто - без уведомлений
	Queue string `mapstructure:"queue"`
}

type OtelConfig struct {
	Endpoint string `mapstructure:"endpoint"` // пусто - без трассировки
}

// Значения по умолчанию для Settings
type BadgesConfig struct {
	Enabled               bool `mapstructure:"enabled"`
	ShieldSuppressesReset bool `mapstructure:"shield_suppresses_reset"`
	GraceWindowDays       int  `mapstructure:"grace_window_days"`
	CodeValidityDays      int  `mapstructure:"code_validity_days"`
	DedupWindowMinutes    int  `mapstructure:"dedup_window_minutes"`
}

type WorkersConfig struct {
	Events    int `mapstructure:"events"`
	Reconcile int `mapstructure:"reconcile_batch"`
}

// Значения проверяются так же, как при изменении через API
func (b BadgesConfig) Settings() (models.Settings, error) {
	s := models.DefaultSettings()
	values := []struct {
		key   string
		value string
	}{
		{models.SettingEnabled, strconv.FormatBool(b.Enabled)},
		{models.SettingShieldSuppressesReset, strconv.FormatBool(b.ShieldSuppressesReset)},
		{models.SettingGraceWindowDays, strconv.Itoa(b.GraceWindowDays)},
		{models.SettingCodeValidityDays, strconv.Itoa(b.CodeValidityDays)},
		{models.SettingDedupWindowMinutes, strconv.Itoa(b.DedupWindowMinutes)},
	}
	for _, kv := range values {
		var err error
		if s, err = s.With(kv.key, kv.value); err != nil {
			return models.Settings{}, fmt.Errorf("badges config: %w", err)
		}
	}
	return s, nil
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// env
	v.BindEnv("storage.postgres_dsn", "BADGES_DB")
	v.BindEnv("redis.addr", "BADGES_CACHE_URL")
	v.BindEnv("redis.user", "BADGES_CACHE_USER")
	v.BindEnv("redis.password", "BADGES_CACHE_PWD")
	v.BindEnv("rabbit.url", "RABBIT_URL")
	v.BindEnv("otel.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("registry.file", "BADGES_REGISTRY_FILE")
	v.BindEnv("mongo.uri", "BADGES_MONGO_URI")

	// defaults
	def := models.DefaultSettings()
	v.SetDefault("log.mode", "development")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.refresh_minutes", 5)
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite_path", "badges.db")
	v.SetDefault("registry.source", "default")
	v.SetDefault("registry.file", "")
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "badgesDB")
	v.SetDefault("mongo.collection", "badges")
	v.SetDefault("redis.ttl_minutes", 24*60)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "badge-events")
	v.SetDefault("kafka.group_id", "badges_engine")
	v.SetDefault("rabbit.queue", "badge_awards")
	v.SetDefault("badges.enabled", def.Enabled)
	v.SetDefault("badges.shield_suppresses_reset", def.ShieldSuppressesReset)
	v.SetDefault("badges.grace_window_days", def.GraceWindowDays)
	v.SetDefault("badges.code_validity_days", int(def.CodeValidity/(24*time.Hour)))
	v.SetDefault("badges.dedup_window_minutes", int(def.DedupWindow/time.Minute))
	v.SetDefault("workers.events", 5)
	v.SetDefault("workers.reconcile_batch", 100)

	v.SetEnvPrefix("BADGES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// нет файла - только defaults и env
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.Workers.Events <= 0 {
		config.Workers.Events = 1
	}
	return &config, nil
}
