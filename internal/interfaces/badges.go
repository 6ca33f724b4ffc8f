package badges

import (
	"context"
	"time"

	models "github.com/glkeru/loyalty/badges/internal/models"
)

//go:generate mockgen -destination=./../services/mock_badges_test.go -package=badges . EventLog,AwardStore,CodeStore,ProfileStore

// Журнал событий
type EventLog interface {
	Exists(ctx context.Context, eventID string) (bool, error)
	Get(ctx context.Context, eventID string) (models.BadgeEvent, error)
	Append(ctx context.Context, event models.BadgeEvent) error
	MarkProcessed(ctx context.Context, eventID string, at time.Time) error
	CountSince(ctx context.Context, userID string, eventType models.EventType, since time.Time) (int, error)
}

// Выданные бейджи, уникальность (userID, badgeID)
type AwardStore interface {
	HasAward(ctx context.Context, userID string, badgeID string) (bool, error)
	GetAward(ctx context.Context, userID string, badgeID string) (models.UserBadgeAward, error)
	TryAward(ctx context.Context, award models.UserBadgeAward) error
	UserAwards(ctx context.Context, userID string) ([]models.UserBadgeAward, error)
	AwardsWithoutCode(ctx context.Context, badgeIDs []string, limit int) ([]models.UserBadgeAward, error)
}

// Коды скидок, уникальность code и (userID, badgeID)
type CodeStore interface {
	InsertCode(ctx context.Context, code models.DiscountCode) error
	GetCode(ctx context.Context, userID string, badgeID string) (models.DiscountCode, error)
	UserCodes(ctx context.Context, userID string) ([]models.DiscountCode, error)
}

type ProfileStore interface {
	GetArchetype(ctx context.Context, userID string) (models.Archetype, error)
	SetArchetype(ctx context.Context, userID string, archetype models.Archetype) error
}

type SettingsStorage interface {
	GetSettings(ctx context.Context) (map[string]string, error)
	SaveSetting(ctx context.Context, key string, value string) error
}

// Источник каталога бейджей
type DefinitionStorage interface {
	GetAllDefinitions(ctx context.Context) ([]models.BadgeDefinition, error)
}

// Кэш обработанных событий
type EventCache interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	SetProcessed(ctx context.Context, eventID string) error
}

// Уведомления о выданных бейджах
type AwardNotifier interface {
	BadgesGranted(ctx context.Context, userID string, granted []models.GrantedBadge) error
}
