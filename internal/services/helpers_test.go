package badges

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	db "github.com/glkeru/loyalty/badges/internal/db"
	models "github.com/glkeru/loyalty/badges/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func cond(kind models.ConditionKind, threshold int) models.Condition {
	return models.Condition{Kind: kind, Threshold: threshold}
}

func countCond(t models.EventType, threshold, windowDays int) models.Condition {
	return models.Condition{Kind: models.ConditionEventCount, EventType: t, Threshold: threshold, WindowDays: windowDays}
}

var streakEvents = []models.EventType{models.EventCheckInCompleted, models.EventStreakUpdated}

// Каталог для тестов: трек F для DF, ритуалы без архетипа
func testCatalog() db.StaticCatalog {
	return db.StaticCatalog{
		{ID: "F1_DF", Name: "F1", On: streakEvents, Condition: cond(models.ConditionStreak, 3)},
		{ID: "F2_DF", Name: "F2", On: streakEvents, Condition: cond(models.ConditionStreak, 7)},
		{ID: "F3_DF", Name: "F3", On: streakEvents, Condition: cond(models.ConditionStreak, 14)},
		{ID: "F4_DF", Name: "F4", On: streakEvents, Condition: cond(models.ConditionStreak, 30), RewardPercent: 10},
		{ID: "F5_DF", Name: "F5", On: streakEvents, Condition: cond(models.ConditionStreak, 100), RewardPercent: 25},
		{ID: "F1_CN", Name: "F1 CN", On: streakEvents, Condition: cond(models.ConditionStreak, 3)},
		{ID: "R1", Name: "R1", On: []models.EventType{models.EventRitualCompleted},
			Condition: countCond(models.EventRitualCompleted, 1, 0)},
		{ID: "R2", Name: "R2", On: []models.EventType{models.EventRitualCompleted},
			Condition: countCond(models.EventRitualCompleted, 3, 7), RewardPercent: 5},
	}
}

type fixture struct {
	store     *db.SQLiteDB
	registry  *Registry
	settings  *SettingsStore
	minter    *Minter
	evaluator *Evaluator
}

func newFixture(t *testing.T, source db.StaticCatalog) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	store, err := db.NewSQLiteDB(ctx, filepath.Join(t.TempDir(), "badges.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	registry, err := NewRegistry(ctx, source, logger)
	require.NoError(t, err)
	settings, err := NewSettingsStore(ctx, store, models.DefaultSettings(), logger)
	require.NoError(t, err)
	minter := NewMinter(store, settings, logger)
	evaluator := NewEvaluator(registry, settings, store, store, store, minter, logger)

	return &fixture{store, registry, settings, minter, evaluator}
}

func (f *fixture) setArchetype(t *testing.T, user string, a models.Archetype) {
	t.Helper()
	require.NoError(t, f.store.SetArchetype(context.Background(), user, a))
}

// Выдать бейджи напрямую, минуя оценку
func (f *fixture) grant(t *testing.T, user string, badges ...string) {
	t.Helper()
	for _, b := range badges {
		require.NoError(t, f.store.TryAward(context.Background(), models.UserBadgeAward{
			ID:                uuid.NewString(),
			UserID:            user,
			BadgeID:           b,
			AwardedAt:         time.Now().UTC(),
			TriggeringEventID: "seed",
		}))
	}
}

func (f *fixture) heldBadges(t *testing.T, user string) []string {
	t.Helper()
	awards, err := f.store.UserAwards(context.Background(), user)
	require.NoError(t, err)
	ids := make([]string, 0, len(awards))
	for _, a := range awards {
		ids = append(ids, a.BadgeID)
	}
	return ids
}

func checkIn(user string, streak int, eventID string) models.EventRequest {
	return models.EventRequest{
		UserID:    user,
		EventType: string(models.EventCheckInCompleted),
		Payload:   json.RawMessage(fmt.Sprintf(`{"streakCount": %d, "shieldUsed": false}`, streak)),
		EventID:   eventID,
	}
}

func badgeIDs(granted []models.GrantedBadge) []string {
	ids := make([]string, 0, len(granted))
	for _, g := range granted {
		ids = append(ids, g.BadgeID)
	}
	return ids
}
