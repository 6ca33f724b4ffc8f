package badges

import (
	"context"
	"testing"
	"time"

	models "github.com/glkeru/loyalty/badges/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSettingsStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testCatalog())

	require.Equal(t, models.DefaultSettings(), f.settings.Current())

	// переопределения из БД, неизвестный ключ игнорируется
	require.NoError(t, f.store.SaveSetting(ctx, models.SettingGraceWindowDays, "3"))
	require.NoError(t, f.store.SaveSetting(ctx, "legacy_flag", "on"))
	require.NoError(t, f.store.SaveSetting(ctx, models.SettingCodeValidityDays, "abc"))
	require.NoError(t, f.settings.Reload(ctx))

	current := f.settings.Current()
	require.Equal(t, 3, current.GraceWindowDays)
	require.Equal(t, models.DefaultSettings().CodeValidity, current.CodeValidity)

	// снимок не меняется после Update
	snapshot := f.settings.Current()
	updated, err := f.settings.Update(ctx, models.SettingEnabled, "false")
	require.NoError(t, err)
	require.False(t, updated.Enabled)
	require.False(t, f.settings.Current().Enabled)
	require.True(t, snapshot.Enabled)

	_, err = f.settings.Update(ctx, "streak_multiplier", "2")
	require.ErrorIs(t, err, models.ErrUnknownSetting)

	_, err = f.settings.Update(ctx, models.SettingGraceWindowDays, "-1")
	require.Error(t, err)
	require.Equal(t, 3, f.settings.Current().GraceWindowDays)

	// значение сохранено и переживает перезапуск
	other, err := NewSettingsStore(ctx, f.store, models.DefaultSettings(), zap.NewNop())
	require.NoError(t, err)
	require.False(t, other.Current().Enabled)
	require.Equal(t, 3, other.Current().GraceWindowDays)
}

func TestSettingsDefaultsFromConfig(t *testing.T) {
	f := newFixture(t, testCatalog())
	defaults := models.DefaultSettings()
	defaults.CodeValidity = 7 * 24 * time.Hour

	s, err := NewSettingsStore(context.Background(), f.store, defaults, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 7*24*time.Hour, s.Current().CodeValidity)
}
