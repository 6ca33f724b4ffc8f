package badges

import (
	"context"
	"errors"
	"testing"
	"time"

	models "github.com/glkeru/loyalty/badges/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestHandleMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testCatalog())
	f.setArchetype(t, "U", "DF")
	consumer := NewEventConsumer(f.evaluator, zap.NewNop())

	require.NoError(t, consumer.HandleMessage(ctx, []byte(
		`{"userId":"U","eventType":"check_in_completed","payload":{"streakCount":3},"eventId":"k1"}`)))
	require.Equal(t, []string{"F1_DF"}, f.heldBadges(t, "U"))

	// невалидные отбрасываются без ошибки
	require.NoError(t, consumer.HandleMessage(ctx, []byte(`{broken`)))
	require.NoError(t, consumer.HandleMessage(ctx, []byte(`{"userId":"U","eventType":"login"}`)))
	require.NoError(t, consumer.HandleMessage(ctx, []byte(`{"userId":"U","eventType":"ritual_completed","payload":{}}`)))
}

func TestHandleMessageRetry(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	cont := gomock.NewController(t)
	defer cont.Finish()

	registry, err := NewRegistry(ctx, testCatalog(), logger)
	require.NoError(t, err)
	settings, err := NewSettingsStore(ctx, staticSettings{}, models.DefaultSettings(), logger)
	require.NoError(t, err)

	events := NewMockEventLog(cont)
	awards := NewMockAwardStore(cont)
	profiles := NewMockProfileStore(cont)

	// две ошибки, затем успех
	gomock.InOrder(
		events.EXPECT().Get(gomock.Any(), "k1").Return(models.BadgeEvent{}, errors.New("timeout")),
		events.EXPECT().Get(gomock.Any(), "k1").Return(models.BadgeEvent{}, errors.New("timeout")),
		events.EXPECT().Get(gomock.Any(), "k1").Return(models.BadgeEvent{UserID: "U", ProcessedAt: new(time.Time)}, nil),
	)

	evaluator := NewEvaluator(registry, settings, events, awards, profiles, NewMinter(nil, settings, logger), logger)
	consumer := NewEventConsumer(evaluator, logger)
	consumer.backoff = time.Millisecond

	require.NoError(t, consumer.HandleMessage(ctx, []byte(
		`{"userId":"U","eventType":"check_in_completed","payload":{"streakCount":3},"eventId":"k1"}`)))

	// попытки исчерпаны
	events.EXPECT().Get(gomock.Any(), "k2").Return(models.BadgeEvent{}, errors.New("timeout")).Times(consumer.attempts)
	err = consumer.HandleMessage(ctx, []byte(
		`{"userId":"U","eventType":"check_in_completed","payload":{"streakCount":3},"eventId":"k2"}`))
	require.ErrorIs(t, err, models.ErrStorage)
}
