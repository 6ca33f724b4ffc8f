package badges

import (
	"context"
	"errors"
	"testing"
	"time"

	models "github.com/glkeru/loyalty/badges/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testCatalog())

	// выдано без кода: F4 у трех пользователей, R1 без награды
	for _, user := range []string{"u1", "u2", "u3"} {
		f.grant(t, user, "F4_DF", "R1")
	}
	_, err := f.minter.Mint(ctx, "u1", "F4_DF", 10)
	require.NoError(t, err)

	reconciler := NewReconciler(f.registry, f.store, f.minter, 1, zap.NewNop())
	minted, err := reconciler.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, minted)

	for _, user := range []string{"u1", "u2", "u3"} {
		codes, err := f.store.UserCodes(ctx, user)
		require.NoError(t, err)
		require.Len(t, codes, 1, user)
		require.Equal(t, "F4_DF", codes[0].BadgeID)
		require.Equal(t, 10, codes[0].Percent)
	}

	// повторный запуск ничего не делает
	minted, err = reconciler.Run(ctx)
	require.NoError(t, err)
	require.Zero(t, minted)
}

func TestReconcileMintFailure(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	cont := gomock.NewController(t)
	defer cont.Finish()

	registry, err := NewRegistry(ctx, testCatalog(), logger)
	require.NoError(t, err)
	settings, err := NewSettingsStore(ctx, staticSettings{}, models.DefaultSettings(), logger)
	require.NoError(t, err)

	awards := NewMockAwardStore(cont)
	codes := NewMockCodeStore(cont)

	pending := []models.UserBadgeAward{
		{ID: uuid.NewString(), UserID: "u1", BadgeID: "F4_DF", AwardedAt: time.Now()},
	}
	awards.EXPECT().
		AwardsWithoutCode(gomock.Any(), gomock.Any(), 10).
		Return(pending, nil).
		Times(1)
	codes.EXPECT().GetCode(gomock.Any(), "u1", "F4_DF").Return(models.DiscountCode{}, errors.New("timeout"))

	reconciler := NewReconciler(registry, awards, NewMinter(codes, settings, logger), 10, logger)
	minted, err := reconciler.Run(ctx)
	require.NoError(t, err)
	require.Zero(t, minted)
}
