package badges

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	interf "github.com/glkeru/loyalty/badges/internal/interfaces"
	models "github.com/glkeru/loyalty/badges/internal/models"
	"go.uber.org/zap"
)

const (
	// без I, O, 0, 1
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 10
	mintAttempts = 5
)

// Выпуск кодов скидок за бейджи
type Minter struct {
	codes    interf.CodeStore
	settings *SettingsStore
	logger   *zap.Logger
	now      func() time.Time
	generate func() (string, error)
}

func NewMinter(codes interf.CodeStore, settings *SettingsStore, logger *zap.Logger) *Minter {
	return &Minter{
		codes:    codes,
		settings: settings,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		generate: GenerateCode,
	}
}

// Код для пары (пользователь, бейдж). Повторный вызов возвращает уже выпущенный код
func (m *Minter) Mint(ctx context.Context, userID, badgeID string, percent int) (models.DiscountCode, error) {
	existing, err := m.codes.GetCode(ctx, userID, badgeID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return models.DiscountCode{}, err
	}

	issued := m.now()
	validity := m.settings.Current().CodeValidity
	for attempt := 1; attempt <= mintAttempts; attempt++ {
		token, err := m.generate()
		if err != nil {
			return models.DiscountCode{}, err
		}
		code := models.DiscountCode{
			Code:      token,
			UserID:    userID,
			BadgeID:   badgeID,
			Percent:   percent,
			IssuedAt:  issued,
			ExpiresAt: issued.Add(validity),
		}
		err = m.codes.InsertCode(ctx, code)
		switch {
		case err == nil:
			codesMinted.Inc()
			return code, nil
		case errors.Is(err, models.ErrCodeCollision):
			m.logger.Warn("discount code collision",
				zap.String("badge", badgeID),
				zap.Int("attempt", attempt),
			)
			continue
		case errors.Is(err, models.ErrAlreadyMinted):
			// параллельный выпуск, возвращаем код победителя
			return m.codes.GetCode(ctx, userID, badgeID)
		default:
			return models.DiscountCode{}, err
		}
	}
	return models.DiscountCode{}, fmt.Errorf("%w: %d attempts for %s/%s", models.ErrCodeCollision, mintAttempts, userID, badgeID)
}

// Случайный код из codeAlphabet
func GenerateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	// len(codeAlphabet) == 32, остаток от деления байта равномерный
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
