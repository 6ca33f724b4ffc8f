package badges

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	models "github.com/glkeru/loyalty/badges/internal/models"
	"go.uber.org/zap"
)

// Обработка сообщений очереди событий
type EventConsumer struct {
	evaluator *Evaluator
	logger    *zap.Logger
	attempts  int
	backoff   time.Duration
}

func NewEventConsumer(evaluator *Evaluator, logger *zap.Logger) *EventConsumer {
	return &EventConsumer{evaluator, logger, 5, 500 * time.Millisecond}
}

// Ошибки хранилища повторяются с растущей паузой, невалидные события отбрасываются.
// Ошибка возвращается только если сообщение нужно прочитать снова
func (c *EventConsumer) HandleMessage(ctx context.Context, body []byte) error {
	req := models.EventRequest{}
	if err := json.Unmarshal(body, &req); err != nil {
		c.logger.Warn("event dropped", zap.Error(err), zap.ByteString("body", body))
		return nil
	}

	delay := c.backoff
	for attempt := 1; ; attempt++ {
		granted, err := c.evaluator.Evaluate(ctx, req)
		switch {
		case err == nil:
			if len(granted) > 0 {
				c.logger.Info("event processed",
					zap.String("user", req.UserID),
					zap.Int("badges", len(granted)),
				)
			}
			return nil
		case errors.Is(err, models.ErrInvalidEvent), errors.Is(err, models.ErrInvalidPayload):
			c.logger.Warn("event dropped",
				zap.String("user", req.UserID),
				zap.String("eventType", req.EventType),
				zap.Error(err),
			)
			return nil
		}

		if attempt >= c.attempts {
			return fmt.Errorf("event %s: %d attempts: %w", req.EventID, attempt, err)
		}
		c.logger.Warn("event retry", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
