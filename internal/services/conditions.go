package badges

import (
	"context"
	"fmt"
	"sync"
	"time"

	interf "github.com/glkeru/loyalty/badges/internal/interfaces"
	models "github.com/glkeru/loyalty/badges/internal/models"
)

type countKey struct {
	eventType  models.EventType
	windowDays int
}

type countResult struct {
	once  sync.Once
	count int
	err   error
}

// Контекст проверки условий одного события
type conditionEnv struct {
	events   interf.EventLog
	userID   string
	payload  models.Payload
	settings models.Settings
	now      time.Time

	mu     sync.Mutex
	counts map[countKey]*countResult
}

func newConditionEnv(events interf.EventLog, userID string, payload models.Payload, settings models.Settings, now time.Time) *conditionEnv {
	return &conditionEnv{
		events:   events,
		userID:   userID,
		payload:  payload,
		settings: settings,
		now:      now,
		counts:   make(map[countKey]*countResult),
	}
}

// Проверка условия
func (e *conditionEnv) satisfied(ctx context.Context, c models.Condition) (bool, error) {
	switch c.Kind {
	case models.ConditionStreak:
		carrier, ok := e.payload.(models.StreakCarrier)
		if !ok {
			return false, nil
		}
		return carrier.StreakInfo().Effective(e.settings) >= c.Threshold, nil

	case models.ConditionEventCount:
		count, err := e.count(ctx, c.EventType, c.WindowDays)
		if err != nil {
			return false, err
		}
		return count >= c.Threshold, nil

	case models.ConditionAll:
		for _, sub := range c.Conditions {
			ok, err := e.satisfied(ctx, sub)
			if err != nil || !ok {
				return false, err
			}
		}
		return len(c.Conditions) > 0, nil

	case models.ConditionAny:
		for _, sub := range c.Conditions {
			ok, err := e.satisfied(ctx, sub)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("unknown condition kind %q", c.Kind)
}

// Кол-во событий за окно, один запрос на ключ за всю оценку
func (e *conditionEnv) count(ctx context.Context, t models.EventType, windowDays int) (int, error) {
	key := countKey{t, windowDays}
	e.mu.Lock()
	r, ok := e.counts[key]
	if !ok {
		r = &countResult{}
		e.counts[key] = r
	}
	e.mu.Unlock()

	r.once.Do(func() {
		var since time.Time
		if windowDays > 0 {
			since = e.now.Add(-time.Duration(windowDays) * 24 * time.Hour)
		}
		r.count, r.err = e.events.CountSince(ctx, e.userID, t, since)
	})
	return r.count, r.err
}
