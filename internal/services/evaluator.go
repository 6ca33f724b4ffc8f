package badges

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	interf "github.com/glkeru/loyalty/badges/internal/interfaces"
	models "github.com/glkeru/loyalty/badges/internal/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 8

var tracer = otel.Tracer("badges")

// Оценка событий и выдача бейджей
type Evaluator struct {
	registry *Registry
	settings *SettingsStore
	events   interf.EventLog
	awards   interf.AwardStore
	profiles interf.ProfileStore
	minter   *Minter
	cache    interf.EventCache
	notifier interf.AwardNotifier
	logger   *zap.Logger
	workers  int
	now      func() time.Time
}

func NewEvaluator(
	registry *Registry,
	settings *SettingsStore,
	events interf.EventLog,
	awards interf.AwardStore,
	profiles interf.ProfileStore,
	minter *Minter,
	logger *zap.Logger,
) *Evaluator {
	return &Evaluator{
		registry: registry,
		settings: settings,
		events:   events,
		awards:   awards,
		profiles: profiles,
		minter:   minter,
		logger:   logger,
		workers:  defaultWorkers,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Кэш обработанных событий (redis)
func (e *Evaluator) WithCache(cache interf.EventCache) *Evaluator {
	e.cache = cache
	return e
}

// Публикация выданных бейджей
func (e *Evaluator) WithNotifier(notifier interf.AwardNotifier) *Evaluator {
	e.notifier = notifier
	return e
}

// Кол-во параллельных проверок условий
func (e *Evaluator) WithWorkers(n int) *Evaluator {
	if n > 0 {
		e.workers = n
	}
	return e
}

// Обработка события: новые бейджи по возрастанию уровня.
// При ошибке хранилища возвращается то, что уже зафиксировано, и ошибка ErrStorage
func (e *Evaluator) Evaluate(ctx context.Context, req models.EventRequest) ([]models.GrantedBadge, error) {
	ctx, span := tracer.Start(ctx, "Evaluate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("user.id", req.UserID),
			attribute.String("event.type", req.EventType),
		),
	)
	defer span.End()

	start := time.Now()
	granted, result, err := e.evaluate(ctx, req)

	eventsTotal.WithLabelValues(req.EventType, result).Inc()
	if result != resultInvalid {
		evaluateDuration.WithLabelValues(req.EventType).Observe(time.Since(start).Seconds())
	}
	span.SetAttributes(attribute.Int("badges.granted", len(granted)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return granted, err
}

func (e *Evaluator) evaluate(ctx context.Context, req models.EventRequest) ([]models.GrantedBadge, string, error) {
	// проверка события
	if strings.TrimSpace(req.UserID) == "" {
		return nil, resultInvalid, fmt.Errorf("%w: userId is required", models.ErrInvalidEvent)
	}
	eventType, err := models.ParseEventType(req.EventType)
	if err != nil {
		return nil, resultInvalid, err
	}
	payload, err := models.DecodePayload(eventType, req.Payload)
	if err != nil {
		return nil, resultInvalid, err
	}

	// снимки на все время оценки
	settings := e.settings.Current()
	catalog := e.registry.Snapshot()
	now := e.now()

	eventID := req.EventID
	if eventID == "" {
		eventID, err = models.DeriveEventID(req.UserID, payload, now, settings.DedupWindow)
		if err != nil {
			return nil, resultInvalid, fmt.Errorf("%w: %w", models.ErrInvalidPayload, err)
		}
	}
	log := e.logger.With(zap.String("event", eventID), zap.String("user", req.UserID))

	// дедупликация
	if e.cache != nil {
		done, err := e.cache.IsProcessed(ctx, eventID)
		if err != nil {
			log.Warn("event cache", zap.Error(err))
		} else if done {
			return []models.GrantedBadge{}, resultDuplicate, nil
		}
	}

	resumed := false
	stored, err := e.events.Get(ctx, eventID)
	switch {
	case err == nil:
		if stored.UserID != req.UserID {
			// eventId уже известен: повторно не оцениваем, чужое событие не продолжаем
			log.Warn("event id recorded for another user", zap.String("owner", stored.UserID))
			return []models.GrantedBadge{}, resultDuplicate, nil
		}
		if stored.Processed() {
			e.markCached(ctx, log, eventID)
			return []models.GrantedBadge{}, resultDuplicate, nil
		}
		// событие записано, но не обработано - продолжаем
		resumed = true
		log.Info("resuming unprocessed event")
	case errors.Is(err, models.ErrNotFound):
		canonical, err := models.CanonicalPayload(payload)
		if err != nil {
			return nil, resultInvalid, fmt.Errorf("%w: %w", models.ErrInvalidPayload, err)
		}
		err = e.events.Append(ctx, models.BadgeEvent{
			EventID:    eventID,
			UserID:     req.UserID,
			EventType:  eventType,
			Payload:    canonical,
			ReceivedAt: now,
		})
		if errors.Is(err, models.ErrDuplicateEvent) {
			// параллельный вызов с тем же eventId уже записал событие
			return []models.GrantedBadge{}, resultDuplicate, nil
		}
		if err != nil {
			return nil, resultError, storageError("append event", err)
		}
	default:
		return nil, resultError, storageError("get event", err)
	}

	// глобальный выключатель
	if !settings.Enabled {
		if err := e.events.MarkProcessed(ctx, eventID, now); err != nil {
			return nil, resultError, storageError("mark processed", err)
		}
		e.markCached(ctx, log, eventID)
		return []models.GrantedBadge{}, resultDisabled, nil
	}

	archetype, err := e.profiles.GetArchetype(ctx, req.UserID)
	if err != nil {
		return nil, resultError, storageError("get archetype", err)
	}
	owned, err := e.awards.UserAwards(ctx, req.UserID)
	if err != nil {
		return nil, resultError, storageError("user awards", err)
	}
	held := make(map[string]models.UserBadgeAward, len(owned))
	// требования проверяются по бейджам, выданным до этого события
	before := make(map[string]models.UserBadgeAward, len(owned))
	for _, a := range owned {
		held[a.BadgeID] = a
		if a.TriggeringEventID != eventID {
			before[a.BadgeID] = a
		}
	}

	// кандидаты
	defs := catalog.DefinitionsForArchetype(archetype)
	granted := make(map[string]models.GrantedBadge)
	var candidates []models.BadgeDefinition
	for _, d := range defs {
		if a, ok := held[d.ID]; ok {
			// бейдж выдан этим же событием до сбоя - сообщаем повторно
			if resumed && a.TriggeringEventID == eventID {
				granted[d.ID] = models.GrantedBadge{BadgeID: d.ID, Tier: d.Tier, AwardedAt: a.AwardedAt}
			}
			continue
		}
		if !d.TriggeredBy(eventType) {
			continue
		}
		if !requirementsHeld(d, before) {
			continue
		}
		candidates = append(candidates, d)
	}

	// условия параллельно
	env := newConditionEnv(e.events, req.UserID, payload, settings, now)
	satisfied := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, d := range candidates {
		g.Go(func() error {
			ok, err := env.satisfied(gctx, d.Condition)
			if err != nil {
				return fmt.Errorf("%s: %w", d.ID, err)
			}
			satisfied[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return e.ordered(defs, granted), resultError, storageError("conditions", err)
	}

	// выдача по порядку
	for i, d := range candidates {
		if !satisfied[i] {
			continue
		}
		award := models.UserBadgeAward{
			ID:                uuid.NewString(),
			UserID:            req.UserID,
			BadgeID:           d.ID,
			AwardedAt:         now,
			TriggeringEventID: eventID,
		}
		err := e.awards.TryAward(ctx, award)
		if errors.Is(err, models.ErrAlreadyAwarded) {
			// проиграли гонку другому событию
			log.Debug("badge already awarded", zap.String("badge", d.ID))
			continue
		}
		if err != nil {
			return e.ordered(defs, granted), resultError, storageError("award "+d.ID, err)
		}
		badgesAwarded.WithLabelValues(d.ID).Inc()
		granted[d.ID] = models.GrantedBadge{BadgeID: d.ID, Tier: d.Tier, AwardedAt: now}
	}

	// коды скидок только к выданным бейджам
	for _, d := range defs {
		g, ok := granted[d.ID]
		if !ok || !d.HasReward() {
			continue
		}
		code, err := e.minter.Mint(ctx, req.UserID, d.ID, d.RewardPercent)
		if err != nil {
			return e.ordered(defs, granted), resultError, storageError("mint "+d.ID, err)
		}
		expires := code.ExpiresAt
		g.RewardCode = code.Code
		g.RewardPercent = code.Percent
		g.RewardExpiresAt = &expires
		granted[d.ID] = g
	}

	result := e.ordered(defs, granted)
	if len(result) > 0 && e.notifier != nil {
		if err := e.notifier.BadgesGranted(ctx, req.UserID, result); err != nil {
			log.Warn("award notification", zap.Error(err))
		}
	}

	if err := e.events.MarkProcessed(ctx, eventID, now); err != nil {
		return result, resultError, storageError("mark processed", err)
	}
	e.markCached(ctx, log, eventID)

	if len(result) > 0 {
		log.Info("badges granted", zap.Int("count", len(result)))
		return result, resultAwarded, nil
	}
	return result, resultNone, nil
}

// Все требуемые бейджи должны быть выданы до начала оценки
func requirementsHeld(d models.BadgeDefinition, held map[string]models.UserBadgeAward) bool {
	for _, id := range d.Requires {
		if _, ok := held[id]; !ok {
			return false
		}
	}
	return true
}

// Порядок результата: уровень, затем порядок каталога
func (e *Evaluator) ordered(defs []models.BadgeDefinition, granted map[string]models.GrantedBadge) []models.GrantedBadge {
	result := make([]models.GrantedBadge, 0, len(granted))
	for _, d := range defs {
		if g, ok := granted[d.ID]; ok {
			result = append(result, g)
		}
	}
	return result
}

func (e *Evaluator) markCached(ctx context.Context, log *zap.Logger, eventID string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.SetProcessed(ctx, eventID); err != nil {
		log.Warn("event cache", zap.Error(err))
	}
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrStorage, op, err)
}
