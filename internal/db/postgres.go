package badges

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	models "github.com/glkeru/loyalty/badges/internal/models"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const pgUniqueViolation = "23505"

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS badge_events (
		event_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		payload JSONB NOT NULL,
		received_at TIMESTAMPTZ NOT NULL,
		processed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_badge_events_user_type ON badge_events(user_id, event_type, received_at)`,
	`CREATE TABLE IF NOT EXISTS user_badge_awards (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		badge_id TEXT NOT NULL,
		awarded_at TIMESTAMPTZ NOT NULL,
		triggering_event_id TEXT NOT NULL,
		UNIQUE (user_id, badge_id)
	)`,
	`CREATE TABLE IF NOT EXISTS discount_codes (
		code TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		badge_id TEXT NOT NULL,
		percent INTEGER NOT NULL,
		issued_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		consumed_at TIMESTAMPTZ,
		UNIQUE (user_id, badge_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id TEXT PRIMARY KEY,
		archetype TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS badge_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

type BadgesDB struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewBadgesDB(ctx context.Context, dsn string, logger *zap.Logger) (*BadgesDB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("env BADGES_DB is not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	db := &BadgesDB{pool, logger}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

func (p *BadgesDB) Close() {
	p.pool.Close()
}

func (p *BadgesDB) migrate(ctx context.Context) error {
	for _, q := range pgSchema {
		if _, err := p.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (p *BadgesDB) logSQL(err error, sql string, args []any) {
	p.logger.Error("SQL error",
		zap.Error(err),
		zap.String("query", sql),
		zap.Any("args", args),
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Журнал событий

func (p *BadgesDB) Exists(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	row := p.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM badge_events WHERE event_id = $1)", eventID)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (p *BadgesDB) Get(ctx context.Context, eventID string) (models.BadgeEvent, error) {
	sql, args, err := sq.Select("event_id", "user_id", "event_type", "payload", "received_at", "processed_at").
		From("badge_events").
		Where(sq.Eq{"event_id": eventID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return models.BadgeEvent{}, err
	}

	var event models.BadgeEvent
	var processed pgtype.Timestamptz
	err = p.pool.QueryRow(ctx, sql, args...).
		Scan(&event.EventID, &event.UserID, &event.EventType, &event.Payload, &event.ReceivedAt, &processed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.BadgeEvent{}, fmt.Errorf("event %w", models.ErrNotFound)
		}
		return models.BadgeEvent{}, err
	}
	event.ProcessedAt = timestamptzPtr(processed)
	return event, nil
}

// Запись события, повтор event_id - ErrDuplicateEvent
func (p *BadgesDB) Append(ctx context.Context, event models.BadgeEvent) error {
	sql, args, err := sq.Insert("badge_events").
		Columns("event_id", "user_id", "event_type", "payload", "received_at").
		Values(event.EventID, event.UserID, string(event.EventType), string(event.Payload), event.ReceivedAt).
		Suffix("ON CONFLICT (event_id) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		p.logSQL(err, sql, args)
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %s: %w", event.EventID, models.ErrDuplicateEvent)
	}
	return nil
}

func (p *BadgesDB) MarkProcessed(ctx context.Context, eventID string, at time.Time) error {
	sql, args, err := sq.Update("badge_events").
		Set("processed_at", at).
		Where(sq.Eq{"event_id": eventID}).
		Where(sq.Eq{"processed_at": nil}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, sql, args...)
	if err != nil {
		p.logSQL(err, sql, args)
		return err
	}
	return nil
}

func (p *BadgesDB) CountSince(ctx context.Context, userID string, eventType models.EventType, since time.Time) (int, error) {
	sql, args, err := sq.Select("COUNT(*)").
		From("badge_events").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"event_type": string(eventType)}).
		Where(sq.GtOrEq{"received_at": since}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := p.pool.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		p.logSQL(err, sql, args)
		return 0, err
	}
	return count, nil
}

// Бейджи

func (p *BadgesDB) HasAward(ctx context.Context, userID string, badgeID string) (bool, error) {
	var exists bool
	row := p.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM user_badge_awards WHERE user_id = $1 AND badge_id = $2)", userID, badgeID)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

var awardColumns = []string{"id", "user_id", "badge_id", "awarded_at", "triggering_event_id"}

func (p *BadgesDB) GetAward(ctx context.Context, userID string, badgeID string) (models.UserBadgeAward, error) {
	sql, args, err := sq.Select(awardColumns...).
		From("user_badge_awards").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"badge_id": badgeID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return models.UserBadgeAward{}, err
	}
	var award models.UserBadgeAward
	var id pgtype.UUID
	err = p.pool.QueryRow(ctx, sql, args...).
		Scan(&id, &award.UserID, &award.BadgeID, &award.AwardedAt, &award.TriggeringEventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.UserBadgeAward{}, fmt.Errorf("award %w", models.ErrNotFound)
		}
		return models.UserBadgeAward{}, err
	}
	award.ID = uuidString(id)
	return award, nil
}

// Атомарная выдача: уникальный индекс (user_id, badge_id)
func (p *BadgesDB) TryAward(ctx context.Context, award models.UserBadgeAward) error {
	sql, args, err := sq.Insert("user_badge_awards").
		Columns(awardColumns...).
		Values(award.ID, award.UserID, award.BadgeID, award.AwardedAt, award.TriggeringEventID).
		Suffix("ON CONFLICT (user_id, badge_id) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		p.logSQL(err, sql, args)
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", award.UserID, award.BadgeID, models.ErrAlreadyAwarded)
	}
	return nil
}

func (p *BadgesDB) UserAwards(ctx context.Context, userID string) ([]models.UserBadgeAward, error) {
	sql, args, err := sq.Select(awardColumns...).
		From("user_badge_awards").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("awarded_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}
	return p.queryAwards(ctx, sql, args)
}

// Выданные бейджи с наградой, для которых нет кода
func (p *BadgesDB) AwardsWithoutCode(ctx context.Context, badgeIDs []string, limit int) ([]models.UserBadgeAward, error) {
	if len(badgeIDs) == 0 {
		return nil, nil
	}
	sql, args, err := sq.Select("a.id", "a.user_id", "a.badge_id", "a.awarded_at", "a.triggering_event_id").
		From("user_badge_awards a").
		LeftJoin("discount_codes c ON c.user_id = a.user_id AND c.badge_id = a.badge_id").
		Where(sq.Eq{"c.code": nil}).
		Where(sq.Eq{"a.badge_id": badgeIDs}).
		OrderBy("a.awarded_at").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}
	return p.queryAwards(ctx, sql, args)
}

func (p *BadgesDB) queryAwards(ctx context.Context, sql string, args []any) ([]models.UserBadgeAward, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		p.logSQL(err, sql, args)
		return nil, err
	}
	defer rows.Close()

	var awards []models.UserBadgeAward
	for rows.Next() {
		var award models.UserBadgeAward
		var id pgtype.UUID
		if err := rows.Scan(&id, &award.UserID, &award.BadgeID, &award.AwardedAt, &award.TriggeringEventID); err != nil {
			return nil, err
		}
		award.ID = uuidString(id)
		awards = append(awards, award)
	}
	return awards, rows.Err()
}

// Коды скидок

var codeColumns = []string{"code", "user_id", "badge_id", "percent", "issued_at", "expires_at", "consumed_at"}

// Конфликт code - ErrCodeCollision, конфликт пары - ErrAlreadyMinted
func (p *BadgesDB) InsertCode(ctx context.Context, code models.DiscountCode) error {
	sql, args, err := sq.Insert("discount_codes").
		Columns(codeColumns[:6]...).
		Values(code.Code, code.UserID, code.BadgeID, code.Percent, code.IssuedAt, code.ExpiresAt).
		Suffix("ON CONFLICT (user_id, badge_id) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("code %s: %w", code.Code, models.ErrCodeCollision)
		}
		p.logSQL(err, sql, args)
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", code.UserID, code.BadgeID, models.ErrAlreadyMinted)
	}
	return nil
}

func (p *BadgesDB) GetCode(ctx context.Context, userID string, badgeID string) (models.DiscountCode, error) {
	sql, args, err := sq.Select(codeColumns...).
		From("discount_codes").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"badge_id": badgeID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return models.DiscountCode{}, err
	}
	codes, err := p.queryCodes(ctx, sql, args)
	if err != nil {
		return models.DiscountCode{}, err
	}
	if len(codes) == 0 {
		return models.DiscountCode{}, fmt.Errorf("discount code %w", models.ErrNotFound)
	}
	return codes[0], nil
}

func (p *BadgesDB) UserCodes(ctx context.Context, userID string) ([]models.DiscountCode, error) {
	sql, args, err := sq.Select(codeColumns...).
		From("discount_codes").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("issued_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}
	return p.queryCodes(ctx, sql, args)
}

func (p *BadgesDB) queryCodes(ctx context.Context, sql string, args []any) ([]models.DiscountCode, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		p.logSQL(err, sql, args)
		return nil, err
	}
	defer rows.Close()

	var codes []models.DiscountCode
	for rows.Next() {
		var c models.DiscountCode
		var consumed pgtype.Timestamptz
		if err := rows.Scan(&c.Code, &c.UserID, &c.BadgeID, &c.Percent, &c.IssuedAt, &c.ExpiresAt, &consumed); err != nil {
			return nil, err
		}
		c.ConsumedAt = timestamptzPtr(consumed)
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

// Профили

func (p *BadgesDB) GetArchetype(ctx context.Context, userID string) (models.Archetype, error) {
	var archetype pgtype.Text
	err := p.pool.QueryRow(ctx, "SELECT archetype FROM user_profiles WHERE user_id = $1", userID).Scan(&archetype)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return models.Archetype(archetype.String), nil
}

func (p *BadgesDB) SetArchetype(ctx context.Context, userID string, archetype models.Archetype) error {
	sql, args, err := sq.Insert("user_profiles").
		Columns("user_id", "archetype", "updated_at").
		Values(userID, string(archetype), time.Now().UTC()).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET archetype = EXCLUDED.archetype, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, sql, args...); err != nil {
		p.logSQL(err, sql, args)
		return err
	}
	return nil
}

// Настройки

func (p *BadgesDB) GetSettings(ctx context.Context) (map[string]string, error) {
	rows, err := p.pool.Query(ctx, "SELECT key, value FROM badge_settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

func (p *BadgesDB) SaveSetting(ctx context.Context, key string, value string) error {
	sql, args, err := sq.Insert("badge_settings").
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC()).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, sql, args...); err != nil {
		p.logSQL(err, sql, args)
		return err
	}
	return nil
}

func timestamptzPtr(ts pgtype.Timestamptz) *time.Time {
	if ts.Status != pgtype.Present {
		return nil
	}
	t := ts.Time
	return &t
}

func uuidString(id pgtype.UUID) string {
	if id.Status != pgtype.Present {
		return ""
	}
	b := id.Bytes
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
