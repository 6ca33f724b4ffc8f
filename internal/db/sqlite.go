package badges

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	models "github.com/glkeru/loyalty/badges/internal/models"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS badge_events (
		event_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		received_at INTEGER NOT NULL,
		processed_at INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_badge_events_user_type ON badge_events(user_id, event_type, received_at)`,
	`CREATE TABLE IF NOT EXISTS user_badge_awards (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		badge_id TEXT NOT NULL,
		awarded_at INTEGER NOT NULL,
		triggering_event_id TEXT NOT NULL,
		UNIQUE (user_id, badge_id)
	)`,
	`CREATE TABLE IF NOT EXISTS discount_codes (
		code TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		badge_id TEXT NOT NULL,
		percent INTEGER NOT NULL,
		issued_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		consumed_at INTEGER,
		UNIQUE (user_id, badge_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id TEXT PRIMARY KEY,
		archetype TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS badge_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
}

// Хранилище на SQLite (локальный запуск и тесты)
type SQLiteDB struct {
	db     *sqlx.DB
	logger *zap.Logger
}

type eventRow struct {
	EventID     string        `db:"event_id"`
	UserID      string        `db:"user_id"`
	EventType   string        `db:"event_type"`
	Payload     string        `db:"payload"`
	ReceivedAt  int64         `db:"received_at"`
	ProcessedAt sql.NullInt64 `db:"processed_at"`
}

type awardRow struct {
	ID                string `db:"id"`
	UserID            string `db:"user_id"`
	BadgeID           string `db:"badge_id"`
	AwardedAt         int64  `db:"awarded_at"`
	TriggeringEventID string `db:"triggering_event_id"`
}

type codeRow struct {
	Code       string        `db:"code"`
	UserID     string        `db:"user_id"`
	BadgeID    string        `db:"badge_id"`
	Percent    int           `db:"percent"`
	IssuedAt   int64         `db:"issued_at"`
	ExpiresAt  int64         `db:"expires_at"`
	ConsumedAt sql.NullInt64 `db:"consumed_at"`
}

func NewSQLiteDB(ctx context.Context, path string, logger *zap.Logger) (*SQLiteDB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is not set")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// один писатель
	db.SetMaxOpenConns(1)

	for _, q := range sqliteSchema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &SQLiteDB{db, logger}, nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) logSQL(err error, query string, args []any) {
	s.logger.Error("SQL error",
		zap.Error(err),
		zap.String("query", query),
		zap.Any("args", args),
	)
}

func isConstraint(err error) bool {
	var e *sqlite.Error
	return errors.As(err, &e) && e.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

// Журнал событий

func (s *SQLiteDB) Exists(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM badge_events WHERE event_id = ?)", eventID)
	return exists, err
}

func (s *SQLiteDB) Get(ctx context.Context, eventID string) (models.BadgeEvent, error) {
	query, args, err := sq.Select("*").From("badge_events").Where(sq.Eq{"event_id": eventID}).ToSql()
	if err != nil {
		return models.BadgeEvent{}, err
	}
	var row eventRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BadgeEvent{}, fmt.Errorf("event %w", models.ErrNotFound)
		}
		return models.BadgeEvent{}, err
	}
	return models.BadgeEvent{
		EventID:     row.EventID,
		UserID:      row.UserID,
		EventType:   models.EventType(row.EventType),
		Payload:     []byte(row.Payload),
		ReceivedAt:  fromMillis(row.ReceivedAt),
		ProcessedAt: nullMillis(row.ProcessedAt),
	}, nil
}

func (s *SQLiteDB) Append(ctx context.Context, event models.BadgeEvent) error {
	query, args, err := sq.Insert("badge_events").
		Columns("event_id", "user_id", "event_type", "payload", "received_at").
		Values(event.EventID, event.UserID, string(event.EventType), string(event.Payload), millis(event.ReceivedAt)).
		Suffix("ON CONFLICT (event_id) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logSQL(err, query, args)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %s: %w", event.EventID, models.ErrDuplicateEvent)
	}
	return nil
}

func (s *SQLiteDB) MarkProcessed(ctx context.Context, eventID string, at time.Time) error {
	query, args, err := sq.Update("badge_events").
		Set("processed_at", millis(at)).
		Where(sq.Eq{"event_id": eventID}).
		Where(sq.Eq{"processed_at": nil}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.logSQL(err, query, args)
		return err
	}
	return nil
}

func (s *SQLiteDB) CountSince(ctx context.Context, userID string, eventType models.EventType, since time.Time) (int, error) {
	query, args, err := sq.Select("COUNT(*)").
		From("badge_events").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"event_type": string(eventType)}).
		Where(sq.GtOrEq{"received_at": millis(since)}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		s.logSQL(err, query, args)
		return 0, err
	}
	return count, nil
}

// Бейджи

func (s *SQLiteDB) HasAward(ctx context.Context, userID string, badgeID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM user_badge_awards WHERE user_id = ? AND badge_id = ?)", userID, badgeID)
	return exists, err
}

func (s *SQLiteDB) GetAward(ctx context.Context, userID string, badgeID string) (models.UserBadgeAward, error) {
	query, args, err := sq.Select(awardColumns...).
		From("user_badge_awards").
		Where(sq.Eq{"user_id": userID, "badge_id": badgeID}).
		ToSql()
	if err != nil {
		return models.UserBadgeAward{}, err
	}
	var row awardRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.UserBadgeAward{}, fmt.Errorf("award %w", models.ErrNotFound)
		}
		return models.UserBadgeAward{}, err
	}
	return row.model(), nil
}

func (s *SQLiteDB) TryAward(ctx context.Context, award models.UserBadgeAward) error {
	query, args, err := sq.Insert("user_badge_awards").
		Columns(awardColumns...).
		Values(award.ID, award.UserID, award.BadgeID, millis(award.AwardedAt), award.TriggeringEventID).
		Suffix("ON CONFLICT (user_id, badge_id) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logSQL(err, query, args)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s/%s: %w", award.UserID, award.BadgeID, models.ErrAlreadyAwarded)
	}
	return nil
}

func (s *SQLiteDB) UserAwards(ctx context.Context, userID string) ([]models.UserBadgeAward, error) {
	query, args, err := sq.Select(awardColumns...).
		From("user_badge_awards").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("awarded_at", "badge_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	return s.selectAwards(ctx, query, args)
}

func (s *SQLiteDB) AwardsWithoutCode(ctx context.Context, badgeIDs []string, limit int) ([]models.UserBadgeAward, error) {
	if len(badgeIDs) == 0 {
		return nil, nil
	}
	query, args, err := sq.Select("a.id", "a.user_id", "a.badge_id", "a.awarded_at", "a.triggering_event_id").
		From("user_badge_awards a").
		LeftJoin("discount_codes c ON c.user_id = a.user_id AND c.badge_id = a.badge_id").
		Where(sq.Eq{"c.code": nil}).
		Where(sq.Eq{"a.badge_id": badgeIDs}).
		OrderBy("a.awarded_at").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	return s.selectAwards(ctx, query, args)
}

func (s *SQLiteDB) selectAwards(ctx context.Context, query string, args []any) ([]models.UserBadgeAward, error) {
	var rows []awardRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		s.logSQL(err, query, args)
		return nil, err
	}
	awards := make([]models.UserBadgeAward, 0, len(rows))
	for _, r := range rows {
		awards = append(awards, r.model())
	}
	return awards, nil
}

func (r awardRow) model() models.UserBadgeAward {
	return models.UserBadgeAward{
		ID:                r.ID,
		UserID:            r.UserID,
		BadgeID:           r.BadgeID,
		AwardedAt:         fromMillis(r.AwardedAt),
		TriggeringEventID: r.TriggeringEventID,
	}
}

// Коды скидок

func (s *SQLiteDB) InsertCode(ctx context.Context, code models.DiscountCode) error {
	query, args, err := sq.Insert("discount_codes").
		Columns(codeColumns[:6]...).
		Values(code.Code, code.UserID, code.BadgeID, code.Percent, millis(code.IssuedAt), millis(code.ExpiresAt)).
		Suffix("ON CONFLICT (user_id, badge_id) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("code %s: %w", code.Code, models.ErrCodeCollision)
		}
		s.logSQL(err, query, args)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s/%s: %w", code.UserID, code.BadgeID, models.ErrAlreadyMinted)
	}
	return nil
}

func (s *SQLiteDB) GetCode(ctx context.Context, userID string, badgeID string) (models.DiscountCode, error) {
	query, args, err := sq.Select(codeColumns...).
		From("discount_codes").
		Where(sq.Eq{"user_id": userID, "badge_id": badgeID}).
		ToSql()
	if err != nil {
		return models.DiscountCode{}, err
	}
	var row codeRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DiscountCode{}, fmt.Errorf("discount code %w", models.ErrNotFound)
		}
		return models.DiscountCode{}, err
	}
	return row.model(), nil
}

func (s *SQLiteDB) UserCodes(ctx context.Context, userID string) ([]models.DiscountCode, error) {
	query, args, err := sq.Select(codeColumns...).
		From("discount_codes").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("issued_at", "badge_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	var rows []codeRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		s.logSQL(err, query, args)
		return nil, err
	}
	codes := make([]models.DiscountCode, 0, len(rows))
	for _, r := range rows {
		codes = append(codes, r.model())
	}
	return codes, nil
}

func (r codeRow) model() models.DiscountCode {
	return models.DiscountCode{
		Code:       r.Code,
		UserID:     r.UserID,
		BadgeID:    r.BadgeID,
		Percent:    r.Percent,
		IssuedAt:   fromMillis(r.IssuedAt),
		ExpiresAt:  fromMillis(r.ExpiresAt),
		ConsumedAt: nullMillis(r.ConsumedAt),
	}
}

// Профили

func (s *SQLiteDB) GetArchetype(ctx context.Context, userID string) (models.Archetype, error) {
	var archetype string
	err := s.db.GetContext(ctx, &archetype, "SELECT archetype FROM user_profiles WHERE user_id = ?", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return models.Archetype(archetype), nil
}

func (s *SQLiteDB) SetArchetype(ctx context.Context, userID string, archetype models.Archetype) error {
	query, args, err := sq.Insert("user_profiles").
		Columns("user_id", "archetype", "updated_at").
		Values(userID, string(archetype), millis(time.Now())).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET archetype = excluded.archetype, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.logSQL(err, query, args)
		return err
	}
	return nil
}

// Настройки

func (s *SQLiteDB) GetSettings(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := s.db.SelectContext(ctx, &rows, "SELECT key, value FROM badge_settings"); err != nil {
		return nil, err
	}
	settings := make(map[string]string, len(rows))
	for _, r := range rows {
		settings[r.Key] = r.Value
	}
	return settings, nil
}

func (s *SQLiteDB) SaveSetting(ctx context.Context, key string, value string) error {
	query, args, err := sq.Insert("badge_settings").
		Columns("key", "value", "updated_at").
		Values(key, value, millis(time.Now())).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.logSQL(err, query, args)
		return err
	}
	return nil
}
