package badges

import (
	"encoding/json"
	"time"
)

// Архетип пользователя - ограничивает набор бейджей
type Archetype string

// Тип поведенческого события
type EventType string

const (
	EventCheckInCompleted EventType = "check_in_completed"
	EventRitualCompleted  EventType = "ritual_completed"
	EventWallInteraction  EventType = "wall_interaction"
	EventStreakUpdated    EventType = "streak_updated"
)

var eventTypes = map[EventType]struct{}{
	EventCheckInCompleted: {},
	EventRitualCompleted:  {},
	EventWallInteraction:  {},
	EventStreakUpdated:    {},
}

func (t EventType) Valid() bool {
	_, ok := eventTypes[t]
	return ok
}

// Виды условий
type ConditionKind string

const (
	ConditionStreak     ConditionKind = "streak"      // серия >= Threshold
	ConditionEventCount ConditionKind = "event_count" // событий EventType за WindowDays >= Threshold
	ConditionAll        ConditionKind = "all"
	ConditionAny        ConditionKind = "any"
)

// Условие открытия бейджа
type Condition struct {
	Kind       ConditionKind `bson:"kind" json:"kind" yaml:"kind"`
	Threshold  int           `bson:"threshold" json:"threshold,omitempty" yaml:"threshold,omitempty"`
	EventType  EventType     `bson:"event_type" json:"eventType,omitempty" yaml:"event_type,omitempty"`
	WindowDays int           `bson:"window_days" json:"windowDays,omitempty" yaml:"window_days,omitempty"` // 0 - за все время
	Conditions []Condition   `bson:"conditions" json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// Описание бейджа в каталоге
type BadgeDefinition struct {
	ID            string      `bson:"id" json:"id" yaml:"id"`
	Name          string      `bson:"name" json:"name" yaml:"name"`
	Track         string      `bson:"track" json:"track" yaml:"track,omitempty"`
	Tier          int         `bson:"tier" json:"tier" yaml:"tier,omitempty"`
	Archetype     Archetype   `bson:"archetype" json:"archetype,omitempty" yaml:"archetype,omitempty"` // пусто - для всех
	On            []EventType `bson:"on" json:"on,omitempty" yaml:"on,omitempty"`                     // пусто - любое событие
	Condition     Condition   `bson:"condition" json:"condition" yaml:"condition"`
	Requires      []string    `bson:"requires" json:"requires,omitempty" yaml:"requires,omitempty"`
	RewardPercent int         `bson:"reward_percent" json:"rewardPercent,omitempty" yaml:"reward_percent,omitempty"`
}

// Подходит ли бейдж для архетипа
func (d BadgeDefinition) AppliesTo(a Archetype) bool {
	return d.Archetype == "" || d.Archetype == a
}

// Срабатывает ли бейдж на тип события
func (d BadgeDefinition) TriggeredBy(t EventType) bool {
	if len(d.On) == 0 {
		return true
	}
	for _, v := range d.On {
		if v == t {
			return true
		}
	}
	return false
}

func (d BadgeDefinition) HasReward() bool {
	return d.RewardPercent > 0
}

// Запись журнала событий
type BadgeEvent struct {
	EventID     string
	UserID      string
	EventType   EventType
	Payload     []byte // канонический JSON
	ReceivedAt  time.Time
	ProcessedAt *time.Time
}

func (e BadgeEvent) Processed() bool {
	return e.ProcessedAt != nil
}

// Выданный бейдж
type UserBadgeAward struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	BadgeID           string    `json:"badgeId"`
	AwardedAt         time.Time `json:"awardedAt"`
	TriggeringEventID string    `json:"triggeringEventId"`
}

// Код скидки за бейдж
type DiscountCode struct {
	Code       string     `json:"code"`
	UserID     string     `json:"userId"`
	BadgeID    string     `json:"badgeId"`
	Percent    int        `json:"percent"`
	IssuedAt   time.Time  `json:"issuedAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	ConsumedAt *time.Time `json:"consumedAt,omitempty"`
}

func (c DiscountCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Входящее событие
type EventRequest struct {
	UserID    string          `json:"userId"`
	EventType string          `json:"eventType"`
	Payload   json.RawMessage `json:"payload"`
	EventID   string          `json:"eventId,omitempty"`
}

// Результат: новый бейдж и код
type GrantedBadge struct {
	BadgeID         string     `json:"badgeId"`
	Tier            int        `json:"tier"`
	AwardedAt       time.Time  `json:"awardedAt"`
	RewardCode      string     `json:"rewardCode,omitempty"`
	RewardPercent   int        `json:"rewardPercent,omitempty"`
	RewardExpiresAt *time.Time `json:"rewardExpiresAt,omitempty"`
}
