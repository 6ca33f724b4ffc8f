package badges

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Payload - данные события, свой вариант на каждый EventType
type Payload interface {
	EventType() EventType
	validate() error
}

// Серия (streak) из события
type Streak struct {
	Count      *int `json:"streakCount"`
	Previous   int  `json:"previousStreak,omitempty"`
	ShieldUsed bool `json:"shieldUsed"`
	MissedDays int  `json:"missedDays,omitempty"`
}

func (s Streak) validate() error {
	if s.Count == nil {
		return fmt.Errorf("streakCount is required")
	}
	if *s.Count < 0 || s.Previous < 0 || s.MissedDays < 0 {
		return fmt.Errorf("streak counters must be non-negative")
	}
	return nil
}

func (s Streak) Value() int {
	if s.Count == nil {
		return 0
	}
	return *s.Count
}

// Сброс серии: текущее значение меньше предыдущего
func (s Streak) Reset() bool {
	return s.Previous > s.Value()
}

// Серия с учетом щита и льготного окна
func (s Streak) Effective(settings Settings) int {
	if !s.Reset() {
		return s.Value()
	}
	if s.ShieldUsed && settings.ShieldSuppressesReset {
		return s.Previous
	}
	if s.MissedDays > 0 && s.MissedDays <= settings.GraceWindowDays {
		return s.Previous
	}
	return s.Value()
}

// События с серией
type StreakCarrier interface {
	StreakInfo() Streak
}

type CheckInCompleted struct {
	Streak
}

func (CheckInCompleted) EventType() EventType { return EventCheckInCompleted }
func (p CheckInCompleted) StreakInfo() Streak { return p.Streak }

type StreakUpdated struct {
	Streak
}

func (StreakUpdated) EventType() EventType { return EventStreakUpdated }
func (p StreakUpdated) StreakInfo() Streak { return p.Streak }

type RitualCompleted struct {
	RitualID        string `json:"ritualId"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
}

func (RitualCompleted) EventType() EventType { return EventRitualCompleted }

func (p RitualCompleted) validate() error {
	if p.RitualID == "" {
		return fmt.Errorf("ritualId is required")
	}
	if p.DurationMinutes < 0 {
		return fmt.Errorf("durationMinutes must be non-negative")
	}
	return nil
}

type WallInteractionKind string

const (
	WallPost     WallInteractionKind = "post"
	WallComment  WallInteractionKind = "comment"
	WallReaction WallInteractionKind = "reaction"
)

type WallInteraction struct {
	Kind     WallInteractionKind `json:"kind"`
	TargetID string              `json:"targetId,omitempty"`
}

func (WallInteraction) EventType() EventType { return EventWallInteraction }

func (p WallInteraction) validate() error {
	switch p.Kind {
	case WallPost, WallComment, WallReaction:
		return nil
	case "":
		return fmt.Errorf("kind is required")
	}
	return fmt.Errorf("unknown kind %q", p.Kind)
}

// Разбор типа события
func ParseEventType(s string) (EventType, error) {
	t := EventType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, s)
	}
	return t, nil
}

// Строгий разбор payload под тип события
func DecodePayload(t EventType, raw []byte) (Payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	var p Payload
	switch t {
	case EventCheckInCompleted:
		v := CheckInCompleted{}
		if err := decodeStrict(raw, &v); err != nil {
			return nil, err
		}
		p = v
	case EventStreakUpdated:
		v := StreakUpdated{}
		if err := decodeStrict(raw, &v); err != nil {
			return nil, err
		}
		p = v
	case EventRitualCompleted:
		v := RitualCompleted{}
		if err := decodeStrict(raw, &v); err != nil {
			return nil, err
		}
		p = v
	case EventWallInteraction:
		v := WallInteraction{}
		if err := decodeStrict(raw, &v); err != nil {
			return nil, err
		}
		p = v
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, t)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPayload, t, err)
	}
	return p, nil
}

func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrInvalidPayload)
	}
	return nil
}

// Канонический JSON payload (порядок полей фиксирован структурой)
func CanonicalPayload(p Payload) ([]byte, error) {
	return json.Marshal(p)
}

// Детерминированный ID события, если вызывающий его не передал
func DeriveEventID(userID string, p Payload, at time.Time, window time.Duration) (string, error) {
	canonical, err := CanonicalPayload(p)
	if err != nil {
		return "", err
	}
	var bucket int64
	if window > 0 {
		bucket = at.UTC().Truncate(window).Unix()
	}
	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(p.EventType()))
	h.Write([]byte{0})
	h.Write(canonical)
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(bucket, 10)))
	return "drv_" + hex.EncodeToString(h.Sum(nil))[:32], nil
}
