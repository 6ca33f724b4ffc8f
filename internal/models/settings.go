package badges

import (
	"fmt"
	"strconv"
	"time"
)

// Настройки движка. Снимок неизменяем на время одной оценки
type Settings struct {
	Enabled               bool          `json:"badgesEnabled"`
	ShieldSuppressesReset bool          `json:"shieldSuppressesReset"`
	GraceWindowDays       int           `json:"graceWindowDays"`
	CodeValidity          time.Duration `json:"codeValidity"`
	DedupWindow           time.Duration `json:"dedupWindow"`
}

// Распознаваемые ключи настроек
const (
	SettingEnabled               = "badges_enabled"
	SettingShieldSuppressesReset = "shield_suppresses_reset"
	SettingGraceWindowDays       = "grace_window_days"
	SettingCodeValidityDays      = "code_validity_days"
	SettingDedupWindowMinutes    = "dedup_window_minutes"
)

// Верхние границы числовых настроек
const (
	MaxGraceWindowDays    = 365
	MaxCodeValidityDays   = 3650
	MaxDedupWindowMinutes = 7 * 24 * 60
)

func DefaultSettings() Settings {
	return Settings{
		Enabled:               true,
		ShieldSuppressesReset: true,
		GraceWindowDays:       1,
		CodeValidity:          30 * 24 * time.Hour,
		DedupWindow:           10 * time.Minute,
	}
}

// Применить одну настройку
func (s Settings) With(key, value string) (Settings, error) {
	switch key {
	case SettingEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return s, fmt.Errorf("setting %s: %w", key, err)
		}
		s.Enabled = b
	case SettingShieldSuppressesReset:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return s, fmt.Errorf("setting %s: %w", key, err)
		}
		s.ShieldSuppressesReset = b
	case SettingGraceWindowDays:
		n, err := parseBounded(key, value, 0, MaxGraceWindowDays)
		if err != nil {
			return s, err
		}
		s.GraceWindowDays = n
	case SettingCodeValidityDays:
		n, err := parseBounded(key, value, 1, MaxCodeValidityDays)
		if err != nil {
			return s, err
		}
		s.CodeValidity = time.Duration(n) * 24 * time.Hour
	case SettingDedupWindowMinutes:
		n, err := parseBounded(key, value, 0, MaxDedupWindowMinutes)
		if err != nil {
			return s, err
		}
		s.DedupWindow = time.Duration(n) * time.Minute
	default:
		return s, fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	return s, nil
}

func parseBounded(key, value string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("setting %s: %w", key, err)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("setting %s: must be in [%d, %d]", key, lo, hi)
	}
	return n, nil
}
