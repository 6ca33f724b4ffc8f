package badges

import (
	"fmt"
	"regexp"
	"strconv"
)

// ID бейджа: <трек><уровень>[_<архетип>], например F4_DF, W1
var badgeIDPattern = regexp.MustCompile(`^([A-Z]+)([0-9]+)(?:_([A-Z]+))?$`)

type BadgeKey struct {
	Track     string
	Tier      int
	Archetype Archetype
}

func ParseBadgeID(id string) (BadgeKey, error) {
	m := badgeIDPattern.FindStringSubmatch(id)
	if m == nil {
		return BadgeKey{}, fmt.Errorf("badge id %q: unrecognized format", id)
	}
	tier, err := strconv.Atoi(m[2])
	if err != nil || tier < 1 {
		return BadgeKey{}, fmt.Errorf("badge id %q: bad tier", id)
	}
	return BadgeKey{Track: m[1], Tier: tier, Archetype: Archetype(m[3])}, nil
}
