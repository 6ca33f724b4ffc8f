package badges

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	interf "github.com/glkeru/loyalty/badges/internal/interfaces"
	models "github.com/glkeru/loyalty/badges/internal/models"
	"go.uber.org/zap"
)

// Неизменяемый снимок каталога
type Catalog struct {
	defs     []models.BadgeDefinition
	byID     map[string]int
	LoadedAt time.Time
}

func (c *Catalog) AllDefinitions() []models.BadgeDefinition {
	defs := make([]models.BadgeDefinition, len(c.defs))
	copy(defs, c.defs)
	return defs
}

// Бейджи без архетипа и бейджи архетипа a, по возрастанию уровня, при равенстве - порядок каталога
func (c *Catalog) DefinitionsForArchetype(a models.Archetype) []models.BadgeDefinition {
	var defs []models.BadgeDefinition
	for _, d := range c.defs {
		if d.AppliesTo(a) {
			defs = append(defs, d)
		}
	}
	sort.SliceStable(defs, func(i, j int) bool {
		return defs[i].Tier < defs[j].Tier
	})
	return defs
}

func (c *Catalog) Definition(id string) (models.BadgeDefinition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.BadgeDefinition{}, false
	}
	return c.defs[i], true
}

// Бейджи с кодом скидки
func (c *Catalog) RewardBadgeIDs() []string {
	var ids []string
	for _, d := range c.defs {
		if d.HasReward() {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

func (c *Catalog) Len() int {
	return len(c.defs)
}

type Registry struct {
	source   interf.DefinitionStorage
	snapshot atomic.Pointer[Catalog]
	logger   *zap.Logger
}

func NewRegistry(ctx context.Context, source interf.DefinitionStorage, logger *zap.Logger) (*Registry, error) {
	r := &Registry{source: source, logger: logger}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Текущий снимок. Оценка события работает с одним снимком от начала до конца
func (r *Registry) Snapshot() *Catalog {
	return r.snapshot.Load()
}

// Перечитать каталог. При ошибке остается предыдущий снимок
func (r *Registry) Reload(ctx context.Context) error {
	defs, err := r.source.GetAllDefinitions(ctx)
	if err != nil {
		r.logger.Error("Registry",
			zap.String("service", "Reload"),
			zap.Error(err),
		)
		return err
	}
	catalog, err := BuildCatalog(defs)
	if err != nil {
		r.logger.Error("Registry",
			zap.String("service", "Reload"),
			zap.Error(err),
		)
		return err
	}
	r.snapshot.Store(catalog)
	r.logger.Info("badge catalog loaded", zap.Int("badges", catalog.Len()))
	return nil
}

func (r *Registry) AllDefinitions() []models.BadgeDefinition {
	return r.Snapshot().AllDefinitions()
}

func (r *Registry) DefinitionsForArchetype(a models.Archetype) []models.BadgeDefinition {
	return r.Snapshot().DefinitionsForArchetype(a)
}

func (r *Registry) Definition(id string) (models.BadgeDefinition, bool) {
	return r.Snapshot().Definition(id)
}

// Проверка и нормализация определений
func BuildCatalog(defs []models.BadgeDefinition) (*Catalog, error) {
	c := &Catalog{
		defs:     make([]models.BadgeDefinition, 0, len(defs)),
		byID:     make(map[string]int, len(defs)),
		LoadedAt: time.Now(),
	}

	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("%w: empty badge id", models.ErrInvalidCatalog)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate badge id %s", models.ErrInvalidCatalog, d.ID)
		}
		if err := fillFromID(&d); err != nil {
			return nil, err
		}
		if d.RewardPercent < 0 || d.RewardPercent > 100 {
			return nil, fmt.Errorf("%w: %s: reward percent %d out of range", models.ErrInvalidCatalog, d.ID, d.RewardPercent)
		}
		for _, t := range d.On {
			if !t.Valid() {
				return nil, fmt.Errorf("%w: %s: unknown event type %q", models.ErrInvalidCatalog, d.ID, t)
			}
		}
		if err := validateCondition(d.Condition); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", models.ErrInvalidCatalog, d.ID, err)
		}
		c.byID[d.ID] = len(c.defs)
		c.defs = append(c.defs, d)
	}

	// requires: по умолчанию предыдущий уровень того же трека и архетипа
	for i := range c.defs {
		d := &c.defs[i]
		if d.Requires == nil {
			if prev, ok := c.previousTier(*d); ok {
				d.Requires = []string{prev}
			}
			continue
		}
		for _, req := range d.Requires {
			j, ok := c.byID[req]
			if !ok {
				return nil, fmt.Errorf("%w: %s requires unknown badge %s", models.ErrInvalidCatalog, d.ID, req)
			}
			if c.defs[j].Tier >= d.Tier {
				return nil, fmt.Errorf("%w: %s requires %s of the same or higher tier", models.ErrInvalidCatalog, d.ID, req)
			}
		}
	}
	return c, nil
}

// Ближайший нижний уровень
func (c *Catalog) previousTier(d models.BadgeDefinition) (string, bool) {
	var id string
	best := 0
	for _, o := range c.defs {
		if o.Track != d.Track || o.Archetype != d.Archetype {
			continue
		}
		if o.Tier < d.Tier && o.Tier > best {
			best = o.Tier
			id = o.ID
		}
	}
	return id, best > 0
}

// Track/Tier/Archetype из id, если не заданы явно
func fillFromID(d *models.BadgeDefinition) error {
	key, err := models.ParseBadgeID(d.ID)
	if err != nil {
		if d.Track == "" || d.Tier < 1 {
			return fmt.Errorf("%w: %w", models.ErrInvalidCatalog, err)
		}
		return nil
	}
	switch {
	case d.Track == "":
		d.Track = key.Track
	case d.Track != key.Track:
		return fmt.Errorf("%w: %s: track %s does not match id", models.ErrInvalidCatalog, d.ID, d.Track)
	}
	switch {
	case d.Tier == 0:
		d.Tier = key.Tier
	case d.Tier != key.Tier:
		return fmt.Errorf("%w: %s: tier %d does not match id", models.ErrInvalidCatalog, d.ID, d.Tier)
	}
	switch {
	case d.Archetype == "":
		d.Archetype = key.Archetype
	case key.Archetype != "" && d.Archetype != key.Archetype:
		return fmt.Errorf("%w: %s: archetype %s does not match id", models.ErrInvalidCatalog, d.ID, d.Archetype)
	}
	return nil
}

func validateCondition(c models.Condition) error {
	switch c.Kind {
	case models.ConditionStreak:
		if c.Threshold < 1 {
			return fmt.Errorf("streak threshold must be positive")
		}
	case models.ConditionEventCount:
		if !c.EventType.Valid() {
			return fmt.Errorf("event_count: unknown event type %q", c.EventType)
		}
		if c.Threshold < 1 {
			return fmt.Errorf("event_count threshold must be positive")
		}
		if c.WindowDays < 0 {
			return fmt.Errorf("event_count window must be non-negative")
		}
	case models.ConditionAll, models.ConditionAny:
		if len(c.Conditions) == 0 {
			return fmt.Errorf("%s: no conditions", c.Kind)
		}
		for _, sub := range c.Conditions {
			if err := validateCondition(sub); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown condition kind %q", c.Kind)
	}
	return nil
}
