package badges

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	models "github.com/glkeru/loyalty/badges/internal/models"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	defs, err := NewDefaultCatalog().GetAllDefinitions(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, defs)

	ids := make(map[string]models.BadgeDefinition)
	for _, d := range defs {
		_, dup := ids[d.ID]
		require.False(t, dup, d.ID)
		ids[d.ID] = d
	}
	f4, ok := ids["F4_DF"]
	require.True(t, ok)
	require.Equal(t, models.ConditionStreak, f4.Condition.Kind)
	require.Equal(t, 30, f4.Condition.Threshold)
	require.Equal(t, 10, f4.RewardPercent)

	r3 := ids["R3"]
	require.Equal(t, models.ConditionAll, r3.Condition.Kind)
	require.Len(t, r3.Condition.Conditions, 2)
}

func TestFileCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
badges:
  - id: W1
    name: Hello
    on: [wall_interaction]
    condition: {kind: event_count, event_type: wall_interaction, threshold: 1}
`), 0o644))

	c, err := NewFileCatalog(path)
	require.NoError(t, err)
	defs, err := c.GetAllDefinitions(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 1)
	require.Equal(t, []models.EventType{models.EventWallInteraction}, defs[0].On)

	_, err = NewFileCatalog("")
	require.Error(t, err)
}

func TestParseCatalogUnknownField(t *testing.T) {
	_, err := ParseCatalog([]byte("badges:\n  - id: W1\n    colour: red\n"))
	require.ErrorIs(t, err, models.ErrInvalidCatalog)
}

type memoryCatalog struct {
	defs    []models.BadgeDefinition
	saveErr error
}

func (m *memoryCatalog) GetAllDefinitions(ctx context.Context) ([]models.BadgeDefinition, error) {
	return m.defs, nil
}

func (m *memoryCatalog) SaveDefinition(ctx context.Context, def models.BadgeDefinition) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.defs = append(m.defs, def)
	return nil
}

func TestSeedCatalog(t *testing.T) {
	ctx := context.Background()
	defaults, err := NewDefaultCatalog().GetAllDefinitions(ctx)
	require.NoError(t, err)

	// пустой каталог заполняется
	target := &memoryCatalog{}
	n, err := SeedCatalog(ctx, target, NewDefaultCatalog())
	require.NoError(t, err)
	require.Equal(t, len(defaults), n)
	require.Equal(t, defaults, target.defs)

	// повторно ничего не пишется
	n, err = SeedCatalog(ctx, target, NewDefaultCatalog())
	require.NoError(t, err)
	require.Zero(t, n)
	require.Len(t, target.defs, len(defaults))

	// ошибка записи
	_, err = SeedCatalog(ctx, &memoryCatalog{saveErr: errors.New("mongo down")}, NewDefaultCatalog())
	require.Error(t, err)
}
