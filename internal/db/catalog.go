package badges

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"

	interf "github.com/glkeru/loyalty/badges/internal/interfaces"
	models "github.com/glkeru/loyalty/badges/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Badges []models.BadgeDefinition `yaml:"badges"`
}

// Каталог из yaml
type YAMLCatalog struct {
	path string
	data []byte
}

// Каталог, встроенный в бинарник
func NewDefaultCatalog() *YAMLCatalog {
	return &YAMLCatalog{data: defaultCatalog}
}

// Каталог из файла, перечитывается при каждом GetAllDefinitions
func NewFileCatalog(path string) (*YAMLCatalog, error) {
	if path == "" {
		return nil, fmt.Errorf("env BADGES_REGISTRY_FILE is not set")
	}
	return &YAMLCatalog{path: path}, nil
}

func (c *YAMLCatalog) GetAllDefinitions(ctx context.Context) ([]models.BadgeDefinition, error) {
	data := c.data
	if c.path != "" {
		b, err := os.ReadFile(c.path)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) ([]models.BadgeDefinition, error) {
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidCatalog, err)
	}
	return file.Badges, nil
}

// Фиксированный набор определений
type StaticCatalog []models.BadgeDefinition

func (c StaticCatalog) GetAllDefinitions(ctx context.Context) ([]models.BadgeDefinition, error) {
	defs := make([]models.BadgeDefinition, len(c))
	copy(defs, c)
	return defs, nil
}

// Каталог с записью (mongo)
type WritableCatalog interface {
	interf.DefinitionStorage
	SaveDefinition(ctx context.Context, def models.BadgeDefinition) error
}

// Пустой каталог заполняется из seed, непустой не меняется
func SeedCatalog(ctx context.Context, target WritableCatalog, seed interf.DefinitionStorage) (int, error) {
	existing, err := target.GetAllDefinitions(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	defs, err := seed.GetAllDefinitions(ctx)
	if err != nil {
		return 0, err
	}
	for i, d := range defs {
		if err := target.SaveDefinition(ctx, d); err != nil {
			return i, fmt.Errorf("seed %s: %w", d.ID, err)
		}
	}
	return len(defs), nil
}
