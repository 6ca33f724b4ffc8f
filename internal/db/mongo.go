package badges

import (
	"context"
	"fmt"
	"time"

	models "github.com/glkeru/loyalty/badges/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Каталог бейджей в Mongo
type DefinitionsDB struct {
	mgo  *mongo.Client
	coll *mongo.Collection
}

func NewDefinitionsDB(ctx context.Context, uri, database, collection string) (*DefinitionsDB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if uri == "" {
		return nil, fmt.Errorf("env BADGES_MONGO_URI is not set")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	coll := client.Database(database).Collection(collection)

	return &DefinitionsDB{client, coll}, nil
}

func (d *DefinitionsDB) Close(ctx context.Context) error {
	return d.mgo.Disconnect(ctx)
}

func (d *DefinitionsDB) GetAllDefinitions(ctx context.Context) ([]models.BadgeDefinition, error) {
	var defs []models.BadgeDefinition
	opts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	result, err := d.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer result.Close(ctx)

	for result.Next(ctx) {
		var def models.BadgeDefinition
		if err := result.Decode(&def); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, result.Err()
}

// Создать/обновить определение
func (d *DefinitionsDB) SaveDefinition(ctx context.Context, def models.BadgeDefinition) error {
	filter := bson.M{"id": def.ID}
	_, err := d.coll.ReplaceOne(ctx, filter, def, options.Replace().SetUpsert(true))
	return err
}
