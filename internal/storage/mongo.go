package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// stateDocument holds one key; Value is the JSON encoding of the stored value.
type stateDocument struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	return &MongoStore{
		collection: db.Collection(collection),
	}
}

func (m *MongoStore) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}

	doc := stateDocument{
		Key:       key,
		Value:     string(data),
		UpdatedAt: time.Now(),
	}
	filter := bson.M{"_id": key}
	opts := options.Replace().SetUpsert(true)

	if _, err := m.collection.ReplaceOne(ctx, filter, doc, opts); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (m *MongoStore) Load(ctx context.Context, key string, dest any) error {
	var doc stateDocument

	err := m.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(doc.Value), dest); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (m *MongoStore) Delete(ctx context.Context, key string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (m *MongoStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "updated_at", Value: 1}},
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
