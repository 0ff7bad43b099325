package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/troikatech/call-router/pkg/mongo"
	"github.com/troikatech/call-router/pkg/otel"
)

const (
	collection = "settings"
	documentID = "routing"
)

// MongoStore keeps settings as one document in the settings collection.
type MongoStore struct {
	client   *mongo.Client
	defaults Settings
}

func NewMongoStore(client *mongo.Client, defaults Settings) *MongoStore {
	return &MongoStore{client: client, defaults: defaults}
}

func (m *MongoStore) Get(ctx context.Context) (Settings, error) {
	s := m.defaults
	err := otel.WithDBSpan(ctx, collection, "find", func(ctx context.Context) error {
		return m.client.NewQuery(collection).Eq("_id", documentID).FindOne(ctx, &s)
	})
	if errors.Is(err, mongo.ErrNotFound) {
		return m.defaults, nil
	}
	if err != nil {
		return m.defaults, fmt.Errorf("failed to load settings: %w", err)
	}
	return s, nil
}

func (m *MongoStore) Put(ctx context.Context, s Settings) error {
	err := otel.WithDBSpan(ctx, collection, "update", func(ctx context.Context) error {
		_, err := m.client.NewQuery(collection).Eq("_id", documentID).Upsert(ctx, s)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to store settings: %w", err)
	}
	return nil
}
