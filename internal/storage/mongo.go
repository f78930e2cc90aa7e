package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hann12-34/discovr-events/internal/event"
)

// MongoStore persists events in a MongoDB collection keyed by _id
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to uri and verifies the server is reachable
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Save upserts each event with $setOnInsert, so an existing document is
// never modified. A matched document counts as skipped.
func (s *MongoStore) Save(ctx context.Context, events []*event.Event) (SaveResult, error) {
	var res SaveResult
	opts := options.Update().SetUpsert(true)

	for _, e := range events {
		if e == nil {
			continue
		}
		doc, err := document(e)
		if err != nil {
			return res, err
		}
		r, err := s.collection.UpdateOne(ctx,
			bson.M{"_id": e.ID},
			bson.M{"$setOnInsert": doc},
			opts,
		)
		if err != nil {
			return res, fmt.Errorf("saving event %s: %w", e.ID, err)
		}
		if r.UpsertedCount > 0 {
			res.Inserted++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

// document encodes e without _id, which the upsert takes from the filter
func document(e *event.Event) (bson.M, error) {
	data, err := bson.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding event %s: %w", e.ID, err)
	}
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("encoding event %s: %w", e.ID, err)
	}
	delete(doc, "_id")
	return doc, nil
}

// Get retrieves one stored event by ID
func (s *MongoStore) Get(ctx context.Context, id string) (*event.Event, error) {
	var e event.Event
	if err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, fmt.Errorf("finding event %s: %w", id, err)
	}
	return &e, nil
}

// Close disconnects the client
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
