// Package mongostore implements the entity store on a MongoDB collection.
// Documents are keyed by kind, partition and row.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"storefront/internal/store"
)

const collectionName = "entities"

type document struct {
	ID           string    `bson:"_id"`
	Kind         string    `bson:"kind"`
	PartitionKey string    `bson:"partitionKey"`
	RowKey       string    `bson:"rowKey"`
	Version      int64     `bson:"version"`
	Timestamp    time.Time `bson:"timestamp"`
	Payload      []byte    `bson:"payload"`
}

type Store struct {
	coll *mongo.Collection
}

func New(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

// Connect opens the client, verifies it with a ping and indexes the kind.
func Connect(ctx context.Context, uri, database string) (*Store, *mongo.Client, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	coll := client.Database(database).Collection(collectionName)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "kind", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("mongo index: %w", err)
	}

	log.Println("Connected to MongoDB successfully")
	return &Store{coll: coll}, client, nil
}

func docID(kind, partition, row string) string {
	return store.CompositeKey(kind, partition, row)
}

func (s *Store) Put(ctx context.Context, rec *store.Record) error {
	if err := store.ValidateKeys(rec.Kind, rec.PartitionKey, rec.RowKey); err != nil {
		return err
	}
	rec.Version = 1
	rec.Timestamp = store.Now()

	_, err := s.coll.InsertOne(ctx, document{
		ID:           docID(rec.Kind, rec.PartitionKey, rec.RowKey),
		Kind:         rec.Kind,
		PartitionKey: rec.PartitionKey,
		RowKey:       rec.RowKey,
		Version:      rec.Version,
		Timestamp:    rec.Timestamp,
		Payload:      rec.Payload,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("mongo put: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, kind, partition, row string) (*store.Record, error) {
	var d document
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: docID(kind, partition, row)}}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongo get: %w", err)
	}
	rec := d.record()
	return &rec, nil
}

func (s *Store) List(ctx context.Context, kind string) ([]store.Record, error) {
	filter := bson.D{{Key: "kind", Value: kind}}
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo list decode: %w", err)
	}
	out := make([]store.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.record())
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, rec *store.Record, expectedVersion int64) error {
	if err := store.ValidateKeys(rec.Kind, rec.PartitionKey, rec.RowKey); err != nil {
		return err
	}
	id := docID(rec.Kind, rec.PartitionKey, rec.RowKey)
	now := store.Now()

	res, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "version", Value: expectedVersion}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "payload", Value: rec.Payload},
			{Key: "version", Value: expectedVersion + 1},
			{Key: "timestamp", Value: now},
		}}},
	)
	if err != nil {
		return fmt.Errorf("mongo update: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
		if err != nil {
			return fmt.Errorf("mongo update: %w", err)
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return store.ErrVersionConflict
	}
	rec.Version = expectedVersion + 1
	rec.Timestamp = now
	return nil
}

func (s *Store) Delete(ctx context.Context, kind, partition, row string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: docID(kind, partition, row)}}); err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	return nil
}

func (d document) record() store.Record {
	return store.Record{
		Kind:         d.Kind,
		PartitionKey: d.PartitionKey,
		RowKey:       d.RowKey,
		Version:      d.Version,
		Timestamp:    d.Timestamp,
		Payload:      d.Payload,
	}
}
