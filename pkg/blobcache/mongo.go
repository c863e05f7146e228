package blobcache

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/waterfall/pkg/photo"
)

// MongoStore is a Store holding one document per photo, keyed by photo ID,
// with one binary field per tier.
type MongoStore struct {
	client *mongo.Client // nil when the collection is borrowed
	coll   *mongo.Collection
}

// NewMongoStore wraps an existing collection. Close does not disconnect its
// client.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// OpenMongo connects to uri and uses database.collection.
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// Get returns the payload for (id, tier).
func (s *MongoStore) Get(ctx context.Context, id string, tier photo.Tier) ([]byte, bool, error) {
	if err := checkKey(id, tier); err != nil {
		return nil, false, err
	}
	opts := options.FindOne().SetProjection(bson.M{string(tier): 1})
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s/%s: %w", id, tier, err)
	}
	data := rec.Tier(tier)
	return data, len(data) > 0, nil
}

// Put sets the tier field, creating the document if needed.
func (s *MongoStore) Put(ctx context.Context, id string, tier photo.Tier, data []byte) error {
	if err := checkPut(id, tier, data); err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{string(tier): data}}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", id, tier, err)
	}
	return nil
}

// Record returns everything stored for id.
func (s *MongoStore) Record(ctx context.Context, id string) (*Record, bool, error) {
	if id == "" {
		return nil, false, ErrEmptyID
	}
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", id, err)
	}
	return &rec, true, nil
}

// Clear deletes every document in the collection.
func (s *MongoStore) Clear(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear blob store: %w", err)
	}
	return nil
}

// Stats reads every document in the collection.
func (s *MongoStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return st, fmt.Errorf("blob store stats: %w", err)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var rec Record
		if err := cur.Decode(&rec); err != nil {
			return Stats{}, fmt.Errorf("decode record: %w", err)
		}
		st.add(&rec)
	}
	if err := cur.Err(); err != nil {
		return Stats{}, fmt.Errorf("blob store stats: %w", err)
	}
	return st, nil
}

// Close disconnects the client opened by OpenMongo.
func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
