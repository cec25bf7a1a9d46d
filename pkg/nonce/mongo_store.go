package nonce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"
)

const (
	// DefaultMongoCollection is the collection name for nonces
	DefaultMongoCollection = "nonces"
)

type mongoRecord struct {
	ID         primitive.ObjectID `bson:"_id"`
	Expiration time.Time          `bson:"expiration"`
}

// MongoStore implements Store interface using a MongoDB collection.
// IDs are ObjectIDs in hex form.
type MongoStore struct {
	coll        *mongo.Collection
	consumeColl *mongo.Collection
	logger      *zap.Logger
}

// Compile-time interface compliance check
var _ Store = (*MongoStore)(nil)

// NewMongoStore creates a MongoDB-based nonce store.
// Consume runs against a handle with majority, journaled write concern.
func NewMongoStore(coll *mongo.Collection, logger *zap.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	wc := writeconcern.Majority()
	journal := true
	wc.Journal = &journal
	consumeColl, err := coll.Clone(options.Collection().SetWriteConcern(wc))
	if err != nil {
		return nil, fmt.Errorf("clone nonces collection: %w", err)
	}

	return &MongoStore{
		coll:        coll,
		consumeColl: consumeColl,
		logger:      logger,
	}, nil
}

// EnsureIndexes creates the expiration index used by DeleteExpired
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "expiration", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create expiration index: %w", err)
	}
	return nil
}

func (s *MongoStore) NewID() string {
	return primitive.NewObjectID().Hex()
}

func (s *MongoStore) Insert(ctx context.Context, rec Record) error {
	oid, err := primitive.ObjectIDFromHex(rec.ID)
	if err != nil {
		return fmt.Errorf("invalid nonce id %q: %w", rec.ID, err)
	}

	_, err = s.coll.InsertOne(ctx, mongoRecord{ID: oid, Expiration: rec.Expiration})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		s.logger.Error("failed to insert nonce",
			zap.String("nonce", rec.ID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to insert nonce: %w", err)
	}
	return nil
}

func (s *MongoStore) Consume(ctx context.Context, id string) (*Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// not an ObjectID, so no record can carry it
		return nil, ErrNotFound
	}

	var doc mongoRecord
	err = s.consumeColl.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to consume nonce",
			zap.String("nonce", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to consume nonce: %w", err)
	}
	return &Record{ID: doc.ID.Hex(), Expiration: doc.Expiration}, nil
}

func (s *MongoStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.D{{Key: "expiration", Value: bson.D{{Key: "$lte", Value: now}}}}
	result, err := s.coll.DeleteMany(ctx, filter)
	if err != nil {
		s.logger.Error("failed to delete expired nonces", zap.Error(err))
		return 0, fmt.Errorf("failed to delete expired nonces: %w", err)
	}
	return result.DeletedCount, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.coll.Database().Client().Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}
