package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/address-dedupe/app/models"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoReviewStore persists reviews in MongoDB with an in-memory LRU in front
// of lookups by ID.
type MongoReviewStore struct {
	collection *mongo.Collection
	l1Cache    *lru.Cache[string, *models.PairReview]
	logger     *zap.Logger
}

var _ ReviewStore = (*MongoReviewStore)(nil)

// NewMongoReviewStore opens the pair_reviews collection and ensures its
// indexes.
func NewMongoReviewStore(db *mongo.Database, l1Size int, logger *zap.Logger) (*MongoReviewStore, error) {
	l1Cache, err := lru.New[string, *models.PairReview](l1Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	collection := db.Collection("pair_reviews")

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{bson.E{Key: "status", Value: 1}, bson.E{Key: "created_at", Value: 1}},
		},
		{
			Keys: bson.D{bson.E{Key: "left_id", Value: 1}},
		},
		{
			Keys: bson.D{bson.E{Key: "right_id", Value: 1}},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		logger.Warn("Failed to create indexes for pair_reviews", zap.Error(err))
	}

	return &MongoReviewStore{
		collection: collection,
		l1Cache:    l1Cache,
		logger:     logger,
	}, nil
}

// Save inserts reviews whose pair is not queued yet. The unique pair_key
// index turns re-submitted pairs into no-ops.
func (mrs *MongoReviewStore) Save(ctx context.Context, reviews []*models.PairReview) (int, error) {
	added := 0
	for _, r := range reviews {
		res, err := mrs.collection.UpdateOne(ctx,
			bson.M{"pair_key": r.PairKey},
			bson.M{"$setOnInsert": r},
			options.Update().SetUpsert(true))
		if err != nil {
			return added, fmt.Errorf("failed to save review %s: %w", r.PairKey, err)
		}
		if res.UpsertedCount > 0 {
			added++
		}
	}

	mrs.logger.Debug("Saved pair reviews", zap.Int("submitted", len(reviews)), zap.Int("added", added))
	return added, nil
}

func (mrs *MongoReviewStore) Get(ctx context.Context, id string) (*models.PairReview, error) {
	if r, ok := mrs.l1Cache.Get(id); ok {
		cp := *r
		return &cp, nil
	}

	var r models.PairReview
	err := mrs.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load review %s: %w", id, err)
	}

	mrs.l1Cache.Add(id, &r)
	cp := r
	return &cp, nil
}

func (mrs *MongoReviewStore) List(ctx context.Context, filter ReviewFilter) ([]*models.PairReview, int64, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := mrs.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "created_at", Value: 1}, bson.E{Key: "pair_key", Value: 1}}).
		SetSkip(int64(filter.Offset))
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := mrs.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	out := []*models.PairReview{}
	for cursor.Next(ctx) {
		var r models.PairReview
		if err := cursor.Decode(&r); err != nil {
			mrs.logger.Warn("Failed to decode review", zap.Error(err))
			continue
		}
		out = append(out, &r)
	}
	return out, total, cursor.Err()
}

func (mrs *MongoReviewStore) Update(ctx context.Context, review *models.PairReview) error {
	res, err := mrs.collection.ReplaceOne(ctx, bson.M{"_id": review.ID}, review)
	if err != nil {
		return fmt.Errorf("failed to update review %s: %w", review.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrReviewNotFound
	}

	mrs.l1Cache.Remove(review.ID)
	return nil
}

// Len is the number of reviews held in the L1 cache.
func (mrs *MongoReviewStore) Len() int {
	return mrs.l1Cache.Len()
}
