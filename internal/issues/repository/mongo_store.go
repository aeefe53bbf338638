package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/GoSim-25-26J-441/issue-tracker/internal/issues/domain"
)

// MongoProjectStore keeps one document per project in a collection, keyed
// by project_title.
type MongoProjectStore struct {
	coll *mongo.Collection
}

// NewMongoProjectStore creates a new MongoProjectStore
func NewMongoProjectStore(coll *mongo.Collection) *MongoProjectStore {
	return &MongoProjectStore{coll: coll}
}

// EnsureIndexes creates the unique index on project_title that makes the
// upsert in GetOrCreate safe under concurrency.
func (s *MongoProjectStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "project_title", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create project_title index: %w", err)
	}
	return nil
}

// GetOrCreate upserts with $setOnInsert and returns the stored document.
func (s *MongoProjectStore) GetOrCreate(ctx context.Context, title string) (*domain.Project, error) {
	now := time.Now().UTC()
	filter := bson.M{"project_title": title}
	update := bson.M{"$setOnInsert": bson.M{
		"project_title": title,
		"issues":        bson.A{},
		"created_at":    now,
		"updated_at":    now,
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var project domain.Project
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&project); err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}
	if project.Issues == nil {
		project.Issues = []domain.Issue{}
	}
	return &project, nil
}

// Save replaces the issue list and bumps updated_at.
func (s *MongoProjectStore) Save(ctx context.Context, project *domain.Project) error {
	project.UpdatedAt = time.Now().UTC()
	if project.Issues == nil {
		project.Issues = []domain.Issue{}
	}

	filter := bson.M{"project_title": project.Title}
	update := bson.M{
		"$set": bson.M{
			"issues":     project.Issues,
			"updated_at": project.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": project.CreatedAt},
	}

	if _, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// PruneEmpty deletes empty projects last written before cutoff.
func (s *MongoProjectStore) PruneEmpty(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{
		"issues":     bson.M{"$size": 0},
		"updated_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune projects: %w", err)
	}
	return int(res.DeletedCount), nil
}

// Ping checks the primary is reachable.
func (s *MongoProjectStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, readpref.Primary())
}
