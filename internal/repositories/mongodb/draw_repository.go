package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure DrawRepository implements the interface
var _ repositories.DrawRepository = (*DrawRepository)(nil)

// DrawRepository implements the repositories.DrawRepository interface
type DrawRepository struct {
	collection *mongo.Collection
}

// NewDrawRepository creates a new DrawRepository
func NewDrawRepository(db *mongo.Database) *DrawRepository {
	return &DrawRepository{
		collection: db.Collection("draws"),
	}
}

// Create inserts a draw audit record
func (r *DrawRepository) Create(ctx context.Context, draw *models.DrawRecord) error {
	if draw.ID.IsZero() {
		draw.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, draw)
	return mapError(err)
}

// FindLatestByCompetition finds the most recent draw of a competition
func (r *DrawRepository) FindLatestByCompetition(ctx context.Context, competitionID primitive.ObjectID) (*models.DrawRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	var draw models.DrawRecord
	if err := r.collection.FindOne(ctx, bson.M{"competitionId": competitionID}, opts).Decode(&draw); err != nil {
		return nil, mapError(err)
	}
	return &draw, nil
}

// FindByCompetition lists every draw of a competition, voided ones included
func (r *DrawRepository) FindByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.DrawRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"competitionId": competitionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var draws []*models.DrawRecord
	if err := cursor.All(ctx, &draws); err != nil {
		return nil, err
	}
	if draws == nil {
		draws = []*models.DrawRecord{}
	}
	return draws, nil
}

// Void marks a completed draw as voided
func (r *DrawRepository) Void(ctx context.Context, id primitive.ObjectID, reason string, at time.Time) error {
	filter := bson.M{"_id": id, "status": models.DrawStatusCompleted}
	update := bson.M{"$set": bson.M{
		"status":     models.DrawStatusVoided,
		"voidReason": reason,
		"voidedAt":   at,
	}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return guardMiss(ctx, r.collection, id)
	}
	return nil
}
