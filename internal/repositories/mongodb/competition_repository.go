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

// Compile-time check to ensure CompetitionRepository implements the interface
var _ repositories.CompetitionRepository = (*CompetitionRepository)(nil)

// CompetitionRepository handles MongoDB operations for Competition
type CompetitionRepository struct {
	collection *mongo.Collection
}

// NewCompetitionRepository creates a new CompetitionRepository
func NewCompetitionRepository(db *mongo.Database) *CompetitionRepository {
	return &CompetitionRepository{
		collection: db.Collection("competitions"),
	}
}

// Create inserts a new competition
func (r *CompetitionRepository) Create(ctx context.Context, competition *models.Competition) error {
	if competition.ID.IsZero() {
		competition.ID = primitive.NewObjectID()
	}
	competition.CreatedAt = time.Now()
	competition.UpdatedAt = competition.CreatedAt
	_, err := r.collection.InsertOne(ctx, competition)
	return mapError(err)
}

// FindByID finds a competition by ID
func (r *CompetitionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Competition, error) {
	var competition models.Competition
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&competition)
	if err != nil {
		return nil, mapError(err)
	}
	return &competition, nil
}

// FindExpiredActive finds active competitions whose end date has passed
func (r *CompetitionRepository) FindExpiredActive(ctx context.Context, now time.Time) ([]*models.Competition, error) {
	filter := bson.M{
		"isActive": true,
		"endDate":  bson.M{"$lte": now},
	}
	opts := options.Find().SetSort(bson.M{"endDate": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var competitions []*models.Competition
	if err := cursor.All(ctx, &competitions); err != nil {
		return nil, err
	}
	if competitions == nil {
		competitions = []*models.Competition{}
	}
	return competitions, nil
}

// SetActive flips isActive on an undrawn competition
func (r *CompetitionRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	filter := bson.M{"_id": id, "winnerId": nil}
	update := bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now()}}
	return r.guardedUpdate(ctx, id, filter, update)
}

// ReserveTickets is the compare-and-swap on ticketsSold
func (r *CompetitionRepository) ReserveTickets(ctx context.Context, id primitive.ObjectID, expectedSold, quantity int, now time.Time) error {
	filter := bson.M{
		"_id":         id,
		"ticketsSold": expectedSold,
		"isActive":    true,
		"winnerId":    nil,
		"endDate":     bson.M{"$gt": now},
		"maxTickets":  bson.M{"$gte": expectedSold + quantity},
	}
	update := bson.M{
		"$inc": bson.M{"ticketsSold": quantity},
		"$set": bson.M{"updatedAt": now},
	}
	return r.guardedUpdate(ctx, id, filter, update)
}

// RecordDraw writes the draw outcome while no winner is set
func (r *CompetitionRepository) RecordDraw(ctx context.Context, id primitive.ObjectID, result *models.DrawResult) error {
	filter := bson.M{"_id": id, "winnerId": nil}
	update := bson.M{"$set": bson.M{
		"winnerId":            result.WinnerID,
		"winningTicketNumber": result.WinningTicketNumber,
		"drawId":              result.DrawID,
		"drawTimestamp":       result.DrawTimestamp,
		"isActive":            false,
		"updatedAt":           result.DrawTimestamp,
	}}
	return r.guardedUpdate(ctx, id, filter, update)
}

// ClearDraw blanks the draw outcome of a drawn, unfinalized competition
func (r *CompetitionRepository) ClearDraw(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{
		"_id":             id,
		"winnerId":        bson.M{"$ne": nil},
		"drawFinalizedAt": nil,
	}
	update := bson.M{"$set": bson.M{
		"winnerId":            nil,
		"winningTicketNumber": nil,
		"drawId":              nil,
		"drawTimestamp":       nil,
		"updatedAt":           time.Now(),
	}}
	return r.guardedUpdate(ctx, id, filter, update)
}

// MarkDrawFinalized stamps drawFinalizedAt once
func (r *CompetitionRepository) MarkDrawFinalized(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	filter := bson.M{
		"_id":             id,
		"winnerId":        bson.M{"$ne": nil},
		"drawFinalizedAt": nil,
	}
	update := bson.M{"$set": bson.M{"drawFinalizedAt": at, "updatedAt": at}}
	return r.guardedUpdate(ctx, id, filter, update)
}

func (r *CompetitionRepository) guardedUpdate(ctx context.Context, id primitive.ObjectID, filter, update bson.M) error {
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return guardMiss(ctx, r.collection, id)
	}
	return nil
}
