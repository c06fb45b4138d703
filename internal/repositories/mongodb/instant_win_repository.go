package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	_ repositories.InstantPrizeRepository     = (*InstantPrizeRepository)(nil)
	_ repositories.InstantWinTicketRepository = (*InstantWinTicketRepository)(nil)
)

// InstantPrizeRepository handles MongoDB operations for InstantPrize
type InstantPrizeRepository struct {
	collection *mongo.Collection
}

// NewInstantPrizeRepository creates a new InstantPrizeRepository
func NewInstantPrizeRepository(db *mongo.Database) *InstantPrizeRepository {
	return &InstantPrizeRepository{
		collection: db.Collection("instant_prizes"),
	}
}

// CreateMany inserts a prize pool's tiers
func (r *InstantPrizeRepository) CreateMany(ctx context.Context, prizes []*models.InstantPrize) error {
	if len(prizes) == 0 {
		return nil
	}
	docs := make([]interface{}, len(prizes))
	for i, p := range prizes {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		docs[i] = p
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return mapError(err)
}

// FindByID finds a prize by ID
func (r *InstantPrizeRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.InstantPrize, error) {
	var prize models.InstantPrize
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&prize); err != nil {
		return nil, mapError(err)
	}
	return &prize, nil
}

// FindByCompetition lists a competition's prizes, most valuable first
func (r *InstantPrizeRepository) FindByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.InstantPrize, error) {
	opts := options.Find().SetSort(bson.D{{Key: "value", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"competitionId": competitionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var prizes []*models.InstantPrize
	if err := cursor.All(ctx, &prizes); err != nil {
		return nil, err
	}
	if prizes == nil {
		prizes = []*models.InstantPrize{}
	}
	return prizes, nil
}

// DecrementRemaining takes one win off a prize that still has wins left
func (r *InstantPrizeRepository) DecrementRemaining(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id, "remainingWins": bson.M{"$gt": 0}}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"remainingWins": -1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return guardMiss(ctx, r.collection, id)
	}
	return nil
}

// DeleteByCompetition removes a competition's prizes
func (r *InstantPrizeRepository) DeleteByCompetition(ctx context.Context, competitionID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"competitionId": competitionID})
	return err
}

// InstantWinTicketRepository handles MongoDB operations for InstantWinTicket
type InstantWinTicketRepository struct {
	collection *mongo.Collection
}

// NewInstantWinTicketRepository creates a new InstantWinTicketRepository
func NewInstantWinTicketRepository(db *mongo.Database) *InstantWinTicketRepository {
	return &InstantWinTicketRepository{
		collection: db.Collection("instant_win_tickets"),
	}
}

// CreateMany inserts the winning-number rows of a prize pool
func (r *InstantWinTicketRepository) CreateMany(ctx context.Context, tickets []*models.InstantWinTicket) error {
	if len(tickets) == 0 {
		return nil
	}
	docs := make([]interface{}, len(tickets))
	for i, t := range tickets {
		if t.ID.IsZero() {
			t.ID = primitive.NewObjectID()
		}
		docs[i] = t
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return mapError(err)
}

// FindByCompetition lists a competition's winning numbers in numeric order
func (r *InstantWinTicketRepository) FindByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.InstantWinTicket, error) {
	opts := options.Find().SetSort(bson.M{"ticketNumber": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"competitionId": competitionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tickets []*models.InstantWinTicket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []*models.InstantWinTicket{}
	}
	return tickets, nil
}

// CountClaimed counts winning numbers that already have a winner
func (r *InstantWinTicketRepository) CountClaimed(ctx context.Context, competitionID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"competitionId": competitionID,
		"winnerId":      bson.M{"$ne": nil},
	})
}

// Claim is the single conditional update that gates an instant win
func (r *InstantWinTicketRepository) Claim(ctx context.Context, competitionID primitive.ObjectID, ticketNumber int, winnerID, entryID primitive.ObjectID, at time.Time) (*models.InstantWinTicket, error) {
	filter := bson.M{
		"competitionId": competitionID,
		"ticketNumber":  ticketNumber,
		"winnerId":      nil,
		"prizeId":       bson.M{"$ne": nil},
	}
	update := bson.M{"$set": bson.M{
		"winnerId":  winnerID,
		"entryId":   entryID,
		"claimedAt": at,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ticket models.InstantWinTicket
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// DeleteByCompetition removes a competition's winning numbers
func (r *InstantWinTicketRepository) DeleteByCompetition(ctx context.Context, competitionID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"competitionId": competitionID})
	return err
}
