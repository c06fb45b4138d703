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

// Compile-time check to ensure EntryRepository implements the interface
var _ repositories.EntryRepository = (*EntryRepository)(nil)

// EntryRepository handles MongoDB operations for Entry
type EntryRepository struct {
	collection *mongo.Collection
}

// NewEntryRepository creates a new EntryRepository
func NewEntryRepository(db *mongo.Database) *EntryRepository {
	return &EntryRepository{
		collection: db.Collection("entries"),
	}
}

// Create inserts a new entry. Overlapping ticket numbers hit the unique index
// and come back as repositories.ErrDuplicateKey.
func (r *EntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, entry)
	return mapError(err)
}

// FindByID finds an entry by ID
func (r *EntryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Entry, error) {
	var entry models.Entry
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry); err != nil {
		return nil, mapError(err)
	}
	return &entry, nil
}

// FindByPaymentReference finds every entry created by one checkout
func (r *EntryRepository) FindByPaymentReference(ctx context.Context, paymentReference string) ([]*models.Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"paymentReference": paymentReference}, opts)
}

// FindCompletedByCompetition returns the draw roster source in (createdAt, _id) order
func (r *EntryRepository) FindCompletedByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.Entry, error) {
	filter := bson.M{
		"competitionId": competitionID,
		"paymentStatus": models.PaymentStatusCompleted,
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, filter, opts)
}

// SetSettlement stores the settlement of an unsettled entry
func (r *EntryRepository) SetSettlement(ctx context.Context, id primitive.ObjectID, settlement *models.Settlement) error {
	filter := bson.M{"_id": id, "settlement": nil}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"settlement": settlement}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return guardMiss(ctx, r.collection, id)
	}
	return nil
}

func (r *EntryRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Entry, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*models.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.Entry{}
	}
	return entries, nil
}
