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

// Compile-time check to ensure WithdrawalRepository implements the interface
var _ repositories.WithdrawalRepository = (*WithdrawalRepository)(nil)

// WithdrawalRepository handles MongoDB operations for WithdrawalRequest
type WithdrawalRepository struct {
	collection *mongo.Collection
}

// NewWithdrawalRepository creates a new WithdrawalRepository
func NewWithdrawalRepository(db *mongo.Database) *WithdrawalRepository {
	return &WithdrawalRepository{
		collection: db.Collection("withdrawals"),
	}
}

// Create inserts a new withdrawal request
func (r *WithdrawalRepository) Create(ctx context.Context, request *models.WithdrawalRequest) error {
	if request.ID.IsZero() {
		request.ID = primitive.NewObjectID()
	}
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	_, err := r.collection.InsertOne(ctx, request)
	return mapError(err)
}

// FindByID finds a withdrawal request by ID
func (r *WithdrawalRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request); err != nil {
		return nil, mapError(err)
	}
	return &request, nil
}

// FindByUser lists a user's requests, newest first
func (r *WithdrawalRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.WithdrawalRequest, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []*models.WithdrawalRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []*models.WithdrawalRequest{}
	}
	return requests, nil
}

// Transition moves a request between statuses, guarded on the current status
func (r *WithdrawalRepository) Transition(ctx context.Context, id primitive.ObjectID, from, to models.WithdrawalStatus, update repositories.WithdrawalUpdate) error {
	set := bson.M{"status": to, "updatedAt": time.Now()}
	if update.Reason != "" {
		set["reason"] = update.Reason
	}
	if update.RefundTxID != nil {
		set["refundTxId"] = *update.RefundTxID
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return guardMiss(ctx, r.collection, id)
	}
	return nil
}
