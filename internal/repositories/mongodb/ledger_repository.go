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
	_ repositories.AccountRepository           = (*AccountRepository)(nil)
	_ repositories.LedgerTransactionRepository = (*LedgerTransactionRepository)(nil)
)

// AccountRepository handles MongoDB operations for cached balances
type AccountRepository struct {
	collection *mongo.Collection
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		collection: db.Collection("accounts"),
	}
}

// FindByUserID finds a user's account
func (r *AccountRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Account, error) {
	var account models.Account
	if err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&account); err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

// ApplyDelta increments one balance and its sequence in a single update. With
// a floor the filter carries the balance check, so a short balance matches
// nothing; without one the account is upserted.
func (r *AccountRepository) ApplyDelta(ctx context.Context, userID primitive.ObjectID, kind models.LedgerKind, delta int64, floor *int64) (*models.Account, error) {
	filter := bson.M{"_id": userID}
	if floor != nil {
		filter[kind.BalanceField()] = bson.M{"$gte": *floor - delta}
	}
	update := bson.M{
		"$inc": bson.M{kind.BalanceField(): delta, kind.SeqField(): 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetUpsert(floor == nil)

	var account models.Account
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrConditionFailed
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

// LedgerTransactionRepository handles MongoDB operations for LedgerTransaction
type LedgerTransactionRepository struct {
	collection *mongo.Collection
}

// NewLedgerTransactionRepository creates a new LedgerTransactionRepository
func NewLedgerTransactionRepository(db *mongo.Database) *LedgerTransactionRepository {
	return &LedgerTransactionRepository{
		collection: db.Collection("ledger_transactions"),
	}
}

// Create appends a transaction row
func (r *LedgerTransactionRepository) Create(ctx context.Context, transaction *models.LedgerTransaction) error {
	if transaction.ID.IsZero() {
		transaction.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, transaction)
	return mapError(err)
}

// FindByUser returns one ledger's rows in sequence order
func (r *LedgerTransactionRepository) FindByUser(ctx context.Context, userID primitive.ObjectID, kind models.LedgerKind) ([]*models.LedgerTransaction, error) {
	opts := options.Find().SetSort(bson.M{"seq": 1})
	return r.find(ctx, bson.M{"userId": userID, "ledger": kind}, opts)
}

// FindByReference returns every row pointing at one entry or withdrawal
func (r *LedgerTransactionRepository) FindByReference(ctx context.Context, reference string) ([]*models.LedgerTransaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"reference": reference}, opts)
}

func (r *LedgerTransactionRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.LedgerTransaction, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var transactions []*models.LedgerTransaction
	if err := cursor.All(ctx, &transactions); err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []*models.LedgerTransaction{}
	}
	return transactions, nil
}
