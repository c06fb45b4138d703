package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on. The unique ones
// are the storage-level guards behind ticket allocation, instant-win tickets
// and ledger ordering.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"competitions": {
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "endDate", Value: 1}}},
		},
		"entries": {
			{
				Keys:    bson.D{{Key: "competitionId", Value: 1}, {Key: "ticketNumbers", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_ticket_number"),
			},
			{
				Keys: bson.D{{Key: "paymentReference", Value: 1}, {Key: "competitionId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_payment_reference").
					SetPartialFilterExpression(bson.M{"paymentReference": bson.M{"$type": "string"}}),
			},
			{Keys: bson.D{{Key: "competitionId", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}},
		},
		"instant_prizes": {
			{Keys: bson.D{{Key: "competitionId", Value: 1}}},
		},
		"instant_win_tickets": {
			{
				Keys:    bson.D{{Key: "competitionId", Value: 1}, {Key: "ticketNumber", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_instant_win_number"),
			},
		},
		"ledger_transactions": {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "ledger", Value: 1}, {Key: "seq", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_ledger_seq"),
			},
			{Keys: bson.D{{Key: "reference", Value: 1}}},
		},
		"withdrawals": {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		"draws": {
			{
				Keys:    bson.D{{Key: "drawRef", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_draw_ref"),
			},
			{Keys: bson.D{{Key: "competitionId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for collection, models := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
