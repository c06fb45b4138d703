package mongodb

import (
	"context"
	"errors"

	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// mapError translates driver errors into repository sentinels.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repositories.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repositories.ErrDuplicateKey
	default:
		return err
	}
}

// guardMiss tells a guarded update that matched nothing apart from a missing document.
func guardMiss(ctx context.Context, collection *mongo.Collection, id primitive.ObjectID) error {
	count, err := collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return repositories.ErrNotFound
	}
	return repositories.ErrConditionFailed
}
