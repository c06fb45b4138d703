package mongodb

import (
	"context"

	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

var _ repositories.TxManager = (*TxManager)(nil)

// TxManager runs repository calls inside a MongoDB multi-document transaction.
// A replica set (or sharded cluster) is required.
type TxManager struct {
	client *mongo.Client
}

// NewTxManager creates a new TxManager
func NewTxManager(client *mongo.Client) *TxManager {
	return &TxManager{client: client}
}

// WithTransaction starts a session and runs fn in a snapshot transaction.
// The driver retries fn on transient errors such as write conflicts, so fn
// must be safe to re-run. A ctx that already carries a session joins it.
// Hooks registered with repositories.AfterCommit run once the commit succeeds.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := m.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.New(writeconcern.WMajority()))

	hooks := repositories.NewCommitHooks()
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		// A retried attempt starts over; hooks from the aborted one must not fire.
		hooks.Reset()
		return nil, fn(repositories.WithCommitHooks(sc, hooks))
	}, opts)
	if err != nil {
		return err
	}
	hooks.Run()
	return nil
}
