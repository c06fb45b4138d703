package memory

import (
	"context"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type accountRepo struct{ s *Store }

func (r *accountRepo) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Account, error) {
	defer r.s.lock(ctx)()
	a, ok := r.s.accounts[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *accountRepo) ApplyDelta(ctx context.Context, userID primitive.ObjectID, kind models.LedgerKind, delta int64, floor *int64) (*models.Account, error) {
	defer r.s.lock(ctx)()
	a, ok := r.s.accounts[userID]
	if !ok {
		if floor != nil && delta < *floor {
			return nil, repositories.ErrConditionFailed
		}
		a = &models.Account{UserID: userID}
		r.s.accounts[userID] = a
	}
	if floor != nil && a.Balance(kind)+delta < *floor {
		return nil, repositories.ErrConditionFailed
	}
	switch kind {
	case models.LedgerCash:
		a.CashBalance += delta
		a.CashSeq++
	default:
		a.CreditBalance += delta
		a.CreditSeq++
	}
	a.UpdatedAt = time.Now()
	copied := *a
	return &copied, nil
}

type ledgerTransactionRepo struct{ s *Store }

func (r *ledgerTransactionRepo) Create(ctx context.Context, transaction *models.LedgerTransaction) error {
	defer r.s.lock(ctx)()
	if transaction.ID.IsZero() {
		transaction.ID = primitive.NewObjectID()
	}
	for _, existing := range r.s.ledger {
		if existing.UserID == transaction.UserID && existing.Ledger == transaction.Ledger && existing.Seq == transaction.Seq {
			return repositories.ErrDuplicateKey
		}
	}
	copied := *transaction
	r.s.ledger = append(r.s.ledger, &copied)
	return nil
}

func (r *ledgerTransactionRepo) FindByUser(ctx context.Context, userID primitive.ObjectID, kind models.LedgerKind) ([]*models.LedgerTransaction, error) {
	defer r.s.lock(ctx)()
	result := []*models.LedgerTransaction{}
	for _, t := range r.s.ledger {
		if t.UserID == userID && t.Ledger == kind {
			copied := *t
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *ledgerTransactionRepo) FindByReference(ctx context.Context, reference string) ([]*models.LedgerTransaction, error) {
	defer r.s.lock(ctx)()
	result := []*models.LedgerTransaction{}
	for _, t := range r.s.ledger {
		if t.Reference == reference {
			copied := *t
			result = append(result, &copied)
		}
	}
	return result, nil
}
