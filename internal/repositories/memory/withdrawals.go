package memory

import (
	"context"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type withdrawalRepo struct{ s *Store }

func (r *withdrawalRepo) Create(ctx context.Context, request *models.WithdrawalRequest) error {
	defer r.s.lock(ctx)()
	if request.ID.IsZero() {
		request.ID = primitive.NewObjectID()
	}
	if _, exists := r.s.withdrawals[request.ID]; exists {
		return repositories.ErrDuplicateKey
	}
	now := time.Now()
	request.CreatedAt = now
	request.UpdatedAt = now
	r.s.withdrawals[request.ID] = cloneWithdrawal(request)
	return nil
}

func (r *withdrawalRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.WithdrawalRequest, error) {
	defer r.s.lock(ctx)()
	w, ok := r.s.withdrawals[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneWithdrawal(w), nil
}

func (r *withdrawalRepo) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.WithdrawalRequest, error) {
	defer r.s.lock(ctx)()
	result := []*models.WithdrawalRequest{}
	for _, w := range r.s.withdrawals {
		if w.UserID == userID {
			result = append(result, cloneWithdrawal(w))
		}
	}
	return result, nil
}

func (r *withdrawalRepo) Transition(ctx context.Context, id primitive.ObjectID, from, to models.WithdrawalStatus, update repositories.WithdrawalUpdate) error {
	defer r.s.lock(ctx)()
	w, ok := r.s.withdrawals[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if w.Status != from {
		return repositories.ErrConditionFailed
	}
	w.Status = to
	if update.Reason != "" {
		w.Reason = update.Reason
	}
	if update.RefundTxID != nil {
		refund := *update.RefundTxID
		w.RefundTxID = &refund
	}
	w.UpdatedAt = time.Now()
	return nil
}
