package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"github.com/ArowuTest/competitions-backend/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure WithdrawalServiceImpl implements WithdrawalService
var _ WithdrawalService = (*WithdrawalServiceImpl)(nil)

// WithdrawalServiceImpl handles cash withdrawal requests. Cash is reserved by
// a debit when the request is made; only rejection touches the ledger again.
type WithdrawalServiceImpl struct {
	txm            repositories.TxManager
	withdrawalRepo repositories.WithdrawalRepository
	ledger         LedgerService
}

// NewWithdrawalService creates a new WithdrawalServiceImpl
func NewWithdrawalService(txm repositories.TxManager, withdrawalRepo repositories.WithdrawalRepository, ledger LedgerService) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		txm:            txm,
		withdrawalRepo: withdrawalRepo,
		ledger:         ledger,
	}
}

// Request reserves amount from the cash balance and opens a pending request
func (s *WithdrawalServiceImpl) Request(ctx context.Context, userID primitive.ObjectID, amount int64, paymentDetails map[string]string) (*models.WithdrawalRequest, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	request := &models.WithdrawalRequest{
		ID:             primitive.NewObjectID(),
		UserID:         userID,
		Amount:         amount,
		Status:         models.WithdrawalPending,
		PaymentDetails: paymentDetails,
	}
	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		reservation, err := s.ledger.Debit(ctx, userID, models.LedgerCash, amount,
			"Withdrawal request", request.ID.Hex(), DebitOptions{})
		if err != nil {
			return err
		}
		request.ReservationTxID = reservation.ID
		if err := s.withdrawalRepo.Create(ctx, request); err != nil {
			return fmt.Errorf("failed to create withdrawal request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Withdrawal requested", "withdrawalId", request.ID.Hex(), "userId", userID.Hex(), "amount", utils.FormatPence(amount))
	return request, nil
}

// Approve moves a pending request to approved; the ledger is not touched
func (s *WithdrawalServiceImpl) Approve(ctx context.Context, id primitive.ObjectID) (*models.WithdrawalRequest, error) {
	return s.transition(ctx, id, models.WithdrawalPending, models.WithdrawalApproved, repositories.WithdrawalUpdate{})
}

// Complete marks an approved request as paid out; the ledger is not touched
func (s *WithdrawalServiceImpl) Complete(ctx context.Context, id primitive.ObjectID) (*models.WithdrawalRequest, error) {
	return s.transition(ctx, id, models.WithdrawalApproved, models.WithdrawalCompleted, repositories.WithdrawalUpdate{})
}

// Reject refuses a pending request and refunds the reserved cash with one new transaction
func (s *WithdrawalServiceImpl) Reject(ctx context.Context, id primitive.ObjectID, reason string) (*models.WithdrawalRequest, error) {
	reason = strings.TrimSpace(reason)
	var request *models.WithdrawalRequest
	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != models.WithdrawalPending {
			return fmt.Errorf("%w: cannot reject a %s request", ErrInvalidWithdrawalState, current.Status)
		}

		description := "Withdrawal rejected"
		if reason != "" {
			description += ": " + reason
		}
		refund, err := s.ledger.Credit(ctx, current.UserID, models.LedgerCash, current.Amount, description, current.ID.Hex())
		if err != nil {
			return fmt.Errorf("failed to refund withdrawal: %w", err)
		}

		update := repositories.WithdrawalUpdate{Reason: reason, RefundTxID: &refund.ID}
		if err := s.withdrawalRepo.Transition(ctx, id, models.WithdrawalPending, models.WithdrawalRejected, update); err != nil {
			if errors.Is(err, repositories.ErrConditionFailed) {
				return ErrInvalidWithdrawalState
			}
			return fmt.Errorf("failed to update withdrawal: %w", err)
		}
		request, err = s.load(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Withdrawal rejected", "withdrawalId", id.Hex(), "refund", utils.FormatPence(request.Amount), "reason", reason)
	return request, nil
}

// ListByUser returns a user's withdrawal requests
func (s *WithdrawalServiceImpl) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.WithdrawalRequest, error) {
	return s.withdrawalRepo.FindByUser(ctx, userID)
}

func (s *WithdrawalServiceImpl) transition(ctx context.Context, id primitive.ObjectID, from, to models.WithdrawalStatus, update repositories.WithdrawalUpdate) (*models.WithdrawalRequest, error) {
	err := s.withdrawalRepo.Transition(ctx, id, from, to, update)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil, ErrWithdrawalNotFound
	case errors.Is(err, repositories.ErrConditionFailed):
		current, loadErr := s.load(ctx, id)
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, fmt.Errorf("%w: cannot move a %s request to %s", ErrInvalidWithdrawalState, current.Status, to)
	case err != nil:
		return nil, fmt.Errorf("failed to update withdrawal: %w", err)
	}

	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	slog.Info("Withdrawal status changed", "withdrawalId", id.Hex(), "from", from, "to", to)
	return request, nil
}

func (s *WithdrawalServiceImpl) load(ctx context.Context, id primitive.ObjectID) (*models.WithdrawalRequest, error) {
	request, err := s.withdrawalRepo.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrWithdrawalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load withdrawal: %w", err)
	}
	return request, nil
}
