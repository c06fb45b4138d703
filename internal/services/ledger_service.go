package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/metrics"
	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"github.com/ArowuTest/competitions-backend/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure LedgerServiceImpl implements LedgerService
var _ LedgerService = (*LedgerServiceImpl)(nil)

// DebitOptions relaxes debit checks for privileged callers.
type DebitOptions struct {
	// AllowNegative lets an administrative adjustment take a balance below zero.
	AllowNegative bool
}

// ledger is one balance of an account. Cash and credit are two instances of
// the same type, so the transaction-log rules hold identically for both.
type ledger struct {
	kind         models.LedgerKind
	accounts     repositories.AccountRepository
	transactions repositories.LedgerTransactionRepository
}

// apply moves the balance by delta and appends the matching row. The row's
// balance is the account balance returned by the same update.
func (l *ledger) apply(ctx context.Context, userID primitive.ObjectID, delta int64, floor *int64, description, reference string) (*models.LedgerTransaction, error) {
	account, err := l.accounts.ApplyDelta(ctx, userID, l.kind, delta, floor)
	if errors.Is(err, repositories.ErrConditionFailed) {
		balance, balErr := l.balance(ctx, userID)
		if balErr != nil {
			return nil, balErr
		}
		return nil, &InsufficientFundsError{Ledger: l.kind, Balance: balance, Requested: -delta}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update %s balance: %w", l.kind, err)
	}

	transaction := &models.LedgerTransaction{
		UserID:      userID,
		Ledger:      l.kind,
		Amount:      delta,
		Balance:     account.Balance(l.kind),
		Description: description,
		Reference:   reference,
		Seq:         account.Seq(l.kind),
		CreatedAt:   time.Now(),
	}
	if err := l.transactions.Create(ctx, transaction); err != nil {
		return nil, fmt.Errorf("failed to record %s transaction: %w", l.kind, err)
	}
	repositories.AfterCommit(ctx, func() {
		metrics.RecordLedgerTransaction(string(l.kind), delta)
	})
	return transaction, nil
}

func (l *ledger) balance(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	account, err := l.accounts.FindByUserID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load account: %w", err)
	}
	return account.Balance(l.kind), nil
}

// LedgerServiceImpl handles the cash and site-credit ledgers
type LedgerServiceImpl struct {
	txm      repositories.TxManager
	accounts repositories.AccountRepository
	ledgers  map[models.LedgerKind]*ledger
}

// NewLedgerService creates a new LedgerServiceImpl
func NewLedgerService(
	txm repositories.TxManager,
	accountRepo repositories.AccountRepository,
	transactionRepo repositories.LedgerTransactionRepository,
) *LedgerServiceImpl {
	ledgers := make(map[models.LedgerKind]*ledger, len(models.LedgerKinds))
	for _, kind := range models.LedgerKinds {
		ledgers[kind] = &ledger{kind: kind, accounts: accountRepo, transactions: transactionRepo}
	}
	return &LedgerServiceImpl{
		txm:      txm,
		accounts: accountRepo,
		ledgers:  ledgers,
	}
}

func (s *LedgerServiceImpl) ledgerFor(kind models.LedgerKind) (*ledger, error) {
	l, ok := s.ledgers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLedger, kind)
	}
	return l, nil
}

// Credit adds amount to the user's ledger
func (s *LedgerServiceImpl) Credit(ctx context.Context, userID primitive.ObjectID, kind models.LedgerKind, amount int64, description, reference string) (*models.LedgerTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	l, err := s.ledgerFor(kind)
	if err != nil {
		return nil, err
	}

	var transaction *models.LedgerTransaction
	err = s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		transaction, err = l.apply(ctx, userID, amount, nil, description, reference)
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("Ledger credited", "userId", userID.Hex(), "ledger", kind, "amount", utils.FormatPence(amount), "balance", utils.FormatPence(transaction.Balance))
	return transaction, nil
}

// Debit removes amount from the user's ledger
func (s *LedgerServiceImpl) Debit(ctx context.Context, userID primitive.ObjectID, kind models.LedgerKind, amount int64, description, reference string, opts DebitOptions) (*models.LedgerTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	l, err := s.ledgerFor(kind)
	if err != nil {
		return nil, err
	}

	var floor *int64
	if !opts.AllowNegative {
		zero := int64(0)
		floor = &zero
	}

	var transaction *models.LedgerTransaction
	err = s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		transaction, err = l.apply(ctx, userID, -amount, floor, description, reference)
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("Ledger debited", "userId", userID.Hex(), "ledger", kind, "amount", utils.FormatPence(amount), "balance", utils.FormatPence(transaction.Balance))
	return transaction, nil
}

// GetBalance returns both balances; a user without an account has zero in each
func (s *LedgerServiceImpl) GetBalance(ctx context.Context, userID primitive.ObjectID) (*models.Balances, error) {
	account, err := s.accounts.FindByUserID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &models.Balances{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &models.Balances{Cash: account.CashBalance, Credit: account.CreditBalance}, nil
}

// History returns one ledger's transactions in the order they were applied
func (s *LedgerServiceImpl) History(ctx context.Context, userID primitive.ObjectID, kind models.LedgerKind) ([]*models.LedgerTransaction, error) {
	l, err := s.ledgerFor(kind)
	if err != nil {
		return nil, err
	}
	return l.transactions.FindByUser(ctx, userID, kind)
}

// Reconcile replays the ledger: every row must carry the previous balance
// plus its amount, and the final running sum must equal the cached balance.
func (s *LedgerServiceImpl) Reconcile(ctx context.Context, userID primitive.ObjectID, kind models.LedgerKind) (*models.ReconcileReport, error) {
	l, err := s.ledgerFor(kind)
	if err != nil {
		return nil, err
	}

	report := &models.ReconcileReport{UserID: userID, Ledger: kind}
	err = s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		history, err := l.transactions.FindByUser(ctx, userID, kind)
		if err != nil {
			return fmt.Errorf("failed to load ledger history: %w", err)
		}
		stored, err := l.balance(ctx, userID)
		if err != nil {
			return err
		}

		report.Transactions = len(history)
		report.Sum = 0
		report.FirstMismatch = nil
		for _, row := range history {
			report.Sum += row.Amount
			if row.Balance != report.Sum && report.FirstMismatch == nil {
				id := row.ID
				report.FirstMismatch = &id
			}
		}
		report.StoredBalance = stored
		report.Consistent = report.FirstMismatch == nil && report.Sum == stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !report.Consistent {
		slog.Error("Ledger reconciliation mismatch", "userId", userID.Hex(), "ledger", kind,
			"sum", utils.FormatPence(report.Sum), "stored", utils.FormatPence(report.StoredBalance))
	}
	return report, nil
}

// Adjust applies a signed administrative correction. Negative adjustments may
// take the balance below zero.
func (s *LedgerServiceImpl) Adjust(ctx context.Context, userID primitive.ObjectID, kind models.LedgerKind, amount int64, reason string, adminID primitive.ObjectID) (*models.LedgerTransaction, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	description := "Admin adjustment"
	if reason != "" {
		description += ": " + reason
	}
	reference := "admin:" + adminID.Hex()

	var (
		transaction *models.LedgerTransaction
		err         error
	)
	if amount > 0 {
		transaction, err = s.Credit(ctx, userID, kind, amount, description, reference)
	} else {
		transaction, err = s.Debit(ctx, userID, kind, -amount, description, reference, DebitOptions{AllowNegative: true})
	}
	if err != nil {
		return nil, err
	}
	slog.Info("Ledger adjusted by admin", "userId", userID.Hex(), "adminId", adminID.Hex(), "ledger", kind, "amount", utils.FormatPence(amount))
	return transaction, nil
}
