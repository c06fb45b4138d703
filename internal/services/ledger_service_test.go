package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLedgerCreditAndDebit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := primitive.NewObjectID()

	tx, err := env.ledger.Credit(ctx, user, models.LedgerCash, 1500, "Prize", "ref-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), tx.Amount)
	assert.Equal(t, int64(1500), tx.Balance)

	tx, err = env.ledger.Debit(ctx, user, models.LedgerCash, 400, "Spend", "ref-2", DebitOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(-400), tx.Amount)
	assert.Equal(t, int64(1100), tx.Balance)

	balances, err := env.ledger.GetBalance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, models.Balances{Cash: 1100, Credit: 0}, *balances)
}

func TestLedgerDebitInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := primitive.NewObjectID()

	_, err := env.ledger.Credit(ctx, user, models.LedgerCredit, 300, "Bonus", "ref")
	require.NoError(t, err)

	_, err = env.ledger.Debit(ctx, user, models.LedgerCredit, 500, "Spend", "ref", DebitOptions{})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	var insufficient *InsufficientFundsError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int64(300), insufficient.Balance)
	assert.Equal(t, int64(500), insufficient.Requested)
	assert.Equal(t, models.LedgerCredit, insufficient.Ledger)

	// Nothing was written by the failed debit.
	history, err := env.ledger.History(ctx, user, models.LedgerCredit)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	// A user with no account at all is also short.
	_, err = env.ledger.Debit(ctx, primitive.NewObjectID(), models.LedgerCash, 1, "Spend", "ref", DebitOptions{})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestLedgerRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := primitive.NewObjectID()

	_, err := env.ledger.Credit(ctx, user, models.LedgerCash, 0, "x", "y")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = env.ledger.Debit(ctx, user, models.LedgerCash, -5, "x", "y", DebitOptions{})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = env.ledger.Credit(ctx, user, models.LedgerKind("POINTS"), 10, "x", "y")
	assert.ErrorIs(t, err, ErrInvalidLedger)
}

func TestLedgerAdjustMayGoNegative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := primitive.NewObjectID()
	admin := primitive.NewObjectID()

	_, err := env.ledger.Credit(ctx, user, models.LedgerCash, 100, "Prize", "ref")
	require.NoError(t, err)

	tx, err := env.ledger.Adjust(ctx, user, models.LedgerCash, -250, "chargeback", admin)
	require.NoError(t, err)
	assert.Equal(t, int64(-150), tx.Balance)
	assert.Equal(t, "admin:"+admin.Hex(), tx.Reference)
	assert.Contains(t, tx.Description, "chargeback")

	_, err = env.ledger.Adjust(ctx, user, models.LedgerCash, 0, "noop", admin)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestLedgerRunningSumMatchesBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := primitive.NewObjectID()

	ops := []int64{1000, -200, 50, -850, 300, 25}
	for _, kind := range models.LedgerKinds {
		for _, amount := range ops {
			var err error
			if amount > 0 {
				_, err = env.ledger.Credit(ctx, user, kind, amount, "credit", "ref")
			} else {
				_, err = env.ledger.Debit(ctx, user, kind, -amount, "debit", "ref", DebitOptions{})
			}
			require.NoError(t, err)
		}
	}

	balances, err := env.ledger.GetBalance(ctx, user)
	require.NoError(t, err)
	for _, kind := range models.LedgerKinds {
		history, err := env.ledger.History(ctx, user, kind)
		require.NoError(t, err)
		require.Len(t, history, len(ops))

		var running int64
		for i, row := range history {
			running += row.Amount
			assert.Equal(t, running, row.Balance, "row %d of %s", i, kind)
			assert.Equal(t, int64(i+1), row.Seq)
		}

		report, err := env.ledger.Reconcile(ctx, user, kind)
		require.NoError(t, err)
		assert.True(t, report.Consistent)
		assert.Equal(t, running, report.Sum)
		assert.Equal(t, running, report.StoredBalance)
		assert.Nil(t, report.FirstMismatch)
	}
	assert.Equal(t, int64(325), balances.Cash)
	assert.Equal(t, int64(325), balances.Credit)
}

func TestReconcileDetectsTamperedRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := primitive.NewObjectID()

	_, err := env.ledger.Credit(ctx, user, models.LedgerCash, 500, "Prize", "ref")
	require.NoError(t, err)

	// A row written without a balance update breaks the invariant.
	require.NoError(t, env.store.LedgerTransactions().Create(ctx, &models.LedgerTransaction{
		UserID:  user,
		Ledger:  models.LedgerCash,
		Amount:  100,
		Balance: 600,
		Seq:     99,
	}))

	report, err := env.ledger.Reconcile(ctx, user, models.LedgerCash)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	assert.Equal(t, int64(600), report.Sum)
	assert.Equal(t, int64(500), report.StoredBalance)
}
