package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newCompetition(t *testing.T, s *Store) *models.Competition {
	t.Helper()
	c := &models.Competition{Title: "Watch", MaxTickets: 5, TicketPrice: 100, IsActive: true, EndDate: time.Now().Add(time.Hour)}
	require.NoError(t, s.Competitions().Create(context.Background(), c))
	return c
}

func TestTransactionRollsBackEveryCollection(t *testing.T) {
	s := New()
	ctx := context.Background()
	c := newCompetition(t, s)
	user := primitive.NewObjectID()

	boom := errors.New("boom")
	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Competitions().ReserveTickets(ctx, c.ID, 0, 2, time.Now()))
		require.NoError(t, s.Entries().Create(ctx, &models.Entry{
			CompetitionID: c.ID, UserID: user, Quantity: 2, TicketNumbers: []int{1, 2},
			PaymentStatus: models.PaymentStatusCompleted,
		}))
		_, err := s.Accounts().ApplyDelta(ctx, user, models.LedgerCash, 500, nil)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := s.Competitions().FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.TicketsSold)
	entries, err := s.Entries().FindCompletedByCompetition(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, err = s.Accounts().FindByUserID(ctx, user)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	// Ticket numbers released by the rollback can be issued again.
	require.NoError(t, s.Entries().Create(ctx, &models.Entry{
		CompetitionID: c.ID, UserID: user, Quantity: 1, TicketNumbers: []int{1},
		PaymentStatus: models.PaymentStatusCompleted,
	}))
}

func TestNestedTransactionJoinsOuter(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := primitive.NewObjectID()

	boom := errors.New("outer failed")
	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		inner := s.WithTransaction(ctx, func(ctx context.Context) error {
			_, err := s.Accounts().ApplyDelta(ctx, user, models.LedgerCredit, 300, nil)
			return err
		})
		require.NoError(t, inner)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Accounts().FindByUserID(ctx, user)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestEntriesRejectReissuedNumbers(t *testing.T) {
	s := New()
	ctx := context.Background()
	c := newCompetition(t, s)

	require.NoError(t, s.Entries().Create(ctx, &models.Entry{
		CompetitionID: c.ID, UserID: primitive.NewObjectID(), Quantity: 2, TicketNumbers: []int{1, 2},
		PaymentStatus: models.PaymentStatusCompleted,
	}))
	err := s.Entries().Create(ctx, &models.Entry{
		CompetitionID: c.ID, UserID: primitive.NewObjectID(), Quantity: 1, TicketNumbers: []int{2},
		PaymentStatus: models.PaymentStatusCompleted,
	})
	assert.ErrorIs(t, err, repositories.ErrDuplicateKey)
}

func TestReserveTicketsGuards(t *testing.T) {
	s := New()
	ctx := context.Background()
	c := newCompetition(t, s)
	repo := s.Competitions()

	assert.ErrorIs(t, repo.ReserveTickets(ctx, c.ID, 1, 1, time.Now()), repositories.ErrConditionFailed)
	assert.ErrorIs(t, repo.ReserveTickets(ctx, c.ID, 0, 6, time.Now()), repositories.ErrConditionFailed)
	assert.ErrorIs(t, repo.ReserveTickets(ctx, c.ID, 0, 1, c.EndDate), repositories.ErrConditionFailed)
	assert.ErrorIs(t, repo.ReserveTickets(ctx, primitive.NewObjectID(), 0, 1, time.Now()), repositories.ErrNotFound)
	require.NoError(t, repo.ReserveTickets(ctx, c.ID, 0, 5, time.Now()))

	stored, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.TicketsSold)
}

func TestApplyDeltaFloor(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := primitive.NewObjectID()
	zero := int64(0)

	_, err := s.Accounts().ApplyDelta(ctx, user, models.LedgerCash, -100, &zero)
	assert.ErrorIs(t, err, repositories.ErrConditionFailed)

	account, err := s.Accounts().ApplyDelta(ctx, user, models.LedgerCash, 250, &zero)
	require.NoError(t, err)
	assert.Equal(t, int64(250), account.CashBalance)
	assert.Equal(t, int64(1), account.CashSeq)

	_, err = s.Accounts().ApplyDelta(ctx, user, models.LedgerCash, -300, &zero)
	assert.ErrorIs(t, err, repositories.ErrConditionFailed)

	account, err = s.Accounts().ApplyDelta(ctx, user, models.LedgerCash, -300, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(-50), account.CashBalance)
	assert.Equal(t, int64(2), account.CashSeq)
	assert.Zero(t, account.CreditSeq)
}

func TestCommitHooksRunOnlyAfterCommit(t *testing.T) {
	s := New()
	ctx := context.Background()
	var fired []string

	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		repositories.AfterCommit(ctx, func() { fired = append(fired, "outer") })
		return s.WithTransaction(ctx, func(ctx context.Context) error {
			repositories.AfterCommit(ctx, func() { fired = append(fired, "nested") })
			assert.Empty(t, fired)
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "nested"}, fired)

	fired = nil
	boom := errors.New("boom")
	err = s.WithTransaction(ctx, func(ctx context.Context) error {
		repositories.AfterCommit(ctx, func() { fired = append(fired, "rolled back") })
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, fired)

	repositories.AfterCommit(ctx, func() { fired = append(fired, "no transaction") })
	assert.Equal(t, []string{"no transaction"}, fired)
}
