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

func TestDrawRecordsWinnerAndAudit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	competition := env.openCompetition(t, 100, 100)
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	env.buy(t, alice, competition, 2)
	env.buy(t, bob, competition, 3)

	result, err := env.draws.Draw(ctx, competition.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, result.RosterSize)
	assert.Equal(t, result.SelectedIndex+1, result.WinningTicketNumber)
	if result.WinningTicketNumber <= 2 {
		assert.Equal(t, alice, result.WinnerID)
	} else {
		assert.Equal(t, bob, result.WinnerID)
	}
	assert.Regexp(t, `^DRAW-\d{8}-[A-Z2-7]{8}$`, result.DrawID)

	stored, err := env.competitions.Get(ctx, competition.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	require.NotNil(t, stored.WinnerID)
	assert.Equal(t, result.WinnerID, *stored.WinnerID)
	assert.Equal(t, result.WinningTicketNumber, *stored.WinningTicketNumber)
	assert.Equal(t, result.DrawID, *stored.DrawID)
	require.NotNil(t, stored.DrawTimestamp)

	_, record, err := env.draws.GetDraw(ctx, competition.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, models.DrawStatusCompleted, record.Status)
	assert.Equal(t, result.DrawID, record.DrawRef)
	assert.Equal(t, 5, record.RosterSize)
	assert.Len(t, record.RosterDigest, 64)
	assert.NotEmpty(t, record.ExecutionLog)

	// The competition is terminal for purchases.
	_, err = env.purchases.AllocateAndCreateEntry(ctx, &models.Purchase{
		UserID:               alice,
		Items:                []models.PurchaseItem{{CompetitionID: competition.ID, TicketPrice: 100, Quantity: 1}},
		AuthorizedCashAmount: 100,
	})
	assert.ErrorIs(t, err, ErrCompetitionClosed)
	_, err = env.competitions.Activate(ctx, competition.ID)
	assert.ErrorIs(t, err, ErrCompetitionClosed)
}

func TestDrawTwiceReturnsStoredResult(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	competition := env.openCompetition(t, 100, 100)
	env.buy(t, primitive.NewObjectID(), competition, 4)

	first, err := env.draws.Draw(ctx, competition.ID)
	require.NoError(t, err)
	again, err := env.draws.Draw(ctx, competition.ID)
	require.ErrorIs(t, err, ErrAlreadyDrawn)
	require.NotNil(t, again)
	assert.Equal(t, first.DrawID, again.DrawID)
	assert.Equal(t, first.WinningTicketNumber, again.WinningTicketNumber)
	assert.Equal(t, first.SelectedIndex, again.SelectedIndex)

	records, err := env.store.Draws().FindByCompetition(ctx, competition.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestDrawWithoutEntriesChangesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	competition := env.openCompetition(t, 100, 100)

	_, err := env.draws.Draw(ctx, competition.ID)
	require.ErrorIs(t, err, ErrNoEntries)

	stored, err := env.competitions.Get(ctx, competition.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	assert.Nil(t, stored.WinnerID)

	_, err = env.draws.Draw(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrCompetitionNotFound)
}

func TestClearWinnerAndRedraw(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	competition := env.openCompetition(t, 100, 100)
	env.buy(t, primitive.NewObjectID(), competition, 3)

	first, err := env.draws.Draw(ctx, competition.ID)
	require.NoError(t, err)
	require.NoError(t, env.draws.ClearWinner(ctx, competition.ID, "winner ineligible"))

	stored, err := env.competitions.Get(ctx, competition.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.WinnerID)
	assert.Nil(t, stored.WinningTicketNumber)
	assert.Nil(t, stored.DrawID)
	assert.Nil(t, stored.DrawTimestamp)
	assert.False(t, stored.IsActive)

	records, err := env.store.Draws().FindByCompetition(ctx, competition.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.DrawStatusVoided, records[0].Status)
	assert.Equal(t, "winner ineligible", records[0].VoidReason)

	err = env.draws.ClearWinner(ctx, competition.ID, "again")
	assert.ErrorIs(t, err, ErrNotDrawn)

	second, err := env.draws.Draw(ctx, competition.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.DrawID, second.DrawID)
}

func TestFinalizeDrawLocksResult(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	competition := env.openCompetition(t, 100, 100)
	env.buy(t, primitive.NewObjectID(), competition, 2)

	_, err := env.draws.FinalizeDraw(ctx, competition.ID)
	assert.ErrorIs(t, err, ErrNotDrawn)

	result, err := env.draws.Draw(ctx, competition.ID)
	require.NoError(t, err)

	env.notifier.err = errors.New("webhook down")
	_, err = env.draws.FinalizeDraw(ctx, competition.ID)
	require.Error(t, err)
	stored, err := env.competitions.Get(ctx, competition.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.DrawFinalizedAt)

	env.notifier.err = nil
	finalized, err := env.draws.FinalizeDraw(ctx, competition.ID)
	require.NoError(t, err)
	assert.Equal(t, result.DrawID, finalized.DrawID)
	assert.Equal(t, 1, env.notifier.count())

	// Repeating is a no-op.
	_, err = env.draws.FinalizeDraw(ctx, competition.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, env.notifier.count())

	err = env.draws.ClearWinner(ctx, competition.ID, "too late")
	assert.ErrorIs(t, err, ErrDrawFinalized)
}

func TestBuildRosterRejectsMalformedEntries(t *testing.T) {
	competition := &models.Competition{MaxTickets: 10, TicketsSold: 3}
	user := primitive.NewObjectID()

	_, err := BuildRoster(competition, []*models.Entry{
		{ID: primitive.NewObjectID(), UserID: user, Quantity: 3, TicketNumbers: []int{1, 2}},
	})
	assert.ErrorIs(t, err, ErrCorruptState)

	_, err = BuildRoster(competition, []*models.Entry{
		{ID: primitive.NewObjectID(), UserID: user, Quantity: 1, TicketNumbers: []int{11}},
	})
	assert.ErrorIs(t, err, ErrCorruptState)

	_, err = BuildRoster(competition, []*models.Entry{
		{ID: primitive.NewObjectID(), UserID: user, Quantity: 1, TicketNumbers: []int{4}},
		{ID: primitive.NewObjectID(), UserID: user, Quantity: 1, TicketNumbers: []int{4}},
	})
	assert.ErrorIs(t, err, ErrCorruptState)

	for _, sold := range []int{-1, 11} {
		_, err = BuildRoster(&models.Competition{MaxTickets: 10, TicketsSold: sold}, []*models.Entry{
			{ID: primitive.NewObjectID(), UserID: user, Quantity: 1, TicketNumbers: []int{1}},
		})
		assert.ErrorIs(t, err, ErrCorruptState, "ticketsSold=%d", sold)
	}

	roster, err := BuildRoster(competition, []*models.Entry{
		{ID: primitive.NewObjectID(), UserID: user, Quantity: 2, TicketNumbers: []int{1, 2}},
		{ID: primitive.NewObjectID(), UserID: user, Quantity: 1, TicketNumbers: []int{3}},
	})
	require.NoError(t, err)
	assert.Len(t, roster, 3)
	assert.Equal(t, RosterDigest(roster), RosterDigest(roster))
}

// Selection frequencies over a fixed roster must be consistent with 1/N.
func TestSelectIndexIsUniform(t *testing.T) {
	const (
		n      = 10
		trials = 50000
		// chi-square critical value for 9 degrees of freedom at p = 0.0001
		critical = 33.72
	)
	counts := make([]int, n)
	for i := 0; i < trials; i++ {
		index, err := SelectIndex(n)
		require.NoError(t, err)
		counts[index]++
	}

	expected := float64(trials) / n
	chiSquare := 0.0
	for _, c := range counts {
		d := float64(c) - expected
		chiSquare += d * d / expected
	}
	assert.Less(t, chiSquare, critical, "counts %v", counts)
}

// Repeated draw and clear over one competition reaches every ticket, whichever
// entry or user holds it.
func TestDrawDoesNotWeightByEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	competition := env.openCompetition(t, 100, 100)
	env.buy(t, primitive.NewObjectID(), competition, 1)
	env.buy(t, primitive.NewObjectID(), competition, 5)

	hits := make(map[int]int)
	for i := 0; i < 300; i++ {
		result, err := env.draws.Draw(ctx, competition.ID)
		require.NoError(t, err)
		hits[result.WinningTicketNumber]++
		require.NoError(t, env.draws.ClearWinner(ctx, competition.ID, "trial"))
	}
	for ticket := 1; ticket <= 6; ticket++ {
		assert.Positive(t, hits[ticket], "ticket %d never selected", ticket)
	}
	// The single-ticket entry gets about 1/6 of the draws, not 1/2.
	assert.Less(t, hits[1], 100)
}
