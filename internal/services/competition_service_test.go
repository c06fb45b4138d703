package services

import (
	"context"
	"testing"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateCompetitionValidation(t *testing.T) {
	env := newTestEnv(t)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name        string
		competition models.Competition
	}{
		{"missing title", models.Competition{Title: " ", MaxTickets: 10, TicketPrice: 100, EndDate: future}},
		{"no tickets", models.Competition{Title: "Car", MaxTickets: 0, TicketPrice: 100, EndDate: future}},
		{"free tickets", models.Competition{Title: "Car", MaxTickets: 10, TicketPrice: 0, EndDate: future}},
		{"already ended", models.Competition{Title: "Car", MaxTickets: 10, TicketPrice: 100, EndDate: time.Now().Add(-time.Minute)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			competition := tt.competition
			_, err := env.competitions.Create(context.Background(), &competition)
			assert.ErrorIs(t, err, ErrInvalidCompetition)
		})
	}
}

func TestCreateCompetitionStartsInactive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.competitions.Create(ctx, &models.Competition{
		Title:       "  Hatchback  ",
		MaxTickets:  500,
		TicketPrice: 199,
		TicketsSold: 42,
		IsActive:    true,
		EndDate:     time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hatchback", created.Title)
	assert.False(t, created.IsActive)
	assert.Zero(t, created.TicketsSold)
	assert.False(t, created.ID.IsZero())

	// Entries are refused until activation.
	_, err = env.purchases.AllocateAndCreateEntry(ctx, &models.Purchase{
		UserID:               primitive.NewObjectID(),
		Items:                []models.PurchaseItem{{CompetitionID: created.ID, TicketPrice: 199, Quantity: 1}},
		AuthorizedCashAmount: 199,
	})
	assert.ErrorIs(t, err, ErrCompetitionClosed)

	active, err := env.competitions.Activate(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, active.IsActive)

	inactive, err := env.competitions.Deactivate(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, inactive.IsActive)

	_, err = env.competitions.Get(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrCompetitionNotFound)
	_, err = env.competitions.Activate(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrCompetitionNotFound)
}

func (e *testEnv) activeCompetitionEnding(t *testing.T, end time.Time) *models.Competition {
	t.Helper()
	ctx := context.Background()
	created, err := e.competitions.Create(ctx, &models.Competition{
		Title: "Timed", MaxTickets: 10, TicketPrice: 100, EndDate: end,
	})
	require.NoError(t, err)
	active, err := e.competitions.Activate(ctx, created.ID)
	require.NoError(t, err)
	return active
}

func TestCloseExpiredOnlyDeactivates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ending := env.activeCompetitionEnding(t, time.Now().Add(time.Hour))
	running := env.activeCompetitionEnding(t, time.Now().Add(72*time.Hour))
	env.buy(t, primitive.NewObjectID(), ending, 2)

	now := time.Now().Add(2 * time.Hour)
	closed, err := env.competitions.CloseExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	stored, err := env.competitions.Get(ctx, ending.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Nil(t, stored.WinnerID)
	assert.Equal(t, 2, stored.TicketsSold)

	stillOpen, err := env.competitions.Get(ctx, running.ID)
	require.NoError(t, err)
	assert.True(t, stillOpen.IsActive)

	closed, err = env.competitions.CloseExpired(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, closed)

	// The closed competition can still be drawn.
	_, err = env.draws.Draw(ctx, ending.ID)
	require.NoError(t, err)
}
