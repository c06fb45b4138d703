package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type competitionRepo struct{ s *Store }

func (r *competitionRepo) Create(ctx context.Context, competition *models.Competition) error {
	defer r.s.lock(ctx)()
	if competition.ID.IsZero() {
		competition.ID = primitive.NewObjectID()
	}
	if _, exists := r.s.competitions[competition.ID]; exists {
		return repositories.ErrDuplicateKey
	}
	now := time.Now()
	competition.CreatedAt = now
	competition.UpdatedAt = now
	r.s.competitions[competition.ID] = cloneCompetition(competition)
	return nil
}

func (r *competitionRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Competition, error) {
	defer r.s.lock(ctx)()
	c, ok := r.s.competitions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneCompetition(c), nil
}

func (r *competitionRepo) FindExpiredActive(ctx context.Context, now time.Time) ([]*models.Competition, error) {
	defer r.s.lock(ctx)()
	result := []*models.Competition{}
	for _, c := range r.s.competitions {
		if c.IsActive && !c.EndDate.After(now) {
			result = append(result, cloneCompetition(c))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EndDate.Before(result[j].EndDate) })
	return result, nil
}

func (r *competitionRepo) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	defer r.s.lock(ctx)()
	c, ok := r.s.competitions[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if c.WinnerID != nil {
		return repositories.ErrConditionFailed
	}
	c.IsActive = active
	c.UpdatedAt = time.Now()
	return nil
}

func (r *competitionRepo) ReserveTickets(ctx context.Context, id primitive.ObjectID, expectedSold, quantity int, now time.Time) error {
	defer r.s.lock(ctx)()
	c, ok := r.s.competitions[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if !c.IsOpen(now) || c.TicketsSold != expectedSold || expectedSold+quantity > c.MaxTickets {
		return repositories.ErrConditionFailed
	}
	c.TicketsSold += quantity
	c.UpdatedAt = now
	return nil
}

func (r *competitionRepo) RecordDraw(ctx context.Context, id primitive.ObjectID, result *models.DrawResult) error {
	defer r.s.lock(ctx)()
	c, ok := r.s.competitions[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if c.WinnerID != nil {
		return repositories.ErrConditionFailed
	}
	winnerID := result.WinnerID
	ticket := result.WinningTicketNumber
	drawID := result.DrawID
	at := result.DrawTimestamp
	c.WinnerID = &winnerID
	c.WinningTicketNumber = &ticket
	c.DrawID = &drawID
	c.DrawTimestamp = &at
	c.IsActive = false
	c.UpdatedAt = at
	return nil
}

func (r *competitionRepo) ClearDraw(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	c, ok := r.s.competitions[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if c.WinnerID == nil || c.DrawFinalizedAt != nil {
		return repositories.ErrConditionFailed
	}
	c.WinnerID = nil
	c.WinningTicketNumber = nil
	c.DrawID = nil
	c.DrawTimestamp = nil
	c.UpdatedAt = time.Now()
	return nil
}

func (r *competitionRepo) MarkDrawFinalized(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	defer r.s.lock(ctx)()
	c, ok := r.s.competitions[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if c.WinnerID == nil || c.DrawFinalizedAt != nil {
		return repositories.ErrConditionFailed
	}
	c.DrawFinalizedAt = &at
	c.UpdatedAt = at
	return nil
}
