package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type instantPrizeRepo struct{ s *Store }

func (r *instantPrizeRepo) CreateMany(ctx context.Context, prizes []*models.InstantPrize) error {
	defer r.s.lock(ctx)()
	for _, p := range prizes {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		if _, exists := r.s.prizes[p.ID]; exists {
			return repositories.ErrDuplicateKey
		}
	}
	for _, p := range prizes {
		copied := *p
		r.s.prizes[p.ID] = &copied
	}
	return nil
}

func (r *instantPrizeRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.InstantPrize, error) {
	defer r.s.lock(ctx)()
	p, ok := r.s.prizes[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *instantPrizeRepo) FindByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.InstantPrize, error) {
	defer r.s.lock(ctx)()
	result := []*models.InstantPrize{}
	for _, p := range r.s.prizes {
		if p.CompetitionID == competitionID {
			copied := *p
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Value != result[j].Value {
			return result[i].Value > result[j].Value
		}
		return result[i].ID.Hex() < result[j].ID.Hex()
	})
	return result, nil
}

func (r *instantPrizeRepo) DecrementRemaining(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	p, ok := r.s.prizes[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if p.RemainingWins <= 0 {
		return repositories.ErrConditionFailed
	}
	p.RemainingWins--
	return nil
}

func (r *instantPrizeRepo) DeleteByCompetition(ctx context.Context, competitionID primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	for id, p := range r.s.prizes {
		if p.CompetitionID == competitionID {
			delete(r.s.prizes, id)
		}
	}
	return nil
}

type instantWinTicketRepo struct{ s *Store }

func (r *instantWinTicketRepo) CreateMany(ctx context.Context, tickets []*models.InstantWinTicket) error {
	defer r.s.lock(ctx)()
	seen := make(map[primitive.ObjectID]map[int]bool)
	for _, t := range r.s.winTickets {
		if seen[t.CompetitionID] == nil {
			seen[t.CompetitionID] = make(map[int]bool)
		}
		seen[t.CompetitionID][t.TicketNumber] = true
	}
	for _, t := range tickets {
		if seen[t.CompetitionID] == nil {
			seen[t.CompetitionID] = make(map[int]bool)
		}
		if seen[t.CompetitionID][t.TicketNumber] {
			return repositories.ErrDuplicateKey
		}
		seen[t.CompetitionID][t.TicketNumber] = true
	}
	for _, t := range tickets {
		if t.ID.IsZero() {
			t.ID = primitive.NewObjectID()
		}
		copied := *t
		r.s.winTickets[t.ID] = &copied
	}
	return nil
}

func (r *instantWinTicketRepo) FindByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.InstantWinTicket, error) {
	defer r.s.lock(ctx)()
	result := []*models.InstantWinTicket{}
	for _, t := range r.s.winTickets {
		if t.CompetitionID == competitionID {
			copied := *t
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TicketNumber < result[j].TicketNumber })
	return result, nil
}

func (r *instantWinTicketRepo) CountClaimed(ctx context.Context, competitionID primitive.ObjectID) (int64, error) {
	defer r.s.lock(ctx)()
	var count int64
	for _, t := range r.s.winTickets {
		if t.CompetitionID == competitionID && t.WinnerID != nil {
			count++
		}
	}
	return count, nil
}

func (r *instantWinTicketRepo) Claim(ctx context.Context, competitionID primitive.ObjectID, ticketNumber int, winnerID, entryID primitive.ObjectID, at time.Time) (*models.InstantWinTicket, error) {
	defer r.s.lock(ctx)()
	for _, t := range r.s.winTickets {
		if t.CompetitionID != competitionID || t.TicketNumber != ticketNumber || t.WinnerID != nil || t.PrizeID.IsZero() {
			continue
		}
		winner := winnerID
		entry := entryID
		claimedAt := at
		t.WinnerID = &winner
		t.EntryID = &entry
		t.ClaimedAt = &claimedAt
		copied := *t
		return &copied, nil
	}
	return nil, nil
}

func (r *instantWinTicketRepo) DeleteByCompetition(ctx context.Context, competitionID primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	for id, t := range r.s.winTickets {
		if t.CompetitionID == competitionID {
			delete(r.s.winTickets, id)
		}
	}
	return nil
}
