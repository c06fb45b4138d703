package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/metrics"
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure Allocator implements TicketAllocator
var _ TicketAllocator = (*Allocator)(nil)

const maxReserveAttempts = 5

// Allocator issues sequential ticket numbers from a per-competition counter.
type Allocator struct {
	competitionRepo repositories.CompetitionRepository
	now             func() time.Time
}

// NewAllocator creates a new Allocator
func NewAllocator(competitionRepo repositories.CompetitionRepository) *Allocator {
	return &Allocator{
		competitionRepo: competitionRepo,
		now:             time.Now,
	}
}

// Allocate reserves the next quantity numbers, sold+1..sold+quantity. It does
// not write the entry; callers run it in the transaction that does, so the
// counter move and the entry commit or roll back together.
func (a *Allocator) Allocate(ctx context.Context, competitionID primitive.ObjectID, quantity int) ([]int, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	for attempt := 1; ; attempt++ {
		competition, err := a.competitionRepo.FindByID(ctx, competitionID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCompetitionNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load competition: %w", err)
		}

		now := a.now()
		if !competition.IsOpen(now) {
			metrics.RecordAllocationRejected("closed")
			return nil, ErrCompetitionClosed
		}
		if competition.TicketsSold < 0 || competition.TicketsSold > competition.MaxTickets {
			return nil, fmt.Errorf("%w: competition %s has ticketsSold=%d of %d",
				ErrCorruptState, competitionID.Hex(), competition.TicketsSold, competition.MaxTickets)
		}

		remaining := competition.RemainingTickets()
		if quantity > remaining {
			metrics.RecordAllocationRejected("capacity")
			slog.Info("Allocation refused, not enough tickets", "competitionId", competitionID.Hex(), "requested", quantity, "remaining", remaining)
			return nil, &CapacityError{Remaining: remaining, Requested: quantity}
		}

		sold := competition.TicketsSold
		err = a.competitionRepo.ReserveTickets(ctx, competitionID, sold, quantity, now)
		if err == nil {
			numbers := make([]int, quantity)
			for i := range numbers {
				numbers[i] = sold + 1 + i
			}
			repositories.AfterCommit(ctx, func() {
				metrics.RecordTicketsAllocated(quantity)
			})
			return numbers, nil
		}
		if !errors.Is(err, repositories.ErrConditionFailed) {
			return nil, fmt.Errorf("failed to reserve tickets: %w", err)
		}

		// Lost the compare-and-swap to a concurrent purchase; re-read.
		if attempt == maxReserveAttempts {
			metrics.RecordAllocationRejected("contention")
			slog.Warn("Allocation gave up after repeated contention", "competitionId", competitionID.Hex(), "attempts", attempt)
			return nil, &CapacityError{Remaining: remaining, Requested: quantity}
		}
	}
}
