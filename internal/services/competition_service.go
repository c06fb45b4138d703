package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure CompetitionServiceImpl implements CompetitionService
var _ CompetitionService = (*CompetitionServiceImpl)(nil)

// CompetitionServiceImpl handles the competition lifecycle around the core
type CompetitionServiceImpl struct {
	competitionRepo repositories.CompetitionRepository
}

// NewCompetitionService creates a new CompetitionServiceImpl
func NewCompetitionService(competitionRepo repositories.CompetitionRepository) *CompetitionServiceImpl {
	return &CompetitionServiceImpl{competitionRepo: competitionRepo}
}

// Create stores a new, inactive competition with no tickets sold
func (s *CompetitionServiceImpl) Create(ctx context.Context, competition *models.Competition) (*models.Competition, error) {
	switch {
	case strings.TrimSpace(competition.Title) == "":
		return nil, fmt.Errorf("%w: title is required", ErrInvalidCompetition)
	case competition.MaxTickets < 1:
		return nil, fmt.Errorf("%w: maxTickets must be at least 1", ErrInvalidCompetition)
	case competition.TicketPrice <= 0:
		return nil, fmt.Errorf("%w: ticketPrice must be positive", ErrInvalidCompetition)
	case !competition.EndDate.After(time.Now()):
		return nil, fmt.Errorf("%w: endDate must be in the future", ErrInvalidCompetition)
	}

	created := &models.Competition{
		Title:       strings.TrimSpace(competition.Title),
		MaxTickets:  competition.MaxTickets,
		TicketPrice: competition.TicketPrice,
		EndDate:     competition.EndDate,
	}
	if err := s.competitionRepo.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to create competition: %w", err)
	}
	slog.Info("Competition created", "competitionId", created.ID.Hex(), "maxTickets", created.MaxTickets, "endDate", created.EndDate)
	return created, nil
}

// Get finds a competition by ID
func (s *CompetitionServiceImpl) Get(ctx context.Context, id primitive.ObjectID) (*models.Competition, error) {
	competition, err := s.competitionRepo.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrCompetitionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load competition: %w", err)
	}
	return competition, nil
}

// Activate opens a competition for entries
func (s *CompetitionServiceImpl) Activate(ctx context.Context, id primitive.ObjectID) (*models.Competition, error) {
	competition, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !competition.EndDate.After(time.Now()) {
		return nil, fmt.Errorf("%w: end date has passed", ErrCompetitionClosed)
	}
	return s.setActive(ctx, id, true)
}

// Deactivate stops a competition taking entries
func (s *CompetitionServiceImpl) Deactivate(ctx context.Context, id primitive.ObjectID) (*models.Competition, error) {
	return s.setActive(ctx, id, false)
}

// CloseExpired deactivates every active competition whose end date has passed.
// It never draws.
func (s *CompetitionServiceImpl) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.competitionRepo.FindExpiredActive(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired competitions: %w", err)
	}
	closed := 0
	for _, competition := range expired {
		err := s.competitionRepo.SetActive(ctx, competition.ID, false)
		if errors.Is(err, repositories.ErrConditionFailed) || errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return closed, fmt.Errorf("failed to close competition %s: %w", competition.ID.Hex(), err)
		}
		closed++
		slog.Info("Competition closed at end date", "competitionId", competition.ID.Hex(), "endDate", competition.EndDate, "ticketsSold", competition.TicketsSold)
	}
	return closed, nil
}

func (s *CompetitionServiceImpl) setActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.Competition, error) {
	err := s.competitionRepo.SetActive(ctx, id, active)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil, ErrCompetitionNotFound
	case errors.Is(err, repositories.ErrConditionFailed):
		return nil, fmt.Errorf("%w: competition has been drawn", ErrCompetitionClosed)
	case err != nil:
		return nil, fmt.Errorf("failed to update competition: %w", err)
	}
	slog.Info("Competition status changed", "competitionId", id.Hex(), "isActive", active)
	return s.Get(ctx, id)
}
