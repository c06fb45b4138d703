package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"github.com/ArowuTest/competitions-backend/internal/utils"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure PrizePoolServiceImpl implements PrizePoolService
var _ PrizePoolService = (*PrizePoolServiceImpl)(nil)

var hundred = decimal.NewFromInt(100)

// PrizePoolServiceImpl generates instant-win prize pools
type PrizePoolServiceImpl struct {
	txm             repositories.TxManager
	competitionRepo repositories.CompetitionRepository
	prizeRepo       repositories.InstantPrizeRepository
	winTicketRepo   repositories.InstantWinTicketRepository
}

// NewPrizePoolService creates a new PrizePoolServiceImpl
func NewPrizePoolService(
	txm repositories.TxManager,
	competitionRepo repositories.CompetitionRepository,
	prizeRepo repositories.InstantPrizeRepository,
	winTicketRepo repositories.InstantWinTicketRepository,
) *PrizePoolServiceImpl {
	return &PrizePoolServiceImpl{
		txm:             txm,
		competitionRepo: competitionRepo,
		prizeRepo:       prizeRepo,
		winTicketRepo:   winTicketRepo,
	}
}

// tierPlan is the computed size of one tier.
type tierPlan struct {
	tier   models.PrizeTier
	budget decimal.Decimal
	count  int
}

// poolPlan is the budget breakdown of a policy applied to one competition.
type poolPlan struct {
	totalBudget   decimal.Decimal
	instantBudget decimal.Decimal
	tiers         []tierPlan
	ticketCount   int
}

// ValidatePolicy checks a policy without touching the store.
func ValidatePolicy(policy models.PoolPolicy) error {
	if policy.TargetPayoutRatio <= 0 || policy.TargetPayoutRatio > 1 {
		return invalidPolicy("targetPayoutRatio must be in (0, 1], got %v", policy.TargetPayoutRatio)
	}
	if policy.InstantShare < 0 || policy.InstantShare > 1 {
		return invalidPolicy("instantShare must be in [0, 1], got %v", policy.InstantShare)
	}
	if len(policy.Tiers) == 0 {
		return invalidPolicy("at least one tier is required")
	}

	total := decimal.Zero
	for i, tier := range policy.Tiers {
		if strings.TrimSpace(tier.Name) == "" {
			return invalidPolicy("tier %d has no name", i)
		}
		if tier.Percent < 0 || tier.Percent > 100 {
			return invalidPolicy("tier %q percent must be in [0, 100], got %v", tier.Name, tier.Percent)
		}
		if tier.UnitValue <= 0 {
			return invalidPolicy("tier %q unitValue must be positive", tier.Name)
		}
		if !tier.Type.Valid() {
			return invalidPolicy("tier %q has unknown type %q", tier.Name, tier.Type)
		}
		total = total.Add(decimal.NewFromFloat(tier.Percent))
	}
	if total.GreaterThan(hundred) {
		return invalidPolicy("tier percentages sum to %s, more than 100", total.String())
	}
	return nil
}

// planPool applies the budget formulas in decimal arithmetic:
// totalBudget = maxTickets x ticketPrice x ratio, instantBudget = totalBudget x share,
// count = floor(instantBudget x percent/100 / unitValue), at least 1 for a funded tier.
func planPool(competition *models.Competition, policy models.PoolPolicy) poolPlan {
	gross := decimal.NewFromInt(int64(competition.MaxTickets)).Mul(decimal.NewFromInt(competition.TicketPrice))
	plan := poolPlan{
		totalBudget: gross.Mul(decimal.NewFromFloat(policy.TargetPayoutRatio)),
	}
	plan.instantBudget = plan.totalBudget.Mul(decimal.NewFromFloat(policy.InstantShare))

	for _, tier := range policy.Tiers {
		budget := plan.instantBudget.Mul(decimal.NewFromFloat(tier.Percent)).Div(hundred)
		if !budget.IsPositive() {
			continue
		}
		count := budget.Div(decimal.NewFromInt(tier.UnitValue)).Floor().IntPart()
		if count < 1 {
			count = 1
		}
		plan.tiers = append(plan.tiers, tierPlan{tier: tier, budget: budget, count: int(count)})
		plan.ticketCount += int(count)
	}
	return plan
}

// sampleNumbers draws count distinct numbers from the unissued range
// sold+1..maxTickets by rejection sampling, giving up after 2 x maxTickets
// draws. Numbers are issued sequentially, so 1..sold are already held by
// entries and a prize placed there could never be claimed.
func sampleNumbers(count, sold, maxTickets int) ([]int, error) {
	space := maxTickets - sold
	if count > space {
		return nil, fmt.Errorf("%w: %d prizes for %d unissued numbers", ErrNumberSpaceExhausted, count, space)
	}
	used := make(map[int]struct{}, count)
	numbers := make([]int, 0, count)
	limit := 2 * maxTickets
	for attempts := 0; len(numbers) < count; attempts++ {
		if attempts >= limit {
			return nil, fmt.Errorf("%w: placed %d of %d prizes in %d attempts", ErrNumberSpaceExhausted, len(numbers), count, limit)
		}
		n, err := utils.RandomInt(space)
		if err != nil {
			return nil, err
		}
		n += sold + 1
		if _, taken := used[n]; taken {
			continue
		}
		used[n] = struct{}{}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

// GeneratePool replaces the competition's unclaimed pool with a freshly generated one
func (s *PrizePoolServiceImpl) GeneratePool(ctx context.Context, competitionID primitive.ObjectID, policy models.PoolPolicy) (*models.PoolSummary, error) {
	if err := ValidatePolicy(policy); err != nil {
		return nil, err
	}

	var summary *models.PoolSummary
	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		competition, err := s.competitionRepo.FindByID(ctx, competitionID)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCompetitionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load competition: %w", err)
		}
		if competition.IsDrawn() {
			return ErrCompetitionClosed
		}

		claimed, err := s.winTicketRepo.CountClaimed(ctx, competitionID)
		if err != nil {
			return fmt.Errorf("failed to count claimed tickets: %w", err)
		}
		if claimed > 0 {
			return fmt.Errorf("%w: %d tickets already claimed", ErrPoolAlreadyInUse, claimed)
		}

		if competition.TicketsSold < 0 || competition.TicketsSold > competition.MaxTickets {
			return fmt.Errorf("%w: competition %s has ticketsSold=%d of %d",
				ErrCorruptState, competitionID.Hex(), competition.TicketsSold, competition.MaxTickets)
		}

		plan := planPool(competition, policy)
		numbers, err := sampleNumbers(plan.ticketCount, competition.TicketsSold, competition.MaxTickets)
		if err != nil {
			return err
		}

		now := time.Now()
		prizes := make([]*models.InstantPrize, 0, len(plan.tiers))
		tickets := make([]*models.InstantWinTicket, 0, plan.ticketCount)
		next := 0
		for _, tp := range plan.tiers {
			prize := &models.InstantPrize{
				ID:            primitive.NewObjectID(),
				CompetitionID: competitionID,
				Name:          tp.tier.Name,
				Type:          tp.tier.Type,
				Value:         tp.tier.UnitValue,
				TotalWins:     tp.count,
				RemainingWins: tp.count,
				CreatedAt:     now,
			}
			prizes = append(prizes, prize)
			for i := 0; i < tp.count; i++ {
				tickets = append(tickets, &models.InstantWinTicket{
					CompetitionID: competitionID,
					TicketNumber:  numbers[next],
					PrizeID:       prize.ID,
				})
				next++
			}
		}
		// Persist in random order so tier identity does not follow insertion or numeric order.
		if err := utils.Shuffle(tickets); err != nil {
			return err
		}

		if err := s.winTicketRepo.DeleteByCompetition(ctx, competitionID); err != nil {
			return fmt.Errorf("failed to clear previous winning tickets: %w", err)
		}
		if err := s.prizeRepo.DeleteByCompetition(ctx, competitionID); err != nil {
			return fmt.Errorf("failed to clear previous prizes: %w", err)
		}
		if err := s.prizeRepo.CreateMany(ctx, prizes); err != nil {
			return fmt.Errorf("failed to create prizes: %w", err)
		}
		if err := s.winTicketRepo.CreateMany(ctx, tickets); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return fmt.Errorf("%w: duplicate winning number", ErrNumberSpaceExhausted)
			}
			return fmt.Errorf("failed to create winning tickets: %w", err)
		}

		summary = &models.PoolSummary{
			CompetitionID:  competitionID.Hex(),
			TotalBudget:    plan.totalBudget.Floor().IntPart(),
			InstantBudget:  plan.instantBudget.Floor().IntPart(),
			AllocatedValue: allocatedValue(prizes),
			TicketCount:    len(tickets),
			Odds:           odds(competition.MaxTickets, len(tickets)),
			Prizes:         prizes,
		}
		return nil
	})
	if err != nil {
		slog.Warn("Prize pool generation failed", "competitionId", competitionID.Hex(), "error", err)
		return nil, err
	}

	slog.Info("Prize pool generated", "competitionId", competitionID.Hex(), "tickets", summary.TicketCount,
		"instantBudget", utils.FormatPence(summary.InstantBudget), "allocated", utils.FormatPence(summary.AllocatedValue))
	return summary, nil
}

// GetPool reports the pool as it stands; claimed numbers are listed without buyers
func (s *PrizePoolServiceImpl) GetPool(ctx context.Context, competitionID primitive.ObjectID) (*models.PoolSummary, error) {
	competition, err := s.competitionRepo.FindByID(ctx, competitionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrCompetitionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load competition: %w", err)
	}
	prizes, err := s.prizeRepo.FindByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prizes: %w", err)
	}
	tickets, err := s.winTicketRepo.FindByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load winning tickets: %w", err)
	}

	claimed := []int{}
	for _, t := range tickets {
		if t.IsClaimed() {
			claimed = append(claimed, t.TicketNumber)
		}
	}
	return &models.PoolSummary{
		CompetitionID:  competitionID.Hex(),
		AllocatedValue: allocatedValue(prizes),
		TicketCount:    len(tickets),
		Odds:           odds(competition.MaxTickets, len(tickets)),
		Prizes:         prizes,
		ClaimedNumbers: claimed,
	}, nil
}

func allocatedValue(prizes []*models.InstantPrize) int64 {
	var total int64
	for _, p := range prizes {
		total += p.Value * int64(p.TotalWins)
	}
	return total
}

func odds(maxTickets, winners int) float64 {
	if winners == 0 {
		return 0
	}
	return float64(maxTickets) / float64(winners)
}
