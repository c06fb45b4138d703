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

// Compile-time check to ensure SettlementServiceImpl implements SettlementService
var _ SettlementService = (*SettlementServiceImpl)(nil)

// ErrPaymentIncomplete is returned when settling an entry whose payment is not completed.
var ErrPaymentIncomplete = errors.New("entry payment is not completed")

// SettlementServiceImpl matches purchased numbers against pre-placed winning tickets
type SettlementServiceImpl struct {
	txm           repositories.TxManager
	entryRepo     repositories.EntryRepository
	prizeRepo     repositories.InstantPrizeRepository
	winTicketRepo repositories.InstantWinTicketRepository
	ledger        LedgerService
}

// NewSettlementService creates a new SettlementServiceImpl
func NewSettlementService(
	txm repositories.TxManager,
	entryRepo repositories.EntryRepository,
	prizeRepo repositories.InstantPrizeRepository,
	winTicketRepo repositories.InstantWinTicketRepository,
	ledger LedgerService,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		txm:           txm,
		entryRepo:     entryRepo,
		prizeRepo:     prizeRepo,
		winTicketRepo: winTicketRepo,
		ledger:        ledger,
	}
}

// SettleInstantWins settles an entry on behalf of a collaborator
func (s *SettlementServiceImpl) SettleInstantWins(ctx context.Context, entryID primitive.ObjectID) (*models.Settlement, error) {
	return s.Settle(ctx, entryID)
}

// Settle claims each of the entry's numbers that is a still-unclaimed winning
// ticket and credits the prize. A stored settlement is returned unchanged, so
// repeated calls never credit twice.
func (s *SettlementServiceImpl) Settle(ctx context.Context, entryID primitive.ObjectID) (*models.Settlement, error) {
	var settlement *models.Settlement
	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		entry, err := s.entryRepo.FindByID(ctx, entryID)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load entry: %w", err)
		}
		if entry.Settlement != nil {
			settlement = entry.Settlement
			return nil
		}
		if entry.PaymentStatus != models.PaymentStatusCompleted {
			return ErrPaymentIncomplete
		}

		settlement, err = s.settle(ctx, entry)
		if err != nil {
			return err
		}
		if err := s.entryRepo.SetSettlement(ctx, entry.ID, settlement); err != nil {
			return fmt.Errorf("failed to store settlement: %w", err)
		}
		wins := settlement.Wins()
		cashWon, creditWon := settlement.TotalCashWon, settlement.TotalCreditWon
		repositories.AfterCommit(ctx, func() {
			for _, win := range wins {
				metrics.RecordInstantWin(string(win.Type))
			}
			if len(wins) > 0 {
				slog.Info("Instant wins settled", "entryId", entryID.Hex(), "wins", len(wins),
					"cashWon", utils.FormatPence(cashWon), "creditWon", utils.FormatPence(creditWon))
			}
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

func (s *SettlementServiceImpl) settle(ctx context.Context, entry *models.Entry) (*models.Settlement, error) {
	now := time.Now()
	settlement := &models.Settlement{
		Results:   make([]models.WinResult, 0, len(entry.TicketNumbers)),
		SettledAt: now,
	}
	prizes := make(map[primitive.ObjectID]*models.InstantPrize)

	for _, number := range entry.TicketNumbers {
		claimed, err := s.winTicketRepo.Claim(ctx, entry.CompetitionID, number, entry.UserID, entry.ID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to claim ticket %d: %w", number, err)
		}
		if claimed == nil {
			// Not a winning number, or someone else holds the claim.
			settlement.Results = append(settlement.Results, models.WinResult{TicketNumber: number, Result: models.WinOutcomeNone})
			continue
		}

		prize, ok := prizes[claimed.PrizeID]
		if !ok {
			prize, err = s.prizeRepo.FindByID(ctx, claimed.PrizeID)
			if err != nil {
				return nil, fmt.Errorf("failed to load prize %s for ticket %d: %w", claimed.PrizeID.Hex(), number, err)
			}
			prizes[claimed.PrizeID] = prize
		}
		if err := s.prizeRepo.DecrementRemaining(ctx, prize.ID); err != nil {
			if errors.Is(err, repositories.ErrConditionFailed) {
				return nil, fmt.Errorf("%w: prize %s has no remaining wins for claimed ticket %d", ErrCorruptState, prize.ID.Hex(), number)
			}
			return nil, fmt.Errorf("failed to decrement prize %s: %w", prize.ID.Hex(), err)
		}

		description := fmt.Sprintf("Instant win: %s (ticket #%d)", prize.Name, number)
		if _, err := s.ledger.Credit(ctx, entry.UserID, prize.Type.Ledger(), prize.Value, description, entry.ID.Hex()); err != nil {
			return nil, fmt.Errorf("failed to credit instant win: %w", err)
		}

		prizeID := prize.ID
		settlement.Results = append(settlement.Results, models.WinResult{
			TicketNumber: number,
			Result:       models.WinOutcomeWin,
			PrizeID:      &prizeID,
			PrizeName:    prize.Name,
			Value:        prize.Value,
			Type:         prize.Type,
		})
		if prize.Type == models.PrizeTypeCash {
			settlement.TotalCashWon += prize.Value
		} else {
			settlement.TotalCreditWon += prize.Value
		}
	}
	return settlement, nil
}
