package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
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

// Compile-time check to ensure DrawServiceImpl implements DrawService
var _ DrawService = (*DrawServiceImpl)(nil)

// DrawServiceImpl runs the grand-prize draw and keeps its audit trail
type DrawServiceImpl struct {
	txm             repositories.TxManager
	competitionRepo repositories.CompetitionRepository
	entryRepo       repositories.EntryRepository
	drawRepo        repositories.DrawRepository
	notifier        WinnerNotifier
	idPrefix        string
}

// NewDrawService creates a new DrawServiceImpl
func NewDrawService(
	txm repositories.TxManager,
	competitionRepo repositories.CompetitionRepository,
	entryRepo repositories.EntryRepository,
	drawRepo repositories.DrawRepository,
	notifier WinnerNotifier,
	idPrefix string,
) *DrawServiceImpl {
	return &DrawServiceImpl{
		txm:             txm,
		competitionRepo: competitionRepo,
		entryRepo:       entryRepo,
		drawRepo:        drawRepo,
		notifier:        notifier,
		idPrefix:        idPrefix,
	}
}

// BuildRoster flattens completed entries into one ticket per slot, in entry
// order. Stored numbers that disagree with the entry or the number space are
// a hard error.
func BuildRoster(competition *models.Competition, entries []*models.Entry) ([]models.RosterTicket, error) {
	if competition.TicketsSold < 0 || competition.TicketsSold > competition.MaxTickets {
		return nil, fmt.Errorf("%w: competition %s has ticketsSold=%d of %d",
			ErrCorruptState, competition.ID.Hex(), competition.TicketsSold, competition.MaxTickets)
	}
	roster := make([]models.RosterTicket, 0, competition.TicketsSold)
	seen := make(map[int]primitive.ObjectID, competition.TicketsSold)
	for _, entry := range entries {
		if len(entry.TicketNumbers) != entry.Quantity {
			return nil, fmt.Errorf("%w: entry %s holds %d numbers for quantity %d",
				ErrCorruptState, entry.ID.Hex(), len(entry.TicketNumbers), entry.Quantity)
		}
		for _, n := range entry.TicketNumbers {
			if n < 1 || n > competition.MaxTickets {
				return nil, fmt.Errorf("%w: entry %s holds ticket %d outside 1..%d",
					ErrCorruptState, entry.ID.Hex(), n, competition.MaxTickets)
			}
			if owner, dup := seen[n]; dup {
				return nil, fmt.Errorf("%w: ticket %d issued to entries %s and %s",
					ErrCorruptState, n, owner.Hex(), entry.ID.Hex())
			}
			seen[n] = entry.ID
			roster = append(roster, models.RosterTicket{EntryID: entry.ID, UserID: entry.UserID, TicketNumber: n})
		}
	}
	return roster, nil
}

// RosterDigest is the sha256 of the roster in selection order, one
// "entryId:userId:ticketNumber" line per ticket.
func RosterDigest(roster []models.RosterTicket) string {
	h := sha256.New()
	for _, t := range roster {
		fmt.Fprintf(h, "%s:%s:%d\n", t.EntryID.Hex(), t.UserID.Hex(), t.TicketNumber)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SelectIndex picks a roster position uniformly; every ticket has probability 1/n.
func SelectIndex(n int) (int, error) {
	return utils.RandomInt(n)
}

// Draw picks the winning ticket. The competition is closed, the roster read and
// the winner written in one transaction, so no entry can join mid-draw.
func (s *DrawServiceImpl) Draw(ctx context.Context, competitionID primitive.ObjectID) (*models.DrawResult, error) {
	var (
		result *models.DrawResult
		record *models.DrawRecord
	)
	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		result, record = nil, nil
		competition, err := s.competitionRepo.FindByID(ctx, competitionID)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCompetitionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load competition: %w", err)
		}
		if competition.IsDrawn() {
			result, err = s.storedResult(ctx, competition)
			if err != nil {
				return err
			}
			return ErrAlreadyDrawn
		}

		now := time.Now()
		log := []string{fmt.Sprintf("%s: Starting draw for competition %s", now.Format(time.RFC3339), competitionID.Hex())}

		if competition.IsActive {
			if err := s.competitionRepo.SetActive(ctx, competitionID, false); err != nil {
				return fmt.Errorf("failed to close competition: %w", err)
			}
			log = append(log, fmt.Sprintf("%s: Competition closed to new entries", now.Format(time.RFC3339)))
		}

		entries, err := s.entryRepo.FindCompletedByCompetition(ctx, competitionID)
		if err != nil {
			return fmt.Errorf("failed to load entries: %w", err)
		}
		roster, err := BuildRoster(competition, entries)
		if err != nil {
			return err
		}
		if len(roster) == 0 {
			return ErrNoEntries
		}
		digest := RosterDigest(roster)
		log = append(log, fmt.Sprintf("%s: Roster built: %d tickets from %d entries, sha256 %s",
			now.Format(time.RFC3339), len(roster), len(entries), digest))

		index, err := SelectIndex(len(roster))
		if err != nil {
			return fmt.Errorf("failed to select winner: %w", err)
		}
		winner := roster[index]
		drawRef, err := utils.NewDrawRef(s.idPrefix, now)
		if err != nil {
			return fmt.Errorf("failed to generate draw id: %w", err)
		}
		log = append(log, fmt.Sprintf("%s: Selected index %d: ticket #%d", now.Format(time.RFC3339), index, winner.TicketNumber))

		result = &models.DrawResult{
			CompetitionID:       competitionID,
			DrawID:              drawRef,
			WinningTicketNumber: winner.TicketNumber,
			WinnerID:            winner.UserID,
			DrawTimestamp:       now,
			RosterSize:          len(roster),
			SelectedIndex:       index,
		}
		if err := s.competitionRepo.RecordDraw(ctx, competitionID, result); err != nil {
			if errors.Is(err, repositories.ErrConditionFailed) {
				return ErrAlreadyDrawn
			}
			return fmt.Errorf("failed to record draw: %w", err)
		}

		record = &models.DrawRecord{
			DrawRef:             drawRef,
			CompetitionID:       competitionID,
			Status:              models.DrawStatusCompleted,
			RosterSize:          len(roster),
			SelectedIndex:       index,
			RosterDigest:        digest,
			WinningTicketNumber: winner.TicketNumber,
			WinnerID:            winner.UserID,
			EntryID:             winner.EntryID,
			ExecutionLog:        append(log, fmt.Sprintf("%s: Draw recorded as %s", now.Format(time.RFC3339), drawRef)),
			CreatedAt:           now,
		}
		if err := s.drawRepo.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to store draw record: %w", err)
		}
		return nil
	})
	if errors.Is(err, ErrAlreadyDrawn) {
		slog.Warn("Draw requested for a drawn competition", "competitionId", competitionID.Hex())
		return result, err
	}
	if err != nil {
		slog.Error("Draw failed", "competitionId", competitionID.Hex(), "error", err)
		return nil, err
	}

	metrics.RecordDrawEvent("executed")
	slog.Info("Draw completed", "competitionId", competitionID.Hex(), "drawId", result.DrawID,
		"ticket", result.WinningTicketNumber, "winner", utils.MaskID(result.WinnerID.Hex()), "rosterSize", result.RosterSize)
	return result, nil
}

// ClearWinner blanks the draw outcome and voids its record. It is refused
// once the draw has been finalized.
func (s *DrawServiceImpl) ClearWinner(ctx context.Context, competitionID primitive.ObjectID, reason string) error {
	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		competition, err := s.competitionRepo.FindByID(ctx, competitionID)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCompetitionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load competition: %w", err)
		}
		if !competition.IsDrawn() {
			return ErrNotDrawn
		}
		if competition.DrawFinalizedAt != nil {
			return ErrDrawFinalized
		}

		if err := s.competitionRepo.ClearDraw(ctx, competitionID); err != nil {
			if errors.Is(err, repositories.ErrConditionFailed) {
				return ErrDrawFinalized
			}
			return fmt.Errorf("failed to clear draw: %w", err)
		}

		record, err := s.drawRepo.FindLatestByCompetition(ctx, competitionID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load draw record: %w", err)
		}
		if record.Status == models.DrawStatusCompleted {
			if err := s.drawRepo.Void(ctx, record.ID, reason, time.Now()); err != nil {
				return fmt.Errorf("failed to void draw record: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.RecordDrawEvent("cleared")
	slog.Warn("Draw winner cleared", "competitionId", competitionID.Hex(), "reason", reason)
	return nil
}

// FinalizeDraw notifies the winner, then stamps the draw as final. A failed
// notification leaves the draw unfinalized so the call can be repeated.
func (s *DrawServiceImpl) FinalizeDraw(ctx context.Context, competitionID primitive.ObjectID) (*models.DrawResult, error) {
	competition, err := s.competitionRepo.FindByID(ctx, competitionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrCompetitionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load competition: %w", err)
	}
	if !competition.IsDrawn() {
		return nil, ErrNotDrawn
	}
	result, err := s.storedResult(ctx, competition)
	if err != nil {
		return nil, err
	}
	if competition.DrawFinalizedAt != nil {
		return result, nil
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyWinner(ctx, competition, result); err != nil {
			slog.Error("Failed to notify draw winner", "competitionId", competitionID.Hex(), "drawId", result.DrawID, "error", err)
			return nil, fmt.Errorf("failed to notify winner: %w", err)
		}
	}

	if err := s.competitionRepo.MarkDrawFinalized(ctx, competitionID, time.Now()); err != nil {
		if !errors.Is(err, repositories.ErrConditionFailed) {
			return nil, fmt.Errorf("failed to finalize draw: %w", err)
		}
		current, findErr := s.competitionRepo.FindByID(ctx, competitionID)
		if findErr != nil {
			return nil, fmt.Errorf("failed to reload competition: %w", findErr)
		}
		if current.DrawFinalizedAt == nil {
			return nil, ErrNotDrawn
		}
	}

	metrics.RecordDrawEvent("finalized")
	slog.Info("Draw finalized", "competitionId", competitionID.Hex(), "drawId", result.DrawID)
	return result, nil
}

// GetDraw returns the current draw result and the record that backs it
func (s *DrawServiceImpl) GetDraw(ctx context.Context, competitionID primitive.ObjectID) (*models.DrawResult, *models.DrawRecord, error) {
	competition, err := s.competitionRepo.FindByID(ctx, competitionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, ErrCompetitionNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load competition: %w", err)
	}
	if !competition.IsDrawn() {
		return nil, nil, ErrNotDrawn
	}
	result, err := s.storedResult(ctx, competition)
	if err != nil {
		return nil, nil, err
	}
	record, err := s.drawRepo.FindLatestByCompetition(ctx, competitionID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to load draw record: %w", err)
	}
	return result, record, nil
}

// storedResult rebuilds the result of a drawn competition from its fields and,
// when it matches, the latest draw record.
func (s *DrawServiceImpl) storedResult(ctx context.Context, competition *models.Competition) (*models.DrawResult, error) {
	if competition.WinnerID == nil || competition.WinningTicketNumber == nil || competition.DrawID == nil || competition.DrawTimestamp == nil {
		return nil, fmt.Errorf("%w: competition %s has a partial draw outcome", ErrCorruptState, competition.ID.Hex())
	}
	result := &models.DrawResult{
		CompetitionID:       competition.ID,
		DrawID:              *competition.DrawID,
		WinningTicketNumber: *competition.WinningTicketNumber,
		WinnerID:            *competition.WinnerID,
		DrawTimestamp:       *competition.DrawTimestamp,
	}
	record, err := s.drawRepo.FindLatestByCompetition(ctx, competition.ID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load draw record: %w", err)
	}
	if record != nil && record.DrawRef == result.DrawID {
		result.RosterSize = record.RosterSize
		result.SelectedIndex = record.SelectedIndex
	}
	return result, nil
}
