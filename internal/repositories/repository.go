package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("not found")
	// ErrConditionFailed is returned when a guarded update matched nothing.
	ErrConditionFailed = errors.New("update condition not met")
	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
)

// TxManager runs a function inside one store transaction. Nested calls join
// the outer transaction. Repository calls made with the ctx passed to fn
// participate in the transaction; a non-nil error from fn rolls everything back.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CompetitionRepository defines the interface for competition data operations
type CompetitionRepository interface {
	Create(ctx context.Context, competition *models.Competition) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Competition, error)
	FindExpiredActive(ctx context.Context, now time.Time) ([]*models.Competition, error)
	// SetActive flips isActive on a competition that has no winner.
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	// ReserveTickets moves ticketsSold from expectedSold to expectedSold+quantity
	// only if the competition is still open and the counter is unchanged.
	ReserveTickets(ctx context.Context, id primitive.ObjectID, expectedSold, quantity int, now time.Time) error
	// RecordDraw writes the four draw fields together, only while winnerId is null.
	RecordDraw(ctx context.Context, id primitive.ObjectID, result *models.DrawResult) error
	// ClearDraw blanks the four draw fields together, only while the draw is not finalized.
	ClearDraw(ctx context.Context, id primitive.ObjectID) error
	// MarkDrawFinalized stamps drawFinalizedAt on a drawn, not yet finalized competition.
	MarkDrawFinalized(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// EntryRepository defines the interface for entry data operations
type EntryRepository interface {
	Create(ctx context.Context, entry *models.Entry) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Entry, error)
	FindByPaymentReference(ctx context.Context, paymentReference string) ([]*models.Entry, error)
	// FindCompletedByCompetition returns completed entries ordered by (createdAt, _id).
	FindCompletedByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.Entry, error)
	// SetSettlement stores a settlement only if none is stored yet.
	SetSettlement(ctx context.Context, id primitive.ObjectID, settlement *models.Settlement) error
}

// InstantPrizeRepository defines the interface for instant prize operations
type InstantPrizeRepository interface {
	CreateMany(ctx context.Context, prizes []*models.InstantPrize) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.InstantPrize, error)
	FindByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.InstantPrize, error)
	// DecrementRemaining lowers remainingWins by one, only while it is positive.
	DecrementRemaining(ctx context.Context, id primitive.ObjectID) error
	DeleteByCompetition(ctx context.Context, competitionID primitive.ObjectID) error
}

// InstantWinTicketRepository defines the interface for instant-win ticket operations
type InstantWinTicketRepository interface {
	CreateMany(ctx context.Context, tickets []*models.InstantWinTicket) error
	FindByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.InstantWinTicket, error)
	CountClaimed(ctx context.Context, competitionID primitive.ObjectID) (int64, error)
	// Claim assigns a winner to the unclaimed ticket with this number. It returns
	// the claimed ticket, or (nil, nil) when no unclaimed ticket matched.
	Claim(ctx context.Context, competitionID primitive.ObjectID, ticketNumber int, winnerID, entryID primitive.ObjectID, at time.Time) (*models.InstantWinTicket, error)
	DeleteByCompetition(ctx context.Context, competitionID primitive.ObjectID) error
}

// AccountRepository defines the interface for cached account balances
type AccountRepository interface {
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Account, error)
	// ApplyDelta adds delta to one balance, bumps that ledger's sequence and
	// returns the account after the change. When floor is non-nil the update
	// only applies if the resulting balance stays >= *floor; otherwise
	// ErrConditionFailed is returned. Missing accounts are created.
	ApplyDelta(ctx context.Context, userID primitive.ObjectID, kind models.LedgerKind, delta int64, floor *int64) (*models.Account, error)
}

// LedgerTransactionRepository defines the interface for ledger transaction operations
type LedgerTransactionRepository interface {
	Create(ctx context.Context, transaction *models.LedgerTransaction) error
	// FindByUser returns a user's transactions for one ledger ordered by seq.
	FindByUser(ctx context.Context, userID primitive.ObjectID, kind models.LedgerKind) ([]*models.LedgerTransaction, error)
	FindByReference(ctx context.Context, reference string) ([]*models.LedgerTransaction, error)
}

// WithdrawalRepository defines the interface for withdrawal request operations
type WithdrawalRepository interface {
	Create(ctx context.Context, request *models.WithdrawalRequest) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.WithdrawalRequest, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.WithdrawalRequest, error)
	// Transition moves a request from one status to another, only if it is still in from.
	Transition(ctx context.Context, id primitive.ObjectID, from, to models.WithdrawalStatus, update WithdrawalUpdate) error
}

// WithdrawalUpdate carries the optional fields written with a status transition.
type WithdrawalUpdate struct {
	Reason     string
	RefundTxID *primitive.ObjectID
}

// DrawRepository defines the interface for draw audit records
type DrawRepository interface {
	Create(ctx context.Context, draw *models.DrawRecord) error
	FindLatestByCompetition(ctx context.Context, competitionID primitive.ObjectID) (*models.DrawRecord, error)
	FindByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.DrawRecord, error)
	Void(ctx context.Context, id primitive.ObjectID, reason string, at time.Time) error
}

// Store bundles the repositories of one backing store with its transaction manager.
type Store interface {
	TxManager
	Competitions() CompetitionRepository
	Entries() EntryRepository
	InstantPrizes() InstantPrizeRepository
	InstantWinTickets() InstantWinTicketRepository
	Accounts() AccountRepository
	LedgerTransactions() LedgerTransactionRepository
	Withdrawals() WithdrawalRepository
	Draws() DrawRepository
}
