package services

import (
	"context"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LedgerService defines the interface for the dual-currency ledger
type LedgerService interface {
	// Credit adds a positive amount to one ledger
	Credit(ctx context.Context, userID primitive.ObjectID, kind models.LedgerKind, amount int64, description, reference string) (*models.LedgerTransaction, error)

	// Debit removes a positive amount from one ledger, refusing to go negative unless opts allow it
	Debit(ctx context.Context, userID primitive.ObjectID, kind models.LedgerKind, amount int64, description, reference string, opts DebitOptions) (*models.LedgerTransaction, error)

	// GetBalance returns both cached balances
	GetBalance(ctx context.Context, userID primitive.ObjectID) (*models.Balances, error)

	// History returns one ledger's transactions in order
	History(ctx context.Context, userID primitive.ObjectID, kind models.LedgerKind) ([]*models.LedgerTransaction, error)

	// Reconcile replays one ledger against its cached balance
	Reconcile(ctx context.Context, userID primitive.ObjectID, kind models.LedgerKind) (*models.ReconcileReport, error)

	// Adjust applies a signed administrative correction
	Adjust(ctx context.Context, userID primitive.ObjectID, kind models.LedgerKind, amount int64, reason string, adminID primitive.ObjectID) (*models.LedgerTransaction, error)
}

// TicketAllocator defines the interface for ticket number reservation
type TicketAllocator interface {
	// Allocate reserves quantity unique numbers; it must run inside the entry's transaction
	Allocate(ctx context.Context, competitionID primitive.ObjectID, quantity int) ([]int, error)
}

// PurchaseService defines the interface exposed to the payment collaborator
type PurchaseService interface {
	// AllocateAndCreateEntry allocates, records and settles a whole checkout atomically
	AllocateAndCreateEntry(ctx context.Context, purchase *models.Purchase) (*models.CheckoutResult, error)
}

// PrizePoolService defines the interface for instant-win pool generation
type PrizePoolService interface {
	// GeneratePool computes prize counts from a policy and places winning numbers
	GeneratePool(ctx context.Context, competitionID primitive.ObjectID, policy models.PoolPolicy) (*models.PoolSummary, error)

	// GetPool returns the current pool with remaining counts and claimed numbers
	GetPool(ctx context.Context, competitionID primitive.ObjectID) (*models.PoolSummary, error)
}

// SettlementService defines the interface for instant-win settlement
type SettlementService interface {
	// Settle claims an entry's winning numbers and credits prizes exactly once
	Settle(ctx context.Context, entryID primitive.ObjectID) (*models.Settlement, error)

	// SettleInstantWins is the collaborator-facing form of Settle
	SettleInstantWins(ctx context.Context, entryID primitive.ObjectID) (*models.Settlement, error)
}

// DrawService defines the interface for the grand-prize draw
type DrawService interface {
	// Draw selects one ticket uniformly at random and records the winner
	Draw(ctx context.Context, competitionID primitive.ObjectID) (*models.DrawResult, error)

	// ClearWinner undoes an unfinalized draw
	ClearWinner(ctx context.Context, competitionID primitive.ObjectID, reason string) error

	// FinalizeDraw notifies the winner and makes the draw permanent
	FinalizeDraw(ctx context.Context, competitionID primitive.ObjectID) (*models.DrawResult, error)

	// GetDraw returns the current result and its audit record
	GetDraw(ctx context.Context, competitionID primitive.ObjectID) (*models.DrawResult, *models.DrawRecord, error)
}

// WithdrawalService defines the interface for the cash withdrawal workflow
type WithdrawalService interface {
	Request(ctx context.Context, userID primitive.ObjectID, amount int64, paymentDetails map[string]string) (*models.WithdrawalRequest, error)
	Approve(ctx context.Context, id primitive.ObjectID) (*models.WithdrawalRequest, error)
	Complete(ctx context.Context, id primitive.ObjectID) (*models.WithdrawalRequest, error)
	Reject(ctx context.Context, id primitive.ObjectID, reason string) (*models.WithdrawalRequest, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.WithdrawalRequest, error)
}

// CompetitionService defines the interface for competition lifecycle operations
type CompetitionService interface {
	Create(ctx context.Context, competition *models.Competition) (*models.Competition, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Competition, error)
	Activate(ctx context.Context, id primitive.ObjectID) (*models.Competition, error)
	Deactivate(ctx context.Context, id primitive.ObjectID) (*models.Competition, error)
	// CloseExpired deactivates active competitions past their end date and returns how many it closed
	CloseExpired(ctx context.Context, now time.Time) (int, error)
}

// WinnerNotifier delivers the grand-prize result to the winner.
type WinnerNotifier interface {
	NotifyWinner(ctx context.Context, competition *models.Competition, result *models.DrawResult) error
}
