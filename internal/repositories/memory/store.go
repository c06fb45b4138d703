// Package memory is an in-memory implementation of the repository interfaces.
// Transactions are serialized behind one lock and rolled back from a snapshot
// on error, which gives the same all-or-nothing behaviour the MongoDB store
// provides. It is intended for tests and local development.
package memory

import (
	"context"
	"sync"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type txKey struct{}

// Store holds every collection in process memory.
type Store struct {
	mu sync.Mutex

	competitions map[primitive.ObjectID]*models.Competition
	entries      map[primitive.ObjectID]*models.Entry
	entryOrder   []primitive.ObjectID
	issued       map[primitive.ObjectID]map[int]primitive.ObjectID
	prizes       map[primitive.ObjectID]*models.InstantPrize
	winTickets   map[primitive.ObjectID]*models.InstantWinTicket
	accounts     map[primitive.ObjectID]*models.Account
	ledger       []*models.LedgerTransaction
	withdrawals  map[primitive.ObjectID]*models.WithdrawalRequest
	draws        []*models.DrawRecord
}

var _ repositories.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		competitions: make(map[primitive.ObjectID]*models.Competition),
		entries:      make(map[primitive.ObjectID]*models.Entry),
		issued:       make(map[primitive.ObjectID]map[int]primitive.ObjectID),
		prizes:       make(map[primitive.ObjectID]*models.InstantPrize),
		winTickets:   make(map[primitive.ObjectID]*models.InstantWinTicket),
		accounts:     make(map[primitive.ObjectID]*models.Account),
		withdrawals:  make(map[primitive.ObjectID]*models.WithdrawalRequest),
	}
}

// WithTransaction runs fn with the store locked. Any error restores the state
// captured before fn started. Commit hooks run after the lock is released.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	hooks := repositories.NewCommitHooks()
	if err := s.runLocked(repositories.WithCommitHooks(ctx, hooks), fn); err != nil {
		return err
	}
	hooks.Run()
	return nil
}

func (s *Store) runLocked(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock takes the store lock unless ctx already belongs to a transaction on it.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Repository accessors

func (s *Store) Competitions() repositories.CompetitionRepository { return &competitionRepo{s} }
func (s *Store) Entries() repositories.EntryRepository             { return &entryRepo{s} }
func (s *Store) InstantPrizes() repositories.InstantPrizeRepository {
	return &instantPrizeRepo{s}
}
func (s *Store) InstantWinTickets() repositories.InstantWinTicketRepository {
	return &instantWinTicketRepo{s}
}
func (s *Store) Accounts() repositories.AccountRepository { return &accountRepo{s} }
func (s *Store) LedgerTransactions() repositories.LedgerTransactionRepository {
	return &ledgerTransactionRepo{s}
}
func (s *Store) Withdrawals() repositories.WithdrawalRepository { return &withdrawalRepo{s} }
func (s *Store) Draws() repositories.DrawRepository             { return &drawRepo{s} }

type snapshot struct {
	competitions map[primitive.ObjectID]*models.Competition
	entries      map[primitive.ObjectID]*models.Entry
	entryOrder   []primitive.ObjectID
	issued       map[primitive.ObjectID]map[int]primitive.ObjectID
	prizes       map[primitive.ObjectID]*models.InstantPrize
	winTickets   map[primitive.ObjectID]*models.InstantWinTicket
	accounts     map[primitive.ObjectID]*models.Account
	ledger       []*models.LedgerTransaction
	withdrawals  map[primitive.ObjectID]*models.WithdrawalRequest
	draws        []*models.DrawRecord
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		competitions: make(map[primitive.ObjectID]*models.Competition, len(s.competitions)),
		entries:      make(map[primitive.ObjectID]*models.Entry, len(s.entries)),
		entryOrder:   append([]primitive.ObjectID(nil), s.entryOrder...),
		issued:       make(map[primitive.ObjectID]map[int]primitive.ObjectID, len(s.issued)),
		prizes:       make(map[primitive.ObjectID]*models.InstantPrize, len(s.prizes)),
		winTickets:   make(map[primitive.ObjectID]*models.InstantWinTicket, len(s.winTickets)),
		accounts:     make(map[primitive.ObjectID]*models.Account, len(s.accounts)),
		ledger:       append([]*models.LedgerTransaction(nil), s.ledger...),
		withdrawals:  make(map[primitive.ObjectID]*models.WithdrawalRequest, len(s.withdrawals)),
		draws:        make([]*models.DrawRecord, 0, len(s.draws)),
	}
	for id, c := range s.competitions {
		snap.competitions[id] = cloneCompetition(c)
	}
	for id, e := range s.entries {
		snap.entries[id] = cloneEntry(e)
	}
	for id, numbers := range s.issued {
		copied := make(map[int]primitive.ObjectID, len(numbers))
		for n, entryID := range numbers {
			copied[n] = entryID
		}
		snap.issued[id] = copied
	}
	for id, p := range s.prizes {
		copied := *p
		snap.prizes[id] = &copied
	}
	for id, t := range s.winTickets {
		copied := *t
		snap.winTickets[id] = &copied
	}
	for id, a := range s.accounts {
		copied := *a
		snap.accounts[id] = &copied
	}
	for id, w := range s.withdrawals {
		snap.withdrawals[id] = cloneWithdrawal(w)
	}
	for _, d := range s.draws {
		snap.draws = append(snap.draws, cloneDraw(d))
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.competitions = snap.competitions
	s.entries = snap.entries
	s.entryOrder = snap.entryOrder
	s.issued = snap.issued
	s.prizes = snap.prizes
	s.winTickets = snap.winTickets
	s.accounts = snap.accounts
	s.ledger = snap.ledger
	s.withdrawals = snap.withdrawals
	s.draws = snap.draws
}

func cloneCompetition(c *models.Competition) *models.Competition {
	copied := *c
	return &copied
}

func cloneEntry(e *models.Entry) *models.Entry {
	copied := *e
	copied.TicketNumbers = append([]int(nil), e.TicketNumbers...)
	if e.Settlement != nil {
		settlement := *e.Settlement
		settlement.Results = append([]models.WinResult(nil), e.Settlement.Results...)
		copied.Settlement = &settlement
	}
	return &copied
}

func cloneWithdrawal(w *models.WithdrawalRequest) *models.WithdrawalRequest {
	copied := *w
	if w.PaymentDetails != nil {
		copied.PaymentDetails = make(map[string]string, len(w.PaymentDetails))
		for k, v := range w.PaymentDetails {
			copied.PaymentDetails[k] = v
		}
	}
	return &copied
}

func cloneDraw(d *models.DrawRecord) *models.DrawRecord {
	copied := *d
	copied.ExecutionLog = append([]string(nil), d.ExecutionLog...)
	return &copied
}
