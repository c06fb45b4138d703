package mongodb

import (
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
)

var _ repositories.Store = (*Store)(nil)

// Store wires every MongoDB repository over one database.
type Store struct {
	*TxManager
	competitions       *CompetitionRepository
	entries            *EntryRepository
	instantPrizes      *InstantPrizeRepository
	instantWinTickets  *InstantWinTicketRepository
	accounts           *AccountRepository
	ledgerTransactions *LedgerTransactionRepository
	withdrawals        *WithdrawalRepository
	draws              *DrawRepository
}

// NewStore creates a new Store
func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		TxManager:          NewTxManager(client),
		competitions:       NewCompetitionRepository(db),
		entries:            NewEntryRepository(db),
		instantPrizes:      NewInstantPrizeRepository(db),
		instantWinTickets:  NewInstantWinTicketRepository(db),
		accounts:           NewAccountRepository(db),
		ledgerTransactions: NewLedgerTransactionRepository(db),
		withdrawals:        NewWithdrawalRepository(db),
		draws:              NewDrawRepository(db),
	}
}

func (s *Store) Competitions() repositories.CompetitionRepository { return s.competitions }
func (s *Store) Entries() repositories.EntryRepository             { return s.entries }
func (s *Store) InstantPrizes() repositories.InstantPrizeRepository {
	return s.instantPrizes
}
func (s *Store) InstantWinTickets() repositories.InstantWinTicketRepository {
	return s.instantWinTickets
}
func (s *Store) Accounts() repositories.AccountRepository { return s.accounts }
func (s *Store) LedgerTransactions() repositories.LedgerTransactionRepository {
	return s.ledgerTransactions
}
func (s *Store) Withdrawals() repositories.WithdrawalRepository { return s.withdrawals }
func (s *Store) Draws() repositories.DrawRepository             { return s.draws }
