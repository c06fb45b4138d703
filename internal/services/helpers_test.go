package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/metrics"
	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/repositories/memory"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testEnv struct {
	store        *memory.Store
	ledger       *LedgerServiceImpl
	allocator    *Allocator
	settler      *SettlementServiceImpl
	purchases    *PurchaseServiceImpl
	pools        *PrizePoolServiceImpl
	draws        *DrawServiceImpl
	withdrawals  *WithdrawalServiceImpl
	competitions *CompetitionServiceImpl
	notifier     *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()
	ledger := NewLedgerService(store, store.Accounts(), store.LedgerTransactions())
	allocator := NewAllocator(store.Competitions())
	settler := NewSettlementService(store, store.Entries(), store.InstantPrizes(), store.InstantWinTickets(), ledger)
	notifier := &recordingNotifier{}
	return &testEnv{
		store:        store,
		ledger:       ledger,
		allocator:    allocator,
		settler:      settler,
		purchases:    NewPurchaseService(store, store.Competitions(), store.Entries(), allocator, settler, ledger),
		pools:        NewPrizePoolService(store, store.Competitions(), store.InstantPrizes(), store.InstantWinTickets()),
		draws:        NewDrawService(store, store.Competitions(), store.Entries(), store.Draws(), notifier, "DRAW"),
		withdrawals:  NewWithdrawalService(store, store.Withdrawals(), ledger),
		competitions: NewCompetitionService(store.Competitions()),
		notifier:     notifier,
	}
}

// openCompetition creates and activates a competition ending in a day.
func (e *testEnv) openCompetition(t *testing.T, maxTickets int, price int64) *models.Competition {
	t.Helper()
	ctx := context.Background()
	created, err := e.competitions.Create(ctx, &models.Competition{
		Title:       "Test competition",
		MaxTickets:  maxTickets,
		TicketPrice: price,
		EndDate:     time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	active, err := e.competitions.Activate(ctx, created.ID)
	require.NoError(t, err)
	return active
}

// buy purchases quantity tickets paid entirely by card.
func (e *testEnv) buy(t *testing.T, userID primitive.ObjectID, competition *models.Competition, quantity int) *models.Entry {
	t.Helper()
	result, err := e.purchases.AllocateAndCreateEntry(context.Background(), &models.Purchase{
		UserID: userID,
		Items: []models.PurchaseItem{
			{CompetitionID: competition.ID, TicketPrice: competition.TicketPrice, Quantity: quantity},
		},
		AuthorizedCashAmount: competition.TicketPrice * int64(quantity),
	})
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	return result.Entries[0]
}

type recordingNotifier struct {
	mu      sync.Mutex
	results []*models.DrawResult
	err     error
}

func (n *recordingNotifier) NotifyWinner(_ context.Context, _ *models.Competition, result *models.DrawResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.results = append(n.results, result)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.results)
}

// counterTotal sums every series of a registered counter.
func counterTotal(t *testing.T, name string) float64 {
	t.Helper()
	families, err := metrics.Registry.Gather()
	require.NoError(t, err)
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}
