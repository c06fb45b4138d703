package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAllocateSequentialNumbers(t *testing.T) {
	env := newTestEnv(t)
	competition := env.openCompetition(t, 10, 100)
	user := primitive.NewObjectID()

	first := env.buy(t, user, competition, 3)
	second := env.buy(t, user, competition, 2)
	assert.Equal(t, []int{1, 2, 3}, first.TicketNumbers)
	assert.Equal(t, []int{4, 5}, second.TicketNumbers)
	assert.Equal(t, 2, second.Quantity)
	assert.Equal(t, int64(200), second.TotalCost)

	stored, err := env.competitions.Get(context.Background(), competition.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.TicketsSold)
}

func TestAllocateRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	competition := env.openCompetition(t, 5, 100)

	_, err := env.allocator.Allocate(ctx, competition.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = env.allocator.Allocate(ctx, primitive.NewObjectID(), 1)
	assert.ErrorIs(t, err, ErrCompetitionNotFound)

	_, err = env.allocator.Allocate(ctx, competition.ID, 6)
	var capacity *CapacityError
	require.True(t, errors.As(err, &capacity))
	assert.Equal(t, 5, capacity.Remaining)
	assert.Equal(t, "only 5 tickets remaining", err.Error())

	_, err = env.competitions.Deactivate(ctx, competition.ID)
	require.NoError(t, err)
	_, err = env.allocator.Allocate(ctx, competition.ID, 1)
	assert.ErrorIs(t, err, ErrCompetitionClosed)
}

func TestConcurrentPurchasesCannotOversell(t *testing.T) {
	env := newTestEnv(t)
	competition := env.openCompetition(t, 100, 100)

	var (
		wg      sync.WaitGroup
		results = make([]*models.CheckoutResult, 2)
		errs    = make([]error, 2)
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.purchases.AllocateAndCreateEntry(context.Background(), &models.Purchase{
				UserID:               primitive.NewObjectID(),
				Items:                []models.PurchaseItem{{CompetitionID: competition.ID, TicketPrice: 100, Quantity: 60}},
				AuthorizedCashAmount: 6000,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i := range errs {
		if errs[i] == nil {
			succeeded++
			assert.Len(t, results[i].Entries[0].TicketNumbers, 60)
			continue
		}
		require.ErrorIs(t, errs[i], ErrCapacityExceeded)
		var capacity *CapacityError
		require.True(t, errors.As(errs[i], &capacity))
		// Transactions serialize, so the loser reads the counter after the winner commits.
		assert.Equal(t, 40, capacity.Remaining)
		assert.Equal(t, 60, capacity.Requested)
	}
	assert.Equal(t, 1, succeeded)

	entries, err := env.store.Entries().FindCompletedByCompetition(context.Background(), competition.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	stored, err := env.competitions.Get(context.Background(), competition.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, stored.TicketsSold)
}

func TestManyConcurrentBuyersIssueUniqueNumbers(t *testing.T) {
	env := newTestEnv(t)
	competition := env.openCompetition(t, 50, 100)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.purchases.AllocateAndCreateEntry(context.Background(), &models.Purchase{
				UserID:               primitive.NewObjectID(),
				Items:                []models.PurchaseItem{{CompetitionID: competition.ID, TicketPrice: 100, Quantity: 3}},
				AuthorizedCashAmount: 300,
			})
		}()
	}
	wg.Wait()

	entries, err := env.store.Entries().FindCompletedByCompetition(context.Background(), competition.ID)
	require.NoError(t, err)
	var numbers []int
	total := 0
	for _, e := range entries {
		total += e.Quantity
		numbers = append(numbers, e.TicketNumbers...)
	}
	assert.LessOrEqual(t, total, 50)
	assert.Equal(t, 48, total)
	sort.Ints(numbers)
	for i, n := range numbers {
		assert.Equal(t, i+1, n)
	}
}

func TestCheckoutDebitsCreditAndSplitsPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.openCompetition(t, 100, 250)
	second := env.openCompetition(t, 100, 100)
	user := primitive.NewObjectID()

	_, err := env.ledger.Credit(ctx, user, models.LedgerCredit, 600, "Welcome bonus", "promo")
	require.NoError(t, err)

	result, err := env.purchases.AllocateAndCreateEntry(ctx, &models.Purchase{
		UserID:           user,
		PaymentReference: "pay-123",
		Items: []models.PurchaseItem{
			{CompetitionID: first.ID, TicketPrice: 250, Quantity: 2},
			{CompetitionID: second.ID, TicketPrice: 100, Quantity: 3},
		},
		AuthorizedCashAmount:   200,
		AuthorizedCreditAmount: 600,
	})
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	assert.NotEmpty(t, result.CheckoutID)
	assert.Equal(t, int64(500), result.Entries[0].CreditAmount)
	assert.Equal(t, int64(0), result.Entries[0].CashAmount)
	assert.Equal(t, int64(100), result.Entries[1].CreditAmount)
	assert.Equal(t, int64(200), result.Entries[1].CashAmount)
	for _, entry := range result.Entries {
		require.NotNil(t, entry.Settlement)
		assert.Len(t, entry.Settlement.Results, entry.Quantity)
		assert.Equal(t, result.CheckoutID, entry.CheckoutID)
	}

	balances, err := env.ledger.GetBalance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balances.Credit)
}

func TestCheckoutIsIdempotentOnPaymentReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	competition := env.openCompetition(t, 100, 100)
	user := primitive.NewObjectID()
	_, err := env.ledger.Credit(ctx, user, models.LedgerCredit, 1000, "Bonus", "promo")
	require.NoError(t, err)

	purchase := &models.Purchase{
		UserID:                 user,
		PaymentReference:       "pay-dup",
		Items:                  []models.PurchaseItem{{CompetitionID: competition.ID, TicketPrice: 100, Quantity: 4}},
		AuthorizedCreditAmount: 400,
	}
	first, err := env.purchases.AllocateAndCreateEntry(ctx, purchase)
	require.NoError(t, err)
	again, err := env.purchases.AllocateAndCreateEntry(ctx, purchase)
	require.NoError(t, err)

	assert.True(t, again.Replayed)
	assert.Equal(t, first.CheckoutID, again.CheckoutID)
	assert.Equal(t, first.Entries[0].TicketNumbers, again.Entries[0].TicketNumbers)

	balances, err := env.ledger.GetBalance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(600), balances.Credit)
	stored, err := env.competitions.Get(ctx, competition.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.TicketsSold)
}

func TestCheckoutReplayMustMatchOriginal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	competition := env.openCompetition(t, 100, 100)
	other := env.openCompetition(t, 100, 100)
	buyer := primitive.NewObjectID()

	original := &models.Purchase{
		UserID:               buyer,
		PaymentReference:     "pay-shared",
		Items:                []models.PurchaseItem{{CompetitionID: competition.ID, TicketPrice: 100, Quantity: 2}},
		AuthorizedCashAmount: 200,
	}
	_, err := env.purchases.AllocateAndCreateEntry(ctx, original)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(p *models.Purchase)
	}{
		{"different user", func(p *models.Purchase) { p.UserID = primitive.NewObjectID() }},
		{"different quantity", func(p *models.Purchase) {
			p.Items[0].Quantity = 3
			p.AuthorizedCashAmount = 300
		}},
		{"different competition", func(p *models.Purchase) { p.Items[0].CompetitionID = other.ID }},
		{"extra item", func(p *models.Purchase) {
			p.Items = append(p.Items, models.PurchaseItem{CompetitionID: other.ID, TicketPrice: 100, Quantity: 1})
			p.AuthorizedCashAmount = 300
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replay := *original
			replay.Items = append([]models.PurchaseItem(nil), original.Items...)
			tt.mutate(&replay)
			result, err := env.purchases.AllocateAndCreateEntry(ctx, &replay)
			assert.ErrorIs(t, err, ErrPaymentMismatch)
			assert.Nil(t, result)
		})
	}

	stored, err := env.competitions.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.TicketsSold)

	// The split matters too: the same items paid partly in credit are a different checkout.
	_, err = env.ledger.Credit(ctx, buyer, models.LedgerCredit, 100, "Bonus", "promo")
	require.NoError(t, err)
	split := *original
	split.AuthorizedCashAmount, split.AuthorizedCreditAmount = 100, 100
	_, err = env.purchases.AllocateAndCreateEntry(ctx, &split)
	assert.ErrorIs(t, err, ErrPaymentMismatch)
}

func TestCheckoutRollsBackWhenAnyItemFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	roomy := env.openCompetition(t, 100, 100)
	tight := env.openCompetition(t, 2, 100)
	user := primitive.NewObjectID()
	_, err := env.ledger.Credit(ctx, user, models.LedgerCredit, 1000, "Bonus", "promo")
	require.NoError(t, err)
	allocatedBefore := counterTotal(t, "competitions_tickets_allocated_total")
	ledgerBefore := counterTotal(t, "competitions_ledger_transactions_total")

	_, err = env.purchases.AllocateAndCreateEntry(ctx, &models.Purchase{
		UserID: user,
		Items: []models.PurchaseItem{
			{CompetitionID: roomy.ID, TicketPrice: 100, Quantity: 5},
			{CompetitionID: tight.ID, TicketPrice: 100, Quantity: 3},
		},
		AuthorizedCreditAmount: 800,
	})
	require.ErrorIs(t, err, ErrCapacityExceeded)

	// The credit debit and the first allocation were rolled back, so neither is counted.
	assert.Equal(t, allocatedBefore, counterTotal(t, "competitions_tickets_allocated_total"))
	assert.Equal(t, ledgerBefore, counterTotal(t, "competitions_ledger_transactions_total"))

	stored, err := env.competitions.Get(ctx, roomy.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.TicketsSold)
	entries, err := env.store.Entries().FindCompletedByCompetition(ctx, roomy.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	balances, err := env.ledger.GetBalance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balances.Credit)

	env.buy(t, user, roomy, 5)
	assert.Equal(t, allocatedBefore+5, counterTotal(t, "competitions_tickets_allocated_total"))
}

func TestCheckoutValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	competition := env.openCompetition(t, 100, 100)
	user := primitive.NewObjectID()

	tests := []struct {
		name     string
		purchase *models.Purchase
		want     error
	}{
		{
			name: "total does not match authorized amounts",
			purchase: &models.Purchase{UserID: user, AuthorizedCashAmount: 150,
				Items: []models.PurchaseItem{{CompetitionID: competition.ID, TicketPrice: 100, Quantity: 2}}},
			want: ErrPaymentMismatch,
		},
		{
			name: "price differs from competition",
			purchase: &models.Purchase{UserID: user, AuthorizedCashAmount: 100,
				Items: []models.PurchaseItem{{CompetitionID: competition.ID, TicketPrice: 50, Quantity: 2}}},
			want: ErrPaymentMismatch,
		},
		{
			name: "zero quantity",
			purchase: &models.Purchase{UserID: user,
				Items: []models.PurchaseItem{{CompetitionID: competition.ID, TicketPrice: 100, Quantity: 0}}},
			want: ErrInvalidQuantity,
		},
		{
			name:     "no items",
			purchase: &models.Purchase{UserID: user},
			want:     ErrInvalidPurchase,
		},
		{
			name: "not enough site credit",
			purchase: &models.Purchase{UserID: user, AuthorizedCreditAmount: 100,
				Items: []models.PurchaseItem{{CompetitionID: competition.ID, TicketPrice: 100, Quantity: 1}}},
			want: ErrInsufficientFunds,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.purchases.AllocateAndCreateEntry(ctx, tt.purchase)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	stored, err := env.competitions.Get(ctx, competition.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.TicketsSold)
}
