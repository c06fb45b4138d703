package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"github.com/ArowuTest/competitions-backend/internal/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure PurchaseServiceImpl implements PurchaseService
var _ PurchaseService = (*PurchaseServiceImpl)(nil)

// PurchaseServiceImpl turns an authorized payment into entries and instant-win results
type PurchaseServiceImpl struct {
	txm             repositories.TxManager
	competitionRepo repositories.CompetitionRepository
	entryRepo       repositories.EntryRepository
	allocator       TicketAllocator
	settler         SettlementService
	ledger          LedgerService
}

// NewPurchaseService creates a new PurchaseServiceImpl
func NewPurchaseService(
	txm repositories.TxManager,
	competitionRepo repositories.CompetitionRepository,
	entryRepo repositories.EntryRepository,
	allocator TicketAllocator,
	settler SettlementService,
	ledger LedgerService,
) *PurchaseServiceImpl {
	return &PurchaseServiceImpl{
		txm:             txm,
		competitionRepo: competitionRepo,
		entryRepo:       entryRepo,
		allocator:       allocator,
		settler:         settler,
		ledger:          ledger,
	}
}

// AllocateAndCreateEntry runs a whole checkout in one transaction: the credit
// debit, one allocation and entry per item, and settlement of every entry.
// Any failure rolls all of it back. A repeated payment reference returns the
// entries the first call created.
func (s *PurchaseServiceImpl) AllocateAndCreateEntry(ctx context.Context, purchase *models.Purchase) (*models.CheckoutResult, error) {
	if err := validatePurchase(purchase); err != nil {
		return nil, err
	}

	checkoutID := uuid.NewString()
	reference := purchase.PaymentReference
	if reference == "" {
		reference = checkoutID
	}

	var result *models.CheckoutResult
	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		result = nil
		if purchase.PaymentReference != "" {
			existing, err := s.entryRepo.FindByPaymentReference(ctx, purchase.PaymentReference)
			if err != nil {
				return fmt.Errorf("failed to look up payment reference: %w", err)
			}
			if len(existing) > 0 {
				if err := matchReplay(purchase, existing); err != nil {
					return err
				}
				result = checkoutResult(existing[0].CheckoutID, existing)
				result.Replayed = true
				return nil
			}
		}

		if purchase.AuthorizedCreditAmount > 0 {
			description := fmt.Sprintf("Ticket purchase (%d items)", len(purchase.Items))
			if _, err := s.ledger.Debit(ctx, purchase.UserID, models.LedgerCredit, purchase.AuthorizedCreditAmount, description, reference, DebitOptions{}); err != nil {
				return err
			}
		}

		creditLeft := purchase.AuthorizedCreditAmount
		now := time.Now()
		entries := make([]*models.Entry, 0, len(purchase.Items))
		for _, item := range purchase.Items {
			competition, err := s.competitionRepo.FindByID(ctx, item.CompetitionID)
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrCompetitionNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to load competition: %w", err)
			}
			if item.TicketPrice != competition.TicketPrice {
				return fmt.Errorf("%w: ticket price %s does not match %s for competition %s",
					ErrPaymentMismatch, utils.FormatPence(item.TicketPrice), utils.FormatPence(competition.TicketPrice), competition.ID.Hex())
			}

			numbers, err := s.allocator.Allocate(ctx, item.CompetitionID, item.Quantity)
			if err != nil {
				return err
			}

			cost := item.TicketPrice * int64(item.Quantity)
			creditPart := min(creditLeft, cost)
			creditLeft -= creditPart

			entry := &models.Entry{
				CompetitionID:    item.CompetitionID,
				UserID:           purchase.UserID,
				CheckoutID:       checkoutID,
				PaymentReference: purchase.PaymentReference,
				TicketNumbers:    numbers,
				Quantity:         len(numbers),
				TotalCost:        cost,
				CashAmount:       cost - creditPart,
				CreditAmount:     creditPart,
				PaymentStatus:    models.PaymentStatusCompleted,
				CreatedAt:        now,
			}
			if err := s.entryRepo.Create(ctx, entry); err != nil {
				return fmt.Errorf("failed to create entry: %w", err)
			}
			entries = append(entries, entry)
		}

		for _, entry := range entries {
			settlement, err := s.settler.Settle(ctx, entry.ID)
			if err != nil {
				return fmt.Errorf("failed to settle entry %s: %w", entry.ID.Hex(), err)
			}
			entry.Settlement = settlement
		}

		result = checkoutResult(checkoutID, entries)
		return nil
	})
	if err != nil {
		slog.Warn("Checkout failed", "userId", purchase.UserID.Hex(), "paymentReference", purchase.PaymentReference, "error", err)
		return nil, err
	}

	if result.Replayed {
		slog.Info("Checkout replayed", "paymentReference", purchase.PaymentReference, "checkoutId", result.CheckoutID)
	} else {
		slog.Info("Checkout completed", "checkoutId", result.CheckoutID, "userId", purchase.UserID.Hex(),
			"entries", len(result.Entries), "total", utils.FormatPence(purchase.Total()),
			"cashWon", utils.FormatPence(result.TotalCashWon), "creditWon", utils.FormatPence(result.TotalCreditWon))
	}
	return result, nil
}

func validatePurchase(purchase *models.Purchase) error {
	if purchase == nil || purchase.UserID.IsZero() {
		return fmt.Errorf("%w: user is required", ErrInvalidPurchase)
	}
	if len(purchase.Items) == 0 {
		return fmt.Errorf("%w: no items", ErrInvalidPurchase)
	}
	if purchase.AuthorizedCashAmount < 0 || purchase.AuthorizedCreditAmount < 0 {
		return fmt.Errorf("%w: negative authorized amount", ErrPaymentMismatch)
	}

	seen := make(map[primitive.ObjectID]bool, len(purchase.Items))
	for _, item := range purchase.Items {
		if item.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if item.TicketPrice <= 0 {
			return fmt.Errorf("%w: ticket price must be positive", ErrInvalidPurchase)
		}
		if seen[item.CompetitionID] {
			return fmt.Errorf("%w: competition %s appears twice", ErrInvalidPurchase, item.CompetitionID.Hex())
		}
		seen[item.CompetitionID] = true
	}

	authorized := purchase.AuthorizedCashAmount + purchase.AuthorizedCreditAmount
	if total := purchase.Total(); total != authorized {
		return fmt.Errorf("%w: total %s, authorized %s", ErrPaymentMismatch, utils.FormatPence(total), utils.FormatPence(authorized))
	}
	return nil
}

// matchReplay checks that a repeated payment reference describes the same
// checkout: same buyer, same items and the same cash/credit split.
func matchReplay(purchase *models.Purchase, existing []*models.Entry) error {
	mismatch := func(what string) error {
		return fmt.Errorf("%w: payment reference %s was used for a different %s", ErrPaymentMismatch, purchase.PaymentReference, what)
	}
	if len(existing) != len(purchase.Items) {
		return mismatch("set of items")
	}

	byCompetition := make(map[primitive.ObjectID]*models.Entry, len(existing))
	var cash, credit int64
	for _, entry := range existing {
		if entry.UserID != purchase.UserID {
			return mismatch("user")
		}
		byCompetition[entry.CompetitionID] = entry
		cash += entry.CashAmount
		credit += entry.CreditAmount
	}
	for _, item := range purchase.Items {
		entry, ok := byCompetition[item.CompetitionID]
		if !ok || entry.Quantity != item.Quantity || entry.TotalCost != item.TicketPrice*int64(item.Quantity) {
			return mismatch("set of items")
		}
	}
	if cash != purchase.AuthorizedCashAmount || credit != purchase.AuthorizedCreditAmount {
		return mismatch("payment split")
	}
	return nil
}

func checkoutResult(checkoutID string, entries []*models.Entry) *models.CheckoutResult {
	result := &models.CheckoutResult{CheckoutID: checkoutID, Entries: entries}
	for _, entry := range entries {
		if entry.Settlement != nil {
			result.TotalCashWon += entry.Settlement.TotalCashWon
			result.TotalCreditWon += entry.Settlement.TotalCreditWon
		}
	}
	return result
}
