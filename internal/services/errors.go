package services

import (
	"errors"
	"fmt"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/utils"
)

var (
	ErrCapacityExceeded       = errors.New("capacity exceeded")
	ErrCompetitionClosed      = errors.New("competition is closed")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrPoolAlreadyInUse       = errors.New("prize pool already has claimed tickets")
	ErrNumberSpaceExhausted   = errors.New("ticket number space exhausted")
	ErrAlreadyDrawn           = errors.New("competition already drawn")
	ErrNoEntries              = errors.New("competition has no completed entries")
	ErrDrawFinalized          = errors.New("draw is finalized")
	ErrNotDrawn               = errors.New("competition has not been drawn")
	ErrInvalidQuantity        = errors.New("quantity must be at least 1")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidPolicy          = errors.New("invalid prize pool policy")
	ErrInvalidCompetition     = errors.New("invalid competition")
	ErrPaymentMismatch        = errors.New("payment does not match purchase total")
	ErrInvalidPurchase        = errors.New("invalid purchase")
	ErrInvalidWithdrawalState = errors.New("invalid withdrawal state transition")
	ErrInvalidLedger          = errors.New("unknown ledger")
	ErrCompetitionNotFound    = errors.New("competition not found")
	ErrEntryNotFound          = errors.New("entry not found")
	ErrWithdrawalNotFound     = errors.New("withdrawal not found")
	ErrCorruptState           = errors.New("stored state is inconsistent")
)

// CapacityError reports how many tickets were left when an allocation failed.
type CapacityError struct {
	Remaining int
	Requested int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("only %d tickets remaining", e.Remaining)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// InsufficientFundsError reports the balance observed by a rejected debit.
type InsufficientFundsError struct {
	Ledger    models.LedgerKind
	Balance   int64
	Requested int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient %s balance: %s available, %s requested",
		e.Ledger, utils.FormatPence(e.Balance), utils.FormatPence(e.Requested))
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// PolicyError says which part of a prize pool policy is invalid.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string {
	return "invalid prize pool policy: " + e.Reason
}

func (e *PolicyError) Is(target error) bool {
	return target == ErrInvalidPolicy
}

func invalidPolicy(format string, args ...interface{}) error {
	return &PolicyError{Reason: fmt.Sprintf(format, args...)}
}
