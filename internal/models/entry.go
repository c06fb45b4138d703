package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus is the payment state of an entry as reported by the payment collaborator.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Entry is one purchase of tickets in one competition.
type Entry struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CompetitionID    primitive.ObjectID `bson:"competitionId" json:"competitionId"`
	UserID           primitive.ObjectID `bson:"userId" json:"userId"`
	CheckoutID       string             `bson:"checkoutId" json:"checkoutId"`
	PaymentReference string             `bson:"paymentReference,omitempty" json:"paymentReference,omitempty"`
	TicketNumbers    []int              `bson:"ticketNumbers" json:"ticketNumbers"`
	Quantity         int                `bson:"quantity" json:"quantity"`
	TotalCost        int64              `bson:"totalCost" json:"totalCost"`
	CashAmount       int64              `bson:"cashAmount" json:"cashAmount"`
	CreditAmount     int64              `bson:"creditAmount" json:"creditAmount"`
	PaymentStatus    PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	Settlement       *Settlement        `bson:"settlement,omitempty" json:"settlement,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
}

// WinOutcome is the per-ticket result of instant-win settlement.
type WinOutcome string

const (
	WinOutcomeWin  WinOutcome = "WIN"
	WinOutcomeNone WinOutcome = "NONE"
)

// WinResult describes what a single ticket number won, if anything.
type WinResult struct {
	TicketNumber int                 `bson:"ticketNumber" json:"ticketNumber"`
	Result       WinOutcome          `bson:"result" json:"result"`
	PrizeID      *primitive.ObjectID `bson:"prizeId,omitempty" json:"prizeId,omitempty"`
	PrizeName    string              `bson:"prizeName,omitempty" json:"prizeName,omitempty"`
	Value        int64               `bson:"value,omitempty" json:"value,omitempty"`
	Type         PrizeType           `bson:"type,omitempty" json:"type,omitempty"`
}

// Settlement is the stored outcome of settling an entry's instant wins. Once
// written it is the source of truth for repeated settlement calls.
type Settlement struct {
	Results        []WinResult `bson:"results" json:"results"`
	TotalCashWon   int64       `bson:"totalCashWon" json:"totalCashWon"`
	TotalCreditWon int64       `bson:"totalCreditWon" json:"totalCreditWon"`
	SettledAt      time.Time   `bson:"settledAt" json:"settledAt"`
}

// Wins returns only the winning results.
func (s *Settlement) Wins() []WinResult {
	var wins []WinResult
	for _, r := range s.Results {
		if r.Result == WinOutcomeWin {
			wins = append(wins, r)
		}
	}
	return wins
}
