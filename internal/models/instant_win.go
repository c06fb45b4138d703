package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PrizeType says which ledger an instant prize pays into.
type PrizeType string

const (
	PrizeTypeCash   PrizeType = "CASH"
	PrizeTypeCredit PrizeType = "CREDIT"
)

// Valid reports whether t is a known prize type.
func (t PrizeType) Valid() bool {
	return t == PrizeTypeCash || t == PrizeTypeCredit
}

// Ledger maps a prize type onto the ledger it credits.
func (t PrizeType) Ledger() LedgerKind {
	if t == PrizeTypeCash {
		return LedgerCash
	}
	return LedgerCredit
}

// InstantPrize is one prize tier of a competition's instant-win pool.
type InstantPrize struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CompetitionID primitive.ObjectID `bson:"competitionId" json:"competitionId"`
	Name          string             `bson:"name" json:"name"`
	Type          PrizeType          `bson:"type" json:"type"`
	Value         int64              `bson:"value" json:"value"` // pence
	TotalWins     int                `bson:"totalWins" json:"totalWins"`
	RemainingWins int                `bson:"remainingWins" json:"remainingWins"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// InstantWinTicket pre-commits a ticket number to a prize. WinnerID is set at
// most once, by the first settlement that claims it.
type InstantWinTicket struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	CompetitionID primitive.ObjectID  `bson:"competitionId" json:"competitionId"`
	TicketNumber  int                 `bson:"ticketNumber" json:"ticketNumber"`
	PrizeID       primitive.ObjectID  `bson:"prizeId" json:"prizeId"`
	WinnerID      *primitive.ObjectID `bson:"winnerId" json:"winnerId,omitempty"`
	EntryID       *primitive.ObjectID `bson:"entryId,omitempty" json:"entryId,omitempty"`
	ClaimedAt     *time.Time          `bson:"claimedAt" json:"claimedAt,omitempty"`
}

// IsClaimed reports whether a winner has been assigned.
func (t *InstantWinTicket) IsClaimed() bool {
	return t.WinnerID != nil
}
