package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DrawStatus represents the status of a draw record
type DrawStatus string

const (
	DrawStatusCompleted DrawStatus = "COMPLETED"
	DrawStatusVoided    DrawStatus = "VOIDED"
)

// DrawRecord is the durable audit evidence of one grand-prize draw.
type DrawRecord struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	DrawRef             string             `bson:"drawRef" json:"drawRef"`
	CompetitionID       primitive.ObjectID `bson:"competitionId" json:"competitionId"`
	Status              DrawStatus         `bson:"status" json:"status"`
	RosterSize          int                `bson:"rosterSize" json:"rosterSize"`
	SelectedIndex       int                `bson:"selectedIndex" json:"selectedIndex"`
	RosterDigest        string             `bson:"rosterDigest" json:"rosterDigest"`
	WinningTicketNumber int                `bson:"winningTicketNumber" json:"winningTicketNumber"`
	WinnerID            primitive.ObjectID `bson:"winnerId" json:"winnerId"`
	EntryID             primitive.ObjectID `bson:"entryId" json:"entryId"`
	ExecutionLog        []string           `bson:"executionLog,omitempty" json:"executionLog,omitempty"`
	VoidReason          string             `bson:"voidReason,omitempty" json:"voidReason,omitempty"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	VoidedAt            *time.Time         `bson:"voidedAt,omitempty" json:"voidedAt,omitempty"`
}

// DrawResult is what the draw engine reports to its callers.
type DrawResult struct {
	CompetitionID       primitive.ObjectID `json:"competitionId"`
	DrawID              string             `json:"drawId"`
	WinningTicketNumber int                `json:"winningTicketNumber"`
	WinnerID            primitive.ObjectID `json:"winnerId"`
	DrawTimestamp       time.Time          `json:"drawTimestamp"`
	RosterSize          int                `json:"rosterSize"`
	SelectedIndex       int                `json:"selectedIndex"`
}

// RosterTicket is one ticket in a draw roster.
type RosterTicket struct {
	EntryID      primitive.ObjectID
	UserID       primitive.ObjectID
	TicketNumber int
}
