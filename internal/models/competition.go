package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Competition is a time-boxed prize competition with a fixed ticket number space (1..MaxTickets).
type Competition struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title       string             `bson:"title" json:"title"`
	MaxTickets  int                `bson:"maxTickets" json:"maxTickets"`
	TicketPrice int64              `bson:"ticketPrice" json:"ticketPrice"` // pence
	IsActive    bool               `bson:"isActive" json:"isActive"`
	EndDate     time.Time          `bson:"endDate" json:"endDate"`
	TicketsSold int                `bson:"ticketsSold" json:"ticketsSold"`

	// Draw outcome. The four fields are always written and cleared together.
	WinnerID            *primitive.ObjectID `bson:"winnerId" json:"winnerId,omitempty"`
	WinningTicketNumber *int                `bson:"winningTicketNumber" json:"winningTicketNumber,omitempty"`
	DrawID              *string             `bson:"drawId" json:"drawId,omitempty"`
	DrawTimestamp       *time.Time          `bson:"drawTimestamp" json:"drawTimestamp,omitempty"`
	DrawFinalizedAt     *time.Time          `bson:"drawFinalizedAt" json:"drawFinalizedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsDrawn reports whether a winner has been recorded.
func (c *Competition) IsDrawn() bool {
	return c.WinnerID != nil
}

// IsOpen reports whether the competition accepts new entries at the given time.
func (c *Competition) IsOpen(now time.Time) bool {
	return c.IsActive && !c.IsDrawn() && now.Before(c.EndDate)
}

// RemainingTickets returns how many ticket numbers are still unissued.
func (c *Competition) RemainingTickets() int {
	remaining := c.MaxTickets - c.TicketsSold
	if remaining < 0 {
		return 0
	}
	return remaining
}
