package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// PurchaseItem is one competition line in a checkout.
type PurchaseItem struct {
	CompetitionID primitive.ObjectID `json:"competitionId"`
	TicketPrice   int64              `json:"ticketPrice"`
	Quantity      int                `json:"quantity"`
}

// Purchase is what the payment collaborator sends once funds are authorized.
type Purchase struct {
	UserID                 primitive.ObjectID `json:"userId"`
	PaymentReference       string             `json:"paymentReference"`
	Items                  []PurchaseItem     `json:"items"`
	AuthorizedCashAmount   int64              `json:"authorizedCashAmount"`
	AuthorizedCreditAmount int64              `json:"authorizedCreditAmount"`
}

// Total is the gross cost of all items.
func (p *Purchase) Total() int64 {
	var total int64
	for _, item := range p.Items {
		total += item.TicketPrice * int64(item.Quantity)
	}
	return total
}

// CheckoutResult is returned by AllocateAndCreateEntry.
type CheckoutResult struct {
	CheckoutID     string   `json:"checkoutId"`
	Entries        []*Entry `json:"entries"`
	TotalCashWon   int64    `json:"totalCashWon"`
	TotalCreditWon int64    `json:"totalCreditWon"`
	Replayed       bool     `json:"replayed,omitempty"`
}
