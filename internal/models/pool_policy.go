package models

// PrizeTier is one tier of a prize pool policy. Percent is the share (0-100)
// of the instant-win budget spent on this tier.
type PrizeTier struct {
	Name      string    `json:"name" binding:"required"`
	Percent   float64   `json:"percent"`
	UnitValue int64     `json:"unitValue"` // pence
	Type      PrizeType `json:"type" binding:"required"`
}

// PoolPolicy drives prize pool generation.
type PoolPolicy struct {
	TargetPayoutRatio float64     `json:"targetPayoutRatio"`
	InstantShare      float64     `json:"instantShare"`
	Tiers             []PrizeTier `json:"tiers" binding:"required,min=1"`
}

// PoolSummary reports a generated (or current) prize pool.
type PoolSummary struct {
	CompetitionID  string          `json:"competitionId"`
	TotalBudget    int64           `json:"totalBudget"`
	InstantBudget  int64           `json:"instantBudget"`
	AllocatedValue int64           `json:"allocatedValue"`
	TicketCount    int             `json:"ticketCount"`
	Odds           float64         `json:"odds"` // 1 in Odds
	Prizes         []*InstantPrize `json:"prizes"`
	ClaimedNumbers []int           `json:"claimedNumbers,omitempty"`
}
