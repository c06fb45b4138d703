package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LedgerKind names one of the two balances an account holds.
type LedgerKind string

const (
	// LedgerCash is withdrawable cash.
	LedgerCash LedgerKind = "CASH"
	// LedgerCredit is site credit, spendable only on tickets.
	LedgerCredit LedgerKind = "CREDIT"
)

// LedgerKinds lists every ledger in a stable order.
var LedgerKinds = []LedgerKind{LedgerCash, LedgerCredit}

// Valid reports whether k is a known ledger.
func (k LedgerKind) Valid() bool {
	return k == LedgerCash || k == LedgerCredit
}

// BalanceField is the account document field holding this ledger's balance.
func (k LedgerKind) BalanceField() string {
	if k == LedgerCash {
		return "cashBalance"
	}
	return "creditBalance"
}

// SeqField is the account document field counting this ledger's transactions.
func (k LedgerKind) SeqField() string {
	if k == LedgerCash {
		return "cashSeq"
	}
	return "creditSeq"
}

// Account caches a user's two balances. The cached values always equal the
// running sum of the user's ledger transactions; the seq counters number
// those transactions per ledger.
type Account struct {
	UserID        primitive.ObjectID `bson:"_id" json:"userId"`
	CashBalance   int64              `bson:"cashBalance" json:"cashBalance"`
	CreditBalance int64              `bson:"creditBalance" json:"creditBalance"`
	CashSeq       int64              `bson:"cashSeq" json:"-"`
	CreditSeq     int64              `bson:"creditSeq" json:"-"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Balance returns the cached balance for one ledger.
func (a *Account) Balance(kind LedgerKind) int64 {
	if kind == LedgerCash {
		return a.CashBalance
	}
	return a.CreditBalance
}

// Seq returns the number of transactions recorded on one ledger.
func (a *Account) Seq(kind LedgerKind) int64 {
	if kind == LedgerCash {
		return a.CashSeq
	}
	return a.CreditSeq
}

// Balances is the pair returned by GetBalance.
type Balances struct {
	Cash   int64 `json:"cash"`
	Credit int64 `json:"credit"`
}

// LedgerTransaction is an immutable balance mutation record.
type LedgerTransaction struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Ledger      LedgerKind         `bson:"ledger" json:"ledger"`
	Amount      int64              `bson:"amount" json:"amount"`
	Balance     int64              `bson:"balance" json:"balance"`
	Description string             `bson:"description" json:"description"`
	Reference   string             `bson:"reference" json:"reference"`
	Seq         int64              `bson:"seq" json:"seq"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// ReconcileReport is the outcome of replaying a ledger against its cached balance.
type ReconcileReport struct {
	UserID        primitive.ObjectID  `json:"userId"`
	Ledger        LedgerKind          `json:"ledger"`
	Transactions  int                 `json:"transactions"`
	Sum           int64               `json:"sum"`
	StoredBalance int64               `json:"storedBalance"`
	Consistent    bool                `json:"consistent"`
	FirstMismatch *primitive.ObjectID `json:"firstMismatch,omitempty"`
}
