package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithdrawalStatus is the state of a cash withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "PENDING"
	WithdrawalApproved  WithdrawalStatus = "APPROVED"
	WithdrawalCompleted WithdrawalStatus = "COMPLETED"
	WithdrawalRejected  WithdrawalStatus = "REJECTED"
)

// WithdrawalRequest reserves cash at request time; rejection refunds it with a new transaction.
type WithdrawalRequest struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	UserID          primitive.ObjectID  `bson:"userId" json:"userId"`
	Amount          int64               `bson:"amount" json:"amount"`
	Status          WithdrawalStatus    `bson:"status" json:"status"`
	PaymentDetails  map[string]string   `bson:"paymentDetails,omitempty" json:"paymentDetails,omitempty"`
	Reason          string              `bson:"reason,omitempty" json:"reason,omitempty"`
	ReservationTxID primitive.ObjectID  `bson:"reservationTxId" json:"reservationTxId"`
	RefundTxID      *primitive.ObjectID `bson:"refundTxId,omitempty" json:"refundTxId,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}
