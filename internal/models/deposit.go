package models

import "time"

// DepositStatus is the lifecycle state of a deposit request
type DepositStatus string

const (
	DepositPending  DepositStatus = "pending"
	DepositApproved DepositStatus = "approved"
	DepositRejected DepositStatus = "rejected"
)

// DepositRequest is a user's top-up request awaiting an operator decision.
// Transitions are one-way: pending -> approved | rejected, never back.
type DepositRequest struct {
	ID        int64
	AccountID int64
	Amount    float64
	Status    DepositStatus
	CreatedAt time.Time
}

// Resolved reports whether the request has left the pending state
func (d *DepositRequest) Resolved() bool {
	return d.Status != DepositPending
}
