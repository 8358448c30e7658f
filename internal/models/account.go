package models

import "time"

// Account is the bot user's persistent record of balance, ban state and
// subscription state. The subscription "state" is never stored as a tag;
// it is derived from Banned, Enabled and PaidUntil.
type Account struct {
	ID              int64
	Username        string
	Balance         float64
	Banned          bool
	Enabled         bool
	PaidUntil       *time.Time
	CredentialID    string
	CredentialLabel string
	MenuMessageID   int
	CreatedAt       time.Time
}

// HasCredential reports whether a panel client has ever been provisioned
// for this account.
func (a *Account) HasCredential() bool {
	return a.CredentialID != ""
}

// DaysLeft returns the number of whole paid days remaining, never negative.
func (a *Account) DaysLeft(now time.Time) int {
	if a.PaidUntil == nil {
		return 0
	}
	diff := a.PaidUntil.Sub(now)
	if diff <= 0 {
		return 0
	}
	return int(diff.Hours() / 24)
}
