package repository

import (
	"context"
	"time"

	"flashvpn-bot/internal/models"
)

// AccountRepository is the persistence seam for user accounts.
// Mutating methods must be single atomic statements so that concurrent
// callers never lose updates; multi-step transitions live in the
// deposit repository's transactional methods.
type AccountRepository interface {
	Get(ctx context.Context, id int64) (*models.Account, error)
	EnsureExists(ctx context.Context, id int64, username string) error
	AddBalance(ctx context.Context, id int64, delta float64) error
	SetBanned(ctx context.Context, id int64, banned bool) error
	SetEnabled(ctx context.Context, id int64, enabled bool) error
	SetCredential(ctx context.Context, id int64, credentialID, label string) error
	SetMenuMessage(ctx context.Context, id int64, messageID int) error
	ExtendPaidUntil(ctx context.Context, id int64, days int) (time.Time, error)
	ListExpiredEnabled(ctx context.Context) ([]models.Account, error)
}

// DepositRepository is the persistence seam for deposit requests.
// Approve and Reject flip the status only while it is still pending and
// report ErrAlreadyHandled otherwise; Approve credits the account balance
// within the same transaction as the status flip.
type DepositRepository interface {
	Create(ctx context.Context, accountID int64, amount float64) (*models.DepositRequest, error)
	Get(ctx context.Context, id int64) (*models.DepositRequest, error)
	Approve(ctx context.Context, id int64) (*models.DepositRequest, error)
	Reject(ctx context.Context, id int64) (*models.DepositRequest, error)
}
