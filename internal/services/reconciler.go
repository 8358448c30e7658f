package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"flashvpn-bot/internal/models"
	"flashvpn-bot/internal/repository"
)

// ExpiryReconciler is the background sweep that disables subscriptions
// whose paid time has lapsed while they are still switched on. Expiry
// has no natural trigger event, so the reconciler polls on a fixed
// interval; accounts it fails to disable stay in the result set and are
// retried on the next sweep.
type ExpiryReconciler struct {
	accounts  repository.AccountRepository
	prov      Provisioner
	inboundID int
	interval  time.Duration
	logger    *logrus.Logger
}

// NewExpiryReconciler creates a new expiry reconciler
func NewExpiryReconciler(
	accounts repository.AccountRepository,
	prov Provisioner,
	inboundID int,
	interval time.Duration,
	logger *logrus.Logger,
) *ExpiryReconciler {
	return &ExpiryReconciler{
		accounts:  accounts,
		prov:      prov,
		inboundID: inboundID,
		interval:  interval,
		logger:    logger,
	}
}

// Run loops sweeps with a fixed delay until the context is cancelled.
// Sweep-level errors never terminate the loop; a crashed panel must not
// wedge it permanently.
func (r *ExpiryReconciler) Run(ctx context.Context) {
	r.logger.Infof("Expiry reconciler started, interval %s", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Expiry reconciler stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep disables every expired-but-enabled account. Each account is an
// independent work unit: a failure is logged and skipped so it never
// aborts the rest of the sweep.
func (r *ExpiryReconciler) Sweep(ctx context.Context) {
	accounts, err := r.accounts.ListExpiredEnabled(ctx)
	if err != nil {
		r.logger.Errorf("Failed to list expired accounts: %v", err)
		return
	}

	for i := range accounts {
		acc := &accounts[i]
		if err := r.disable(ctx, acc); err != nil {
			r.logger.Errorf("Failed to disable expired account %d: %v", acc.ID, err)
			continue
		}
		r.logger.Infof("Disabled expired subscription for account %d", acc.ID)
	}
}

// disable turns off the remote client (when one exists) and then flips
// the local flag. The remote call keeps the stored expiry so the panel
// record reflects when the subscription actually ran out.
func (r *ExpiryReconciler) disable(ctx context.Context, acc *models.Account) error {
	if acc.HasCredential() {
		ok, err := r.prov.Authenticate(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return &panelRefusedError{op: "authenticate"}
		}

		var expiryMs int64
		if acc.PaidUntil != nil {
			expiryMs = acc.PaidUntil.UnixMilli()
		}

		ok, err = r.prov.SetClientState(ctx, r.inboundID, acc.CredentialID, false, expiryMs)
		if err != nil {
			return err
		}
		if !ok {
			return &panelRefusedError{op: "updateClient"}
		}
	}

	return r.accounts.SetEnabled(ctx, acc.ID, false)
}

type panelRefusedError struct {
	op string
}

func (e *panelRefusedError) Error() string {
	return "panel refused " + e.op
}
