package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"flashvpn-bot/internal/constants"
	apperrors "flashvpn-bot/internal/errors"
	"flashvpn-bot/internal/models"
	"flashvpn-bot/internal/repository"
)

// Eligibility reason codes, in evaluation order. The ordering is part of
// the contract: banned wins over paused, paused over missing expiry.
const (
	ReasonNoUser  = "no_user"
	ReasonBanned  = "banned"
	ReasonPaused  = "paused"
	ReasonNoUntil = "no_until"
	ReasonExpired = "expired"
	ReasonOK      = "ok"
)

// VlessFlow is the flow assigned to every provisioned client
const VlessFlow = "xtls-rprx-vision"

// PriceTable carries the cost accounting for paid activations. A nil
// table means the caller grants time without charging (operator grants).
type PriceTable struct {
	DailyRate float64
}

// Cost returns the total price of the given number of days
func (p *PriceTable) Cost(days int) float64 {
	return p.DailyRate * float64(days)
}

// SubscriptionService orchestrates activation, pause and eligibility.
// It relies on the repository's atomic updates for correctness under
// concurrent callers; no in-process per-account locking exists.
type SubscriptionService struct {
	accounts  repository.AccountRepository
	ledger    *LedgerService
	prov      Provisioner
	inboundID int
	logger    *logrus.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	accounts repository.AccountRepository,
	ledger *LedgerService,
	prov Provisioner,
	inboundID int,
	logger *logrus.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		accounts:  accounts,
		ledger:    ledger,
		prov:      prov,
		inboundID: inboundID,
		logger:    logger,
	}
}

// CanUse evaluates the eligibility of an account and returns the first
// failing reason in the fixed short-circuit order.
func (s *SubscriptionService) CanUse(ctx context.Context, accountID int64) (bool, string) {
	acc, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Errorf("Failed to load account %d for eligibility check: %v", accountID, err)
		}
		return false, ReasonNoUser
	}
	if acc.Banned {
		return false, ReasonBanned
	}
	if !acc.Enabled {
		return false, ReasonPaused
	}
	if acc.PaidUntil == nil {
		return false, ReasonNoUntil
	}
	if acc.PaidUntil.Before(time.Now()) {
		return false, ReasonExpired
	}
	return true, ReasonOK
}

// Activate grants the account the given number of subscription days and
// provisions (or re-enables) its panel credential.
//
// With a price table, the cost is debited before any time is granted;
// insufficient balance aborts with no state change. A provisioning
// failure after the debit does NOT refund it: the user keeps the paid
// time locally and the operator retries provisioning by re-activating
// (credential creation is idempotent per account).
func (s *SubscriptionService) Activate(ctx context.Context, accountID int64, days int, price *PriceTable) error {
	if days <= 0 {
		return &apperrors.ValidationError{Field: "days", Message: "must be positive"}
	}

	acc, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}

	if price != nil {
		required := price.Cost(days)
		if acc.Balance < required {
			return &apperrors.InsufficientBalanceError{Required: required, Available: acc.Balance}
		}
		if err := s.ledger.AddBalance(ctx, accountID, -required); err != nil {
			return err
		}
	}

	if err := s.accounts.SetEnabled(ctx, accountID, true); err != nil {
		return err
	}

	until, err := s.accounts.ExtendPaidUntil(ctx, accountID, days)
	if err != nil {
		return err
	}
	expiryMs := until.UnixMilli()

	if !acc.HasCredential() {
		credentialID := uuid.NewString()
		label := constants.CredentialLabelPrefix + strconv.FormatInt(accountID, 10)

		client := models.Client{
			ID:         credentialID,
			Enable:     true,
			Flow:       VlessFlow,
			Email:      label,
			TotalGB:    0,
			LimitIP:    1,
			ExpiryTime: expiryMs,
		}
		if err := s.provision(ctx, "createClient", func() (bool, error) {
			return s.prov.CreateClient(ctx, s.inboundID, client)
		}); err != nil {
			return err
		}
		if err := s.accounts.SetCredential(ctx, accountID, credentialID, label); err != nil {
			return err
		}
		s.logger.Infof("Provisioned credential %s for account %d, paid until %s", credentialID, accountID, until.Format(constants.TimestampFormat))
		return nil
	}

	if err := s.provision(ctx, "updateClient", func() (bool, error) {
		return s.prov.SetClientState(ctx, s.inboundID, acc.CredentialID, true, expiryMs)
	}); err != nil {
		return err
	}
	s.logger.Infof("Refreshed credential %s for account %d, paid until %s", acc.CredentialID, accountID, until.Format(constants.TimestampFormat))
	return nil
}

// Pause switches the subscription off. When a credential exists the
// remote client is disabled first and the local flag flips only after
// the panel confirmed; a failed remote call leaves the account enabled
// so the pause visibly did not happen.
func (s *SubscriptionService) Pause(ctx context.Context, accountID int64) error {
	acc, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}

	if acc.HasCredential() {
		var expiryMs int64
		if acc.PaidUntil != nil {
			expiryMs = acc.PaidUntil.UnixMilli()
		}
		if err := s.provision(ctx, "updateClient", func() (bool, error) {
			return s.prov.SetClientState(ctx, s.inboundID, acc.CredentialID, false, expiryMs)
		}); err != nil {
			return err
		}
	}

	return s.accounts.SetEnabled(ctx, accountID, false)
}

// provision runs authenticate plus one panel call, translating the
// boolean-success contract into the domain error taxonomy.
func (s *SubscriptionService) provision(ctx context.Context, op string, call func() (bool, error)) error {
	ok, err := s.prov.Authenticate(ctx)
	if err != nil {
		return &apperrors.ProvisioningError{Op: "authenticate", Reason: "transport fault", Err: err}
	}
	if !ok {
		return &apperrors.ProvisioningError{Op: "authenticate", Reason: "panel declined login"}
	}

	ok, err = call()
	if err != nil {
		return &apperrors.ProvisioningError{Op: op, Reason: "transport fault", Err: err}
	}
	if !ok {
		return &apperrors.ProvisioningError{Op: op, Reason: "panel declared failure"}
	}
	return nil
}
