package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "flashvpn-bot/internal/errors"
	"flashvpn-bot/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestSubscription() (*SubscriptionService, *fakeAccountRepo, *fakeProvisioner) {
	logger := testLogger()
	accounts := newFakeAccountRepo()
	prov := newFakeProvisioner()
	ledger := NewLedgerService(accounts, logger)
	svc := NewSubscriptionService(accounts, ledger, prov, 1, logger)
	return svc, accounts, prov
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestCanUseReasonPrecedence(t *testing.T) {
	future := timePtr(time.Now().Add(24 * time.Hour))
	past := timePtr(time.Now().Add(-24 * time.Hour))

	tests := []struct {
		name    string
		account *models.Account
		wantOK  bool
		want    string
	}{
		{"missing account", nil, false, ReasonNoUser},
		{"banned wins over everything", &models.Account{ID: 1, Banned: true, Enabled: true, PaidUntil: future}, false, ReasonBanned},
		{"banned wins over expired", &models.Account{ID: 1, Banned: true, Enabled: true, PaidUntil: past}, false, ReasonBanned},
		{"disabled", &models.Account{ID: 1, Enabled: false, PaidUntil: future}, false, ReasonPaused},
		{"no paid-through time", &models.Account{ID: 1, Enabled: true}, false, ReasonNoUntil},
		{"expired", &models.Account{ID: 1, Enabled: true, PaidUntil: past}, false, ReasonExpired},
		{"eligible", &models.Account{ID: 1, Enabled: true, PaidUntil: future}, true, ReasonOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, accounts, _ := newTestSubscription()
			if tt.account != nil {
				accounts.put(tt.account)
			}

			ok, reason := svc.CanUse(context.Background(), 1)
			if ok != tt.wantOK || reason != tt.want {
				t.Errorf("CanUse: got (%v, %q), want (%v, %q)", ok, reason, tt.wantOK, tt.want)
			}
		})
	}
}

func TestActivateCreatesCredentialExactlyOnce(t *testing.T) {
	svc, accounts, prov := newTestSubscription()
	accounts.put(&models.Account{ID: 42})

	if err := svc.Activate(context.Background(), 42, 30, nil); err != nil {
		t.Fatalf("first Activate: %v", err)
	}

	acc, _ := accounts.Get(context.Background(), 42)
	if !acc.HasCredential() {
		t.Fatal("expected credential after first activation")
	}
	first := acc.CredentialID

	if err := svc.Activate(context.Background(), 42, 30, nil); err != nil {
		t.Fatalf("second Activate: %v", err)
	}

	acc, _ = accounts.Get(context.Background(), 42)
	if acc.CredentialID != first {
		t.Errorf("credential changed: %q -> %q", first, acc.CredentialID)
	}
	if len(prov.createCalls) != 1 {
		t.Errorf("CreateClient called %d times, want 1", len(prov.createCalls))
	}
	if len(prov.setCalls) != 1 {
		t.Fatalf("SetClientState called %d times, want 1", len(prov.setCalls))
	}
	if !prov.setCalls[0].enabled {
		t.Error("second activation should refresh the client as enabled")
	}
}

func TestActivateStacksRemainingTime(t *testing.T) {
	svc, accounts, _ := newTestSubscription()
	accounts.put(&models.Account{ID: 7})

	if err := svc.Activate(context.Background(), 7, 10, nil); err != nil {
		t.Fatalf("Activate(10): %v", err)
	}
	if err := svc.Activate(context.Background(), 7, 5, nil); err != nil {
		t.Fatalf("Activate(5): %v", err)
	}

	acc, _ := accounts.Get(context.Background(), 7)
	if acc.PaidUntil == nil {
		t.Fatal("expected paid-through time")
	}
	want := time.Now().Add(15 * 24 * time.Hour)
	diff := acc.PaidUntil.Sub(want)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("paid until %v, want about %v", acc.PaidUntil, want)
	}
}

func TestActivateExpiredTimeDoesNotCompound(t *testing.T) {
	svc, accounts, _ := newTestSubscription()
	accounts.put(&models.Account{
		ID:        7,
		PaidUntil: timePtr(time.Now().Add(-30 * 24 * time.Hour)),
	})

	if err := svc.Activate(context.Background(), 7, 10, nil); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	acc, _ := accounts.Get(context.Background(), 7)
	want := time.Now().Add(10 * 24 * time.Hour)
	diff := acc.PaidUntil.Sub(want)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("paid until %v, want about %v (extension from now, not from expired base)", acc.PaidUntil, want)
	}
}

func TestActivateInsufficientBalance(t *testing.T) {
	svc, accounts, prov := newTestSubscription()
	accounts.put(&models.Account{ID: 9, Balance: 100})

	err := svc.Activate(context.Background(), 9, 30, &PriceTable{DailyRate: 5})

	var insufficient *apperrors.InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("got %v, want InsufficientBalanceError", err)
	}
	if insufficient.Required != 150 || insufficient.Available != 100 {
		t.Errorf("got required=%.2f available=%.2f, want 150/100", insufficient.Required, insufficient.Available)
	}

	acc, _ := accounts.Get(context.Background(), 9)
	if acc.Balance != 100 {
		t.Errorf("balance changed to %.2f, want untouched 100", acc.Balance)
	}
	if acc.PaidUntil != nil || acc.Enabled || acc.HasCredential() {
		t.Error("account state mutated despite insufficient balance")
	}
	if len(prov.createCalls) != 0 || len(prov.setCalls) != 0 {
		t.Error("provisioner called despite insufficient balance")
	}
}

func TestActivateDebitsCost(t *testing.T) {
	svc, accounts, _ := newTestSubscription()
	accounts.put(&models.Account{ID: 9, Balance: 150})

	if err := svc.Activate(context.Background(), 9, 30, &PriceTable{DailyRate: 5}); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	acc, _ := accounts.Get(context.Background(), 9)
	if acc.Balance != 0 {
		t.Errorf("balance %.2f, want 0", acc.Balance)
	}
	if !acc.Enabled || acc.PaidUntil == nil {
		t.Error("expected enabled account with paid-through time")
	}
}

func TestActivateRejectsNonPositiveDays(t *testing.T) {
	svc, accounts, _ := newTestSubscription()
	accounts.put(&models.Account{ID: 1})

	for _, days := range []int{0, -5} {
		err := svc.Activate(context.Background(), 1, days, nil)
		var validation *apperrors.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("Activate(days=%d): got %v, want ValidationError", days, err)
		}
	}
}

func TestActivateProvisioningFailureKeepsDebitAndTime(t *testing.T) {
	svc, accounts, prov := newTestSubscription()
	prov.createOK = false
	accounts.put(&models.Account{ID: 3, Balance: 150})

	err := svc.Activate(context.Background(), 3, 30, &PriceTable{DailyRate: 5})

	var provisioning *apperrors.ProvisioningError
	if !errors.As(err, &provisioning) {
		t.Fatalf("got %v, want ProvisioningError", err)
	}

	// The debit and extension stand; the credential was never persisted,
	// so a retry provisions from scratch.
	acc, _ := accounts.Get(context.Background(), 3)
	if acc.Balance != 0 {
		t.Errorf("balance %.2f, want debited 0", acc.Balance)
	}
	if acc.PaidUntil == nil {
		t.Error("paid-through time should remain extended")
	}
	if acc.HasCredential() {
		t.Error("credential must not be persisted when the panel refused creation")
	}
}

func TestActivateUnknownAccount(t *testing.T) {
	svc, _, _ := newTestSubscription()

	if err := svc.Activate(context.Background(), 404, 30, nil); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestPauseDisablesRemoteBeforeLocal(t *testing.T) {
	svc, accounts, prov := newTestSubscription()
	until := time.Now().Add(10 * 24 * time.Hour)
	accounts.put(&models.Account{ID: 5, Enabled: true, PaidUntil: &until, CredentialID: "cred-5", CredentialLabel: "tg_5"})

	if err := svc.Pause(context.Background(), 5); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	acc, _ := accounts.Get(context.Background(), 5)
	if acc.Enabled {
		t.Error("account still enabled after pause")
	}
	if len(prov.setCalls) != 1 {
		t.Fatalf("SetClientState called %d times, want 1", len(prov.setCalls))
	}
	call := prov.setCalls[0]
	if call.enabled {
		t.Error("remote client should be disabled")
	}
	if call.expiryMs != until.UnixMilli() {
		t.Errorf("expiry %d, want stored paid-through %d", call.expiryMs, until.UnixMilli())
	}
}

func TestPauseRemoteFailureLeavesFlagUntouched(t *testing.T) {
	svc, accounts, prov := newTestSubscription()
	prov.setOK = false
	until := time.Now().Add(10 * 24 * time.Hour)
	accounts.put(&models.Account{ID: 5, Enabled: true, PaidUntil: &until, CredentialID: "cred-5"})

	err := svc.Pause(context.Background(), 5)

	var provisioning *apperrors.ProvisioningError
	if !errors.As(err, &provisioning) {
		t.Fatalf("got %v, want ProvisioningError", err)
	}

	acc, _ := accounts.Get(context.Background(), 5)
	if !acc.Enabled {
		t.Error("pause must not take effect locally when the panel call failed")
	}
}

func TestPauseWithoutCredentialIsLocalOnly(t *testing.T) {
	svc, accounts, prov := newTestSubscription()
	accounts.put(&models.Account{ID: 6, Enabled: true})

	if err := svc.Pause(context.Background(), 6); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	acc, _ := accounts.Get(context.Background(), 6)
	if acc.Enabled {
		t.Error("account still enabled after pause")
	}
	if len(prov.setCalls) != 0 {
		t.Error("no panel call expected without a credential")
	}
}
