package services

import (
	"context"
	"testing"
	"time"

	"flashvpn-bot/internal/models"
)

func newTestReconciler() (*ExpiryReconciler, *SubscriptionService, *fakeAccountRepo, *fakeProvisioner) {
	logger := testLogger()
	accounts := newFakeAccountRepo()
	prov := newFakeProvisioner()
	ledger := NewLedgerService(accounts, logger)
	subs := NewSubscriptionService(accounts, ledger, prov, 1, logger)
	rec := NewExpiryReconciler(accounts, prov, 1, time.Minute, logger)
	return rec, subs, accounts, prov
}

func TestSweepDisablesExpiredAccount(t *testing.T) {
	rec, subs, accounts, prov := newTestReconciler()
	until := time.Now().Add(-24 * time.Hour)
	accounts.put(&models.Account{ID: 1, Enabled: true, PaidUntil: &until, CredentialID: "cred-1"})

	rec.Sweep(context.Background())

	acc, _ := accounts.Get(context.Background(), 1)
	if acc.Enabled {
		t.Error("expired account still enabled after sweep")
	}
	if len(prov.setCalls) != 1 {
		t.Fatalf("SetClientState called %d times, want 1", len(prov.setCalls))
	}
	call := prov.setCalls[0]
	if call.enabled {
		t.Error("remote client should be disabled")
	}
	if call.expiryMs != until.UnixMilli() {
		t.Errorf("expiry %d, want stored %d", call.expiryMs, until.UnixMilli())
	}

	// The flag flip preempts the expiry check in later eligibility reads
	if ok, reason := subs.CanUse(context.Background(), 1); ok || reason != ReasonPaused {
		t.Errorf("CanUse after sweep: got (%v, %q), want (false, %q)", ok, reason, ReasonPaused)
	}
}

func TestSweepLeavesCurrentAccountsAlone(t *testing.T) {
	rec, _, accounts, prov := newTestReconciler()
	until := time.Now().Add(24 * time.Hour)
	accounts.put(&models.Account{ID: 1, Enabled: true, PaidUntil: &until, CredentialID: "cred-1"})

	rec.Sweep(context.Background())

	acc, _ := accounts.Get(context.Background(), 1)
	if !acc.Enabled {
		t.Error("account with remaining time was disabled")
	}
	if len(prov.setCalls) != 0 {
		t.Error("no panel call expected for unexpired accounts")
	}
}

func TestSweepIsolatesPerAccountFailures(t *testing.T) {
	rec, _, accounts, prov := newTestReconciler()
	expired := time.Now().Add(-time.Hour)
	accounts.put(&models.Account{ID: 1, Enabled: true, PaidUntil: &expired, CredentialID: "cred-1"})
	accounts.put(&models.Account{ID: 2, Enabled: true, PaidUntil: &expired, CredentialID: "cred-2"})
	prov.failSetBy["cred-1"] = true

	rec.Sweep(context.Background())

	first, _ := accounts.Get(context.Background(), 1)
	second, _ := accounts.Get(context.Background(), 2)
	if !first.Enabled {
		t.Error("account with failing panel call must stay enabled for the next sweep")
	}
	if second.Enabled {
		t.Error("healthy account should have been disabled despite the other failure")
	}

	// The failed account self-heals once the panel recovers
	delete(prov.failSetBy, "cred-1")
	rec.Sweep(context.Background())
	first, _ = accounts.Get(context.Background(), 1)
	if first.Enabled {
		t.Error("account not disabled on the retry sweep")
	}
}

func TestSweepSkipsAllOnAuthFailure(t *testing.T) {
	rec, _, accounts, prov := newTestReconciler()
	prov.authOK = false
	expired := time.Now().Add(-time.Hour)
	accounts.put(&models.Account{ID: 1, Enabled: true, PaidUntil: &expired, CredentialID: "cred-1"})

	rec.Sweep(context.Background())

	acc, _ := accounts.Get(context.Background(), 1)
	if !acc.Enabled {
		t.Error("account must remain a candidate when panel login fails")
	}
}

func TestSweepFlipsCredentiallessAccountLocally(t *testing.T) {
	rec, _, accounts, prov := newTestReconciler()
	expired := time.Now().Add(-time.Hour)
	accounts.put(&models.Account{ID: 3, Enabled: true, PaidUntil: &expired})

	rec.Sweep(context.Background())

	acc, _ := accounts.Get(context.Background(), 3)
	if acc.Enabled {
		t.Error("credentialless expired account should be disabled locally")
	}
	if len(prov.setCalls) != 0 {
		t.Error("no panel call expected without a credential")
	}
}
