package services

import (
	"context"
	"sync"
	"time"

	apperrors "flashvpn-bot/internal/errors"
	"flashvpn-bot/internal/models"
)

// fakeAccountRepo is an in-memory AccountRepository mirroring the
// Postgres implementation's semantics.
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[int64]*models.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[int64]*models.Account)}
}

func (r *fakeAccountRepo) put(a *models.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *a
	r.accounts[a.ID] = &copied
}

func (r *fakeAccountRepo) Get(ctx context.Context, id int64) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAccountRepo) EnsureExists(ctx context.Context, id int64, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		if username != "" {
			a.Username = username
		}
		return nil
	}
	r.accounts[id] = &models.Account{ID: id, Username: username, CreatedAt: time.Now()}
	return nil
}

func (r *fakeAccountRepo) AddBalance(ctx context.Context, id int64, delta float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.Balance += delta
	return nil
}

func (r *fakeAccountRepo) SetBanned(ctx context.Context, id int64, banned bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.Banned = banned
	return nil
}

func (r *fakeAccountRepo) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.Enabled = enabled
	return nil
}

func (r *fakeAccountRepo) SetCredential(ctx context.Context, id int64, credentialID, label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.CredentialID = credentialID
	a.CredentialLabel = label
	return nil
}

func (r *fakeAccountRepo) SetMenuMessage(ctx context.Context, id int64, messageID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.MenuMessageID = messageID
	return nil
}

func (r *fakeAccountRepo) ExtendPaidUntil(ctx context.Context, id int64, days int) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return time.Time{}, apperrors.ErrNotFound
	}
	base := time.Now()
	if a.PaidUntil != nil && a.PaidUntil.After(base) {
		base = *a.PaidUntil
	}
	until := base.Add(time.Duration(days) * 24 * time.Hour)
	a.PaidUntil = &until
	return until, nil
}

func (r *fakeAccountRepo) ListExpiredEnabled(ctx context.Context) ([]models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Account
	now := time.Now()
	for _, a := range r.accounts {
		if a.Enabled && a.PaidUntil != nil && a.PaidUntil.Before(now) {
			out = append(out, *a)
		}
	}
	return out, nil
}

// fakeDepositRepo mirrors the transactional pending-guard of the
// Postgres deposit repository, crediting through the account repo the
// way the real Approve does inside one transaction.
type fakeDepositRepo struct {
	mu       sync.Mutex
	accounts *fakeAccountRepo
	deposits map[int64]*models.DepositRequest
	nextID   int64
}

func newFakeDepositRepo(accounts *fakeAccountRepo) *fakeDepositRepo {
	return &fakeDepositRepo{
		accounts: accounts,
		deposits: make(map[int64]*models.DepositRequest),
		nextID:   1,
	}
}

func (r *fakeDepositRepo) Create(ctx context.Context, accountID int64, amount float64) (*models.DepositRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dr := &models.DepositRequest{
		ID:        r.nextID,
		AccountID: accountID,
		Amount:    amount,
		Status:    models.DepositPending,
		CreatedAt: time.Now(),
	}
	r.nextID++
	r.deposits[dr.ID] = dr
	copied := *dr
	return &copied, nil
}

func (r *fakeDepositRepo) Get(ctx context.Context, id int64) (*models.DepositRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dr, ok := r.deposits[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *dr
	return &copied, nil
}

func (r *fakeDepositRepo) Approve(ctx context.Context, id int64) (*models.DepositRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dr, ok := r.deposits[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if dr.Status != models.DepositPending {
		return nil, apperrors.ErrAlreadyHandled
	}
	dr.Status = models.DepositApproved
	if err := r.accounts.AddBalance(ctx, dr.AccountID, dr.Amount); err != nil {
		return nil, err
	}
	copied := *dr
	return &copied, nil
}

func (r *fakeDepositRepo) Reject(ctx context.Context, id int64) (*models.DepositRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dr, ok := r.deposits[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if dr.Status != models.DepositPending {
		return nil, apperrors.ErrAlreadyHandled
	}
	dr.Status = models.DepositRejected
	copied := *dr
	return &copied, nil
}

type setCall struct {
	inboundID    int
	credentialID string
	enabled      bool
	expiryMs     int64
}

// fakeProvisioner records panel calls and can be told to refuse or fault
type fakeProvisioner struct {
	mu sync.Mutex

	authOK  bool
	authErr error

	createOK  bool
	createErr error

	setOK     bool
	setErr    error
	failSetBy map[string]bool // refuse SetClientState for these credential ids

	createCalls []models.Client
	setCalls    []setCall
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{
		authOK:    true,
		createOK:  true,
		setOK:     true,
		failSetBy: make(map[string]bool),
	}
}

func (p *fakeProvisioner) Authenticate(ctx context.Context) (bool, error) {
	if p.authErr != nil {
		return false, p.authErr
	}
	return p.authOK, nil
}

func (p *fakeProvisioner) CreateClient(ctx context.Context, inboundID int, client models.Client) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return false, p.createErr
	}
	if !p.createOK {
		return false, nil
	}
	p.createCalls = append(p.createCalls, client)
	return true, nil
}

func (p *fakeProvisioner) SetClientState(ctx context.Context, inboundID int, credentialID string, enabled bool, expiryMs int64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.setErr != nil {
		return false, p.setErr
	}
	if !p.setOK || p.failSetBy[credentialID] {
		return false, nil
	}
	p.setCalls = append(p.setCalls, setCall{
		inboundID:    inboundID,
		credentialID: credentialID,
		enabled:      enabled,
		expiryMs:     expiryMs,
	})
	return true, nil
}
