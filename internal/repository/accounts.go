package repository

import (
	"context"
	"database/sql"
	"time"

	apperrors "flashvpn-bot/internal/errors"
	"flashvpn-bot/internal/models"
)

// PostgresAccountRepository implements AccountRepository on PostgreSQL
type PostgresAccountRepository struct {
	db *sql.DB
}

// NewPostgresAccountRepository creates a new account repository
func NewPostgresAccountRepository(db *sql.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

const accountColumns = `user_id, username, balance, is_banned, is_enabled, paid_until,
	credential_id, credential_label, menu_message_id, created_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*models.Account, error) {
	a := &models.Account{}
	var paidUntil sql.NullTime
	err := row.Scan(
		&a.ID,
		&a.Username,
		&a.Balance,
		&a.Banned,
		&a.Enabled,
		&paidUntil,
		&a.CredentialID,
		&a.CredentialLabel,
		&a.MenuMessageID,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paidUntil.Valid {
		t := paidUntil.Time
		a.PaidUntil = &t
	}
	return a, nil
}

// Get fetches an account by id
func (r *PostgresAccountRepository) Get(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// EnsureExists creates the account with defaults on first contact and
// refreshes the stored username on every later one.
func (r *PostgresAccountRepository) EnsureExists(ctx context.Context, id int64, username string) error {
	query := `INSERT INTO accounts (user_id, username) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username
		WHERE EXCLUDED.username <> '' AND accounts.username <> EXCLUDED.username`

	_, err := r.db.ExecContext(ctx, query, id, username)
	return err
}

// AddBalance atomically adjusts the balance by delta (negative for spend)
func (r *PostgresAccountRepository) AddBalance(ctx context.Context, id int64, delta float64) error {
	query := `UPDATE accounts SET balance = balance + $2 WHERE user_id = $1`

	res, err := r.db.ExecContext(ctx, query, id, delta)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetBanned sets the ban flag
func (r *PostgresAccountRepository) SetBanned(ctx context.Context, id int64, banned bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET is_banned = $2 WHERE user_id = $1`, id, banned)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetEnabled sets the subscription on/off flag
func (r *PostgresAccountRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET is_enabled = $2 WHERE user_id = $1`, id, enabled)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetCredential stores the provisioned panel client identity
func (r *PostgresAccountRepository) SetCredential(ctx context.Context, id int64, credentialID, label string) error {
	query := `UPDATE accounts SET credential_id = $2, credential_label = $3 WHERE user_id = $1`

	res, err := r.db.ExecContext(ctx, query, id, credentialID, label)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetMenuMessage remembers the id of the user's menu message
func (r *PostgresAccountRepository) SetMenuMessage(ctx context.Context, id int64, messageID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET menu_message_id = $2 WHERE user_id = $1`, id, messageID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ExtendPaidUntil extends the paid-through time by the given number of
// days in a single statement. Remaining future time is preserved; time
// already expired does not compound.
func (r *PostgresAccountRepository) ExtendPaidUntil(ctx context.Context, id int64, days int) (time.Time, error) {
	query := `UPDATE accounts
		SET paid_until = GREATEST(COALESCE(paid_until, NOW()), NOW()) + make_interval(days => $2)
		WHERE user_id = $1
		RETURNING paid_until`

	var until time.Time
	err := r.db.QueryRowContext(ctx, query, id, days).Scan(&until)
	if err == sql.ErrNoRows {
		return time.Time{}, apperrors.ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return until, nil
}

// ListExpiredEnabled returns accounts that are still switched on but
// whose paid time has lapsed. These are the reconciler's work items.
func (r *PostgresAccountRepository) ListExpiredEnabled(ctx context.Context) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE is_enabled = TRUE AND paid_until IS NOT NULL AND paid_until < NOW()`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
