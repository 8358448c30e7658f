package repository

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "flashvpn-bot/internal/errors"
	"flashvpn-bot/internal/models"
)

// PostgresDepositRepository implements DepositRepository on PostgreSQL
type PostgresDepositRepository struct {
	db *sql.DB
}

// NewPostgresDepositRepository creates a new deposit repository
func NewPostgresDepositRepository(db *sql.DB) *PostgresDepositRepository {
	return &PostgresDepositRepository{db: db}
}

// Create inserts a new pending deposit request
func (r *PostgresDepositRepository) Create(ctx context.Context, accountID int64, amount float64) (*models.DepositRequest, error) {
	query := `INSERT INTO deposit_requests (user_id, amount, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, created_at`

	dr := &models.DepositRequest{
		AccountID: accountID,
		Amount:    amount,
		Status:    models.DepositPending,
	}
	if err := r.db.QueryRowContext(ctx, query, accountID, amount).Scan(&dr.ID, &dr.CreatedAt); err != nil {
		return nil, err
	}
	return dr, nil
}

// Get fetches a deposit request by id
func (r *PostgresDepositRepository) Get(ctx context.Context, id int64) (*models.DepositRequest, error) {
	query := `SELECT id, user_id, amount, status, created_at FROM deposit_requests WHERE id = $1`

	dr := &models.DepositRequest{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&dr.ID, &dr.AccountID, &dr.Amount, &dr.Status, &dr.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return dr, nil
}

// Approve flips a pending request to approved and credits the account
// balance, both inside one transaction. The status predicate in the
// UPDATE is the guard that keeps concurrent approvals from crediting
// twice: only the transaction that still sees 'pending' gets a row back.
func (r *PostgresDepositRepository) Approve(ctx context.Context, id int64) (*models.DepositRequest, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	dr, err := r.resolve(ctx, tx, id, models.DepositApproved)
	if err != nil {
		return nil, err
	}

	creditQuery := `UPDATE accounts SET balance = balance + $2 WHERE user_id = $1`
	if _, err := tx.ExecContext(ctx, creditQuery, dr.AccountID, dr.Amount); err != nil {
		return nil, fmt.Errorf("failed to credit balance for deposit %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return dr, nil
}

// Reject flips a pending request to rejected; the balance is untouched
func (r *PostgresDepositRepository) Reject(ctx context.Context, id int64) (*models.DepositRequest, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	dr, err := r.resolve(ctx, tx, id, models.DepositRejected)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return dr, nil
}

func (r *PostgresDepositRepository) resolve(ctx context.Context, tx *sql.Tx, id int64, status models.DepositStatus) (*models.DepositRequest, error) {
	query := `UPDATE deposit_requests SET status = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING id, user_id, amount, status, created_at`

	dr := &models.DepositRequest{}
	err := tx.QueryRowContext(ctx, query, id, status).Scan(&dr.ID, &dr.AccountID, &dr.Amount, &dr.Status, &dr.CreatedAt)
	if err == sql.ErrNoRows {
		// Either the id is unknown or the request was already resolved
		var exists bool
		if checkErr := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM deposit_requests WHERE id = $1)`, id).Scan(&exists); checkErr != nil {
			return nil, checkErr
		}
		if !exists {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.ErrAlreadyHandled
	}
	if err != nil {
		return nil, err
	}
	return dr, nil
}
