package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"flashvpn-bot/internal/repository"
)

// LedgerService owns balance mutations for accounts. It performs no
// sufficiency checks itself; callers pre-check before spending.
type LedgerService struct {
	accounts repository.AccountRepository
	logger   *logrus.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(accounts repository.AccountRepository, logger *logrus.Logger) *LedgerService {
	return &LedgerService{
		accounts: accounts,
		logger:   logger,
	}
}

// AddBalance atomically adjusts an account balance by delta. Negative
// deltas spend; the underlying update is a single statement, so
// concurrent adjustments never lose increments.
func (s *LedgerService) AddBalance(ctx context.Context, accountID int64, delta float64) error {
	if err := s.accounts.AddBalance(ctx, accountID, delta); err != nil {
		return err
	}
	s.logger.Infof("Balance of account %d adjusted by %.2f", accountID, delta)
	return nil
}
