package services

import (
	"context"

	"github.com/sirupsen/logrus"

	apperrors "flashvpn-bot/internal/errors"
	"flashvpn-bot/internal/models"
	"flashvpn-bot/internal/repository"
)

// PaymentService manages the deposit request lifecycle. Approval and
// rejection are idempotent: a request that already left the pending
// state yields apperrors.ErrAlreadyHandled and no balance change.
//
// Only a designated operator may approve or reject; that check belongs
// to the calling handler, not to this service.
type PaymentService struct {
	deposits repository.DepositRepository
	logger   *logrus.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(deposits repository.DepositRepository, logger *logrus.Logger) *PaymentService {
	return &PaymentService{
		deposits: deposits,
		logger:   logger,
	}
}

// CreateDeposit registers a pending deposit request for the account
func (s *PaymentService) CreateDeposit(ctx context.Context, accountID int64, amount float64) (*models.DepositRequest, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	dr, err := s.deposits.Create(ctx, accountID, amount)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Deposit request #%d created: account %d, amount %.2f", dr.ID, accountID, amount)
	return dr, nil
}

// Approve flips a pending request to approved and credits the amount to
// the account. The status guard and the credit run in one transaction,
// so repeated or concurrent approvals credit exactly once.
func (s *PaymentService) Approve(ctx context.Context, id int64) (*models.DepositRequest, error) {
	dr, err := s.deposits.Approve(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Deposit request #%d approved: account %d credited %.2f", dr.ID, dr.AccountID, dr.Amount)
	return dr, nil
}

// Reject flips a pending request to rejected with no ledger effect
func (s *PaymentService) Reject(ctx context.Context, id int64) (*models.DepositRequest, error) {
	dr, err := s.deposits.Reject(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Deposit request #%d rejected", dr.ID)
	return dr, nil
}
