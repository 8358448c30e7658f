package handlers

import (
	"github.com/sirupsen/logrus"

	"flashvpn-bot/internal/config"
	"flashvpn-bot/internal/permissions"
	"flashvpn-bot/internal/repository"
	"flashvpn-bot/internal/services"
)

// HandlerFactory creates message handlers
type HandlerFactory struct {
	base BaseHandler
}

// NewHandlerFactory creates a new handler factory
func NewHandlerFactory(
	accounts repository.AccountRepository,
	subscription *services.SubscriptionService,
	payments *services.PaymentService,
	stateService *services.UserStateService,
	qrService *services.QRService,
	cfg *config.Config,
	logger *logrus.Logger,
) *HandlerFactory {
	return &HandlerFactory{
		base: NewBaseHandler(accounts, subscription, payments, stateService, qrService, cfg, logger),
	}
}

// CreateHandler creates a message handler for the given access type
func (f *HandlerFactory) CreateHandler(accessType permissions.AccessType) MessageHandler {
	member := NewMemberHandler(f.base)

	switch accessType {
	case permissions.Admin:
		return NewAdminHandler(member)
	default:
		return member
	}
}
