package handlers

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"flashvpn-bot/internal/commands"
	"flashvpn-bot/internal/config"
	"flashvpn-bot/internal/constants"
	"flashvpn-bot/internal/models"
	"flashvpn-bot/internal/permissions"
	"flashvpn-bot/internal/repository"
	"flashvpn-bot/internal/services"
)

// MessageHandler defines the interface for handling Telegram updates
type MessageHandler interface {
	Handle(ctx context.Context, c telebot.Context) error
	CanHandle(accessType permissions.AccessType) bool
}

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	accounts     repository.AccountRepository
	subscription *services.SubscriptionService
	payments     *services.PaymentService
	stateService *services.UserStateService
	qrService    *services.QRService
	config       *config.Config
	logger       *logrus.Logger
}

// NewBaseHandler creates a new base handler
func NewBaseHandler(
	accounts repository.AccountRepository,
	subscription *services.SubscriptionService,
	payments *services.PaymentService,
	stateService *services.UserStateService,
	qrService *services.QRService,
	cfg *config.Config,
	logger *logrus.Logger,
) BaseHandler {
	return BaseHandler{
		accounts:     accounts,
		subscription: subscription,
		payments:     payments,
		stateService: stateService,
		qrService:    qrService,
		config:       cfg,
		logger:       logger,
	}
}

// CanHandle checks if the handler can handle the given access type
func (h *BaseHandler) CanHandle(accessType permissions.AccessType) bool {
	return false
}

// sendTextMessage sends a text message with optional markup
func (h *BaseHandler) sendTextMessage(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	opts := &telebot.SendOptions{
		ParseMode: telebot.ModeHTML,
	}
	if markup != nil {
		opts.ReplyMarkup = markup
	}

	_, err := c.Bot().Send(c.Recipient(), text, opts)
	if err != nil {
		h.logger.Errorf("Failed to send message: %v", err)
	}
	return err
}

// editOrSend edits the message a callback came from, falling back to a
// fresh message when the original was deleted or the chat was cleared.
func (h *BaseHandler) editOrSend(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	opts := &telebot.SendOptions{
		ParseMode: telebot.ModeHTML,
	}
	if markup != nil {
		opts.ReplyMarkup = markup
	}

	if c.Callback() != nil {
		if err := c.Edit(text, opts); err == nil {
			return nil
		}
	}
	return h.sendTextMessage(c, text, markup)
}

// sendQRCode sends a QR code image for the given payload
func (h *BaseHandler) sendQRCode(c telebot.Context, payload string) error {
	qrBytes, err := h.qrService.GenerateQR(payload)
	if err != nil {
		return err
	}

	photo := &telebot.Photo{File: telebot.FromReader(bytes.NewReader(qrBytes))}
	if _, err = c.Bot().Send(c.Recipient(), photo); err != nil {
		h.logger.Errorf("Failed to send QR code: %v", err)
	}
	return err
}

// mainMenuKeyboard builds the inline main menu
func (h *BaseHandler) mainMenuKeyboard() *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{
		InlineKeyboard: [][]telebot.InlineButton{
			{{Text: "👤 Profile", Data: commands.CallbackProfile}},
			{{Text: "🚀 VPN / Connect", Data: commands.CallbackConnect}},
			{{Text: "💳 Top up", Data: commands.CallbackTopUp}},
			{{Text: "🆘 Support", Data: commands.CallbackSupport}},
		},
	}
}

// profileKeyboard builds the profile actions keyboard
func (h *BaseHandler) profileKeyboard(acc *models.Account) *telebot.ReplyMarkup {
	var rows [][]telebot.InlineButton

	if !acc.Banned {
		if acc.Enabled {
			rows = append(rows, []telebot.InlineButton{{Text: "⏸ Pause", Data: commands.CallbackPause}})
		} else {
			rows = append(rows, []telebot.InlineButton{{Text: "▶️ Activate", Data: commands.CallbackActivate}})
		}
	}
	rows = append(rows,
		[]telebot.InlineButton{{Text: "🔑 Get key", Data: commands.CallbackGetKey}},
		[]telebot.InlineButton{{Text: "🔙 Back", Data: commands.CallbackMainMenu}},
	)

	return &telebot.ReplyMarkup{InlineKeyboard: rows}
}

// backKeyboard builds a keyboard with a single back button
func (h *BaseHandler) backKeyboard() *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{
		InlineKeyboard: [][]telebot.InlineButton{
			{{Text: "🔙 Back", Data: commands.CallbackMainMenu}},
		},
	}
}

// depositKeyboard builds the operator approve/reject keyboard
func (h *BaseHandler) depositKeyboard(depositID int64) *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{
		InlineKeyboard: [][]telebot.InlineButton{
			{
				{Text: "✅ Approve", Data: fmt.Sprintf("%s%d", commands.CallbackDepositApprovePrefix, depositID)},
				{Text: "❌ Reject", Data: fmt.Sprintf("%s%d", commands.CallbackDepositRejectPrefix, depositID)},
			},
		},
	}
}

// profileText renders the profile view for an account
func (h *BaseHandler) profileText(acc *models.Account) string {
	status := "🟠 PAUSED"
	if acc.Banned {
		status = "🚫 BANNED"
	} else if acc.Enabled {
		status = "🟢 ACTIVE"
	}

	until := "-"
	if acc.PaidUntil != nil {
		until = acc.PaidUntil.Format(constants.TimestampFormat)
	}

	return fmt.Sprintf(
		"👤 ID: <code>%d</code>\n"+
			"💳 Balance: <code>%.2f</code>\n"+
			"📌 Status: %s\n"+
			"⏳ Days left: <code>%d</code>\n"+
			"🗓 Until: <code>%s</code>",
		acc.ID, acc.Balance, status, acc.DaysLeft(time.Now()), until,
	)
}

// notifyUser delivers a message to a user by id. Delivery failures are
// logged and swallowed; they must never abort a committed transition.
func (h *BaseHandler) notifyUser(c telebot.Context, userID int64, text string, markup *telebot.ReplyMarkup) {
	opts := &telebot.SendOptions{
		ParseMode: telebot.ModeHTML,
	}
	if markup != nil {
		opts.ReplyMarkup = markup
	}

	if _, err := c.Bot().Send(&telebot.User{ID: userID}, text, opts); err != nil {
		h.logger.Warnf("Failed to notify user %d: %v", userID, err)
	}
}
