package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"flashvpn-bot/internal/commands"
	"flashvpn-bot/internal/constants"
	apperrors "flashvpn-bot/internal/errors"
	"flashvpn-bot/internal/helpers"
	"flashvpn-bot/internal/models"
	"flashvpn-bot/internal/permissions"
	"flashvpn-bot/internal/services"
	"flashvpn-bot/internal/validation"
)

// MemberHandler handles updates from regular users
type MemberHandler struct {
	BaseHandler
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(base BaseHandler) *MemberHandler {
	return &MemberHandler{BaseHandler: base}
}

// CanHandle checks if the handler can handle the given access type
func (h *MemberHandler) CanHandle(accessType permissions.AccessType) bool {
	return accessType == permissions.Member
}

// Handle dispatches a member update
func (h *MemberHandler) Handle(ctx context.Context, c telebot.Context) error {
	if cb := c.Callback(); cb != nil {
		return h.handleCallback(ctx, c, strings.TrimPrefix(cb.Data, "\f"))
	}
	return h.handleText(ctx, c, strings.TrimSpace(c.Text()))
}

func (h *MemberHandler) handleCallback(ctx context.Context, c telebot.Context, data string) error {
	if err := c.Respond(); err != nil {
		h.logger.Debugf("Callback ack failed: %v", err)
	}

	switch data {
	case commands.CallbackMainMenu:
		return h.showMainMenu(ctx, c)
	case commands.CallbackProfile:
		return h.showProfile(ctx, c)
	case commands.CallbackConnect:
		return h.showConnectInstructions(c)
	case commands.CallbackSupport:
		return h.showSupport(c)
	case commands.CallbackTopUp:
		return h.promptTopUp(c)
	case commands.CallbackActivate:
		return h.handleActivate(ctx, c)
	case commands.CallbackPause:
		return h.handlePause(ctx, c)
	case commands.CallbackGetKey:
		return h.handleGetKey(ctx, c)
	default:
		h.logger.Debugf("Unknown callback %q from user %d", data, c.Sender().ID)
		return nil
	}
}

func (h *MemberHandler) handleText(ctx context.Context, c telebot.Context, text string) error {
	userID := c.Sender().ID

	switch {
	case text == commands.CmdStart || strings.HasPrefix(text, commands.CmdStart+" "):
		return h.handleStart(ctx, c)
	case strings.HasPrefix(text, commands.CmdDeposit):
		parts := strings.Fields(text)
		if len(parts) != 2 {
			return h.sendTextMessage(c, "Usage: /dep 150", nil)
		}
		return h.createDeposit(ctx, c, parts[1])
	}

	if h.stateService.GetState(userID).State == models.AwaitingTopUpAmount {
		h.stateService.ClearState(userID)
		return h.createDeposit(ctx, c, text)
	}

	return h.showMainMenu(ctx, c)
}

func (h *MemberHandler) handleStart(ctx context.Context, c telebot.Context) error {
	sender := c.Sender()
	if err := h.accounts.EnsureExists(ctx, sender.ID, sender.Username); err != nil {
		h.logger.Errorf("Failed to ensure account %d: %v", sender.ID, err)
		return h.sendTextMessage(c, "Something went wrong. Please try again later.", nil)
	}

	// A fresh menu message survives chat clears
	msg, err := c.Bot().Send(c.Recipient(), h.mainMenuText(sender.ID), &telebot.SendOptions{
		ParseMode:   telebot.ModeHTML,
		ReplyMarkup: h.mainMenuKeyboard(),
	})
	if err != nil {
		h.logger.Errorf("Failed to send main menu: %v", err)
		return err
	}
	if err := h.accounts.SetMenuMessage(ctx, sender.ID, msg.ID); err != nil {
		h.logger.Warnf("Failed to store menu message id for %d: %v", sender.ID, err)
	}
	return nil
}

func (h *MemberHandler) mainMenuText(userID int64) string {
	return strings.Join([]string{
		"⚡️ <b>FLASH VPN | PREMIUM NETWORK</b>",
		"──────────────────────",
		"",
		"🔒 <b>SECURE.</b> Full anonymity.",
		"🚀 <b>FAST.</b> Up to 1 Gbit/s.",
		"💎 <b>SMART.</b> YouTube 4K, Instagram.",
		"",
		"🏷 <b>TARIFF PLAN:</b>",
		fmt.Sprintf("%.0f RUB / 1 month", h.config.Pricing.MonthlyPrice),
		"",
		"──────────────────────",
		fmt.Sprintf("⚙️ <b>User ID:</b> <code>%d</code>", userID),
	}, "\n")
}

func (h *MemberHandler) showMainMenu(ctx context.Context, c telebot.Context) error {
	return h.editOrSend(c, h.mainMenuText(c.Sender().ID), h.mainMenuKeyboard())
}

func (h *MemberHandler) showProfile(ctx context.Context, c telebot.Context) error {
	sender := c.Sender()
	if err := h.accounts.EnsureExists(ctx, sender.ID, sender.Username); err != nil {
		h.logger.Errorf("Failed to ensure account %d: %v", sender.ID, err)
	}

	acc, err := h.accounts.Get(ctx, sender.ID)
	if err != nil {
		h.logger.Errorf("Failed to load account %d: %v", sender.ID, err)
		return h.editOrSend(c, "Something went wrong. Please try again later.", h.backKeyboard())
	}

	return h.editOrSend(c, h.profileText(acc), h.profileKeyboard(acc))
}

func (h *MemberHandler) showConnectInstructions(c telebot.Context) error {
	text := "📡 How to connect:\n" +
		"1. Install a client app (v2rayNG / Streisand / etc.)\n" +
		"2. Import the key from your profile.\n" +
		"3. Connect."
	return h.editOrSend(c, text, h.backKeyboard())
}

func (h *MemberHandler) showSupport(c telebot.Context) error {
	return h.editOrSend(c, "🆘 Support: @admin_username", h.backKeyboard())
}

func (h *MemberHandler) promptTopUp(c telebot.Context) error {
	h.stateService.SetState(c.Sender().ID, models.UserState{State: models.AwaitingTopUpAmount})
	return h.editOrSend(c, "Enter the amount (a number), e.g. 150\nOr use the command: /dep 150", h.backKeyboard())
}

// createDeposit registers a deposit request and notifies every operator
// with an approve/reject keyboard. Operator notification failures do not
// undo the created request.
func (h *MemberHandler) createDeposit(ctx context.Context, c telebot.Context, amountStr string) error {
	sender := c.Sender()

	amount, err := validation.ParseAmount(amountStr)
	if err != nil {
		return h.sendTextMessage(c, "Usage: /dep 150", nil)
	}

	if err := h.accounts.EnsureExists(ctx, sender.ID, sender.Username); err != nil {
		h.logger.Errorf("Failed to ensure account %d: %v", sender.ID, err)
		return h.sendTextMessage(c, "Something went wrong. Please try again later.", nil)
	}

	dr, err := h.payments.CreateDeposit(ctx, sender.ID, amount)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidAmount) {
			return h.sendTextMessage(c, "Amount must be positive.", nil)
		}
		h.logger.Errorf("Failed to create deposit for %d: %v", sender.ID, err)
		return h.sendTextMessage(c, "Something went wrong. Please try again later.", nil)
	}

	for _, adminID := range h.config.Telegram.AdminIDs {
		h.notifyUser(c, adminID,
			fmt.Sprintf("💳 Deposit #%d\nUser: <code>%d</code>\nAmount: %.2f", dr.ID, sender.ID, amount),
			h.depositKeyboard(dr.ID))
	}

	return h.sendTextMessage(c, "✅ Deposit request created. Waiting for approval.", h.backKeyboard())
}

func (h *MemberHandler) handleActivate(ctx context.Context, c telebot.Context) error {
	userID := c.Sender().ID
	price := &services.PriceTable{DailyRate: h.config.Pricing.DailyRate()}

	err := h.subscription.Activate(ctx, userID, constants.DaysInMonth, price)
	if err != nil {
		var insufficient *apperrors.InsufficientBalanceError
		var provisioning *apperrors.ProvisioningError
		switch {
		case errors.As(err, &insufficient):
			return h.editOrSend(c, fmt.Sprintf(
				"💳 Not enough balance: need <code>%.2f</code>, you have <code>%.2f</code>.\nTop up and try again.",
				insufficient.Required, insufficient.Available), h.backKeyboard())
		case errors.As(err, &provisioning):
			h.logger.Errorf("Activation provisioning failed for %d: %v", userID, err)
			return h.editOrSend(c,
				"⚠️ Activation partially failed — your paid time is saved, but the VPN key could not be issued. Please contact support.",
				h.backKeyboard())
		default:
			h.logger.Errorf("Activation failed for %d: %v", userID, err)
			return h.editOrSend(c, "Something went wrong. Please try again later.", h.backKeyboard())
		}
	}

	return h.showProfile(ctx, c)
}

func (h *MemberHandler) handlePause(ctx context.Context, c telebot.Context) error {
	userID := c.Sender().ID

	if err := h.subscription.Pause(ctx, userID); err != nil {
		var provisioning *apperrors.ProvisioningError
		if errors.As(err, &provisioning) {
			h.logger.Errorf("Pause provisioning failed for %d: %v", userID, err)
			return h.editOrSend(c, "⚠️ Could not pause right now, please try again later.", h.backKeyboard())
		}
		h.logger.Errorf("Pause failed for %d: %v", userID, err)
		return h.editOrSend(c, "Something went wrong. Please try again later.", h.backKeyboard())
	}

	return h.showProfile(ctx, c)
}

func (h *MemberHandler) handleGetKey(ctx context.Context, c telebot.Context) error {
	userID := c.Sender().ID

	ok, reason := h.subscription.CanUse(ctx, userID)
	if !ok {
		return h.editOrSend(c, h.eligibilityMessage(reason), h.backKeyboard())
	}

	acc, err := h.accounts.Get(ctx, userID)
	if err != nil {
		h.logger.Errorf("Failed to load account %d: %v", userID, err)
		return h.editOrSend(c, "Something went wrong. Please try again later.", h.backKeyboard())
	}
	if !acc.HasCredential() {
		return h.editOrSend(c, "No key has been issued yet. Activate your subscription first.", h.backKeyboard())
	}

	link := helpers.BuildVlessLink(acc.CredentialID, acc.CredentialLabel, h.config.Vless)
	if err := h.sendTextMessage(c, fmt.Sprintf("🔑 Your key:\n<code>%s</code>", link), h.backKeyboard()); err != nil {
		return err
	}
	return h.sendQRCode(c, link)
}

func (h *MemberHandler) eligibilityMessage(reason string) string {
	switch reason {
	case services.ReasonBanned:
		return "🚫 Your account is banned."
	case services.ReasonPaused:
		return "🟠 Subscription is paused. Activate it first."
	case services.ReasonNoUntil, services.ReasonExpired:
		return "⏳ Subscription has expired. Activate it to continue."
	default:
		return "Subscription is not active."
	}
}
