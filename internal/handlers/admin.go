package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"flashvpn-bot/internal/commands"
	apperrors "flashvpn-bot/internal/errors"
	"flashvpn-bot/internal/permissions"
	"flashvpn-bot/internal/validation"
)

// AdminHandler handles updates from operators. Everything a member can
// do still works; deposit resolution, bans and free grants come on top.
type AdminHandler struct {
	*MemberHandler
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(member *MemberHandler) *AdminHandler {
	return &AdminHandler{MemberHandler: member}
}

// CanHandle checks if the handler can handle the given access type
func (h *AdminHandler) CanHandle(accessType permissions.AccessType) bool {
	return accessType == permissions.Admin
}

// Handle dispatches an admin update
func (h *AdminHandler) Handle(ctx context.Context, c telebot.Context) error {
	if cb := c.Callback(); cb != nil {
		data := strings.TrimPrefix(cb.Data, "\f")
		switch {
		case strings.HasPrefix(data, commands.CallbackDepositApprovePrefix):
			return h.handleDepositDecision(ctx, c, strings.TrimPrefix(data, commands.CallbackDepositApprovePrefix), true)
		case strings.HasPrefix(data, commands.CallbackDepositRejectPrefix):
			return h.handleDepositDecision(ctx, c, strings.TrimPrefix(data, commands.CallbackDepositRejectPrefix), false)
		}
		return h.MemberHandler.Handle(ctx, c)
	}

	text := strings.TrimSpace(c.Text())
	switch {
	case strings.HasPrefix(text, commands.CmdBan+" "):
		return h.handleSetBan(ctx, c, strings.TrimPrefix(text, commands.CmdBan+" "), true)
	case strings.HasPrefix(text, commands.CmdUnban+" "):
		return h.handleSetBan(ctx, c, strings.TrimPrefix(text, commands.CmdUnban+" "), false)
	case strings.HasPrefix(text, commands.CmdGrant+" "):
		return h.handleGrant(ctx, c, strings.TrimPrefix(text, commands.CmdGrant+" "))
	}

	return h.MemberHandler.Handle(ctx, c)
}

// handleDepositDecision resolves a deposit request. The underlying
// transition is exactly-once; a second click lands on ErrAlreadyHandled
// and only updates the operator's message.
func (h *AdminHandler) handleDepositDecision(ctx context.Context, c telebot.Context, idStr string, approve bool) error {
	if err := c.Respond(); err != nil {
		h.logger.Debugf("Callback ack failed: %v", err)
	}

	depositID, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
	if err != nil {
		h.logger.Warnf("Malformed deposit callback id %q", idStr)
		return nil
	}

	if approve {
		dr, err := h.payments.Approve(ctx, depositID)
		if err != nil {
			return h.depositDecisionError(c, depositID, err)
		}
		h.editDecisionMessage(c, "✅ Approved")
		h.notifyUser(c, dr.AccountID, fmt.Sprintf("✅ Payment of %.2f accepted", dr.Amount), nil)
		return nil
	}

	dr, err := h.payments.Reject(ctx, depositID)
	if err != nil {
		return h.depositDecisionError(c, depositID, err)
	}
	h.editDecisionMessage(c, "❌ Rejected")
	h.notifyUser(c, dr.AccountID, "❌ Payment declined", nil)
	return nil
}

func (h *AdminHandler) depositDecisionError(c telebot.Context, depositID int64, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrAlreadyHandled):
		h.editDecisionMessage(c, "⚠️ Already handled")
		return nil
	case errors.Is(err, apperrors.ErrNotFound):
		h.editDecisionMessage(c, "⚠️ Unknown request")
		return nil
	default:
		h.logger.Errorf("Failed to resolve deposit #%d: %v", depositID, err)
		h.editDecisionMessage(c, "⚠️ Failed, try again")
		return nil
	}
}

// editDecisionMessage replaces the approve/reject keyboard message; the
// transition is already committed, so edit failures are only logged.
func (h *AdminHandler) editDecisionMessage(c telebot.Context, text string) {
	if err := c.Edit(text); err != nil {
		h.logger.Warnf("Failed to edit decision message: %v", err)
	}
}

func (h *AdminHandler) handleSetBan(ctx context.Context, c telebot.Context, idStr string, banned bool) error {
	userID, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
	if err != nil {
		return h.sendTextMessage(c, "Usage: /ban <user_id>", nil)
	}

	if err := h.accounts.SetBanned(ctx, userID, banned); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return h.sendTextMessage(c, "Unknown user.", nil)
		}
		h.logger.Errorf("Failed to set ban=%v for %d: %v", banned, userID, err)
		return h.sendTextMessage(c, "Failed, try again.", nil)
	}

	if banned {
		return h.sendTextMessage(c, fmt.Sprintf("🚫 User <code>%d</code> banned", userID), nil)
	}
	return h.sendTextMessage(c, fmt.Sprintf("🟢 User <code>%d</code> unbanned", userID), nil)
}

// handleGrant gives a user subscription days without charging balance
func (h *AdminHandler) handleGrant(ctx context.Context, c telebot.Context, args string) error {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return h.sendTextMessage(c, "Usage: /grant <user_id> <days>", nil)
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return h.sendTextMessage(c, "Usage: /grant <user_id> <days>", nil)
	}
	days, err := validation.ParseDays(parts[1])
	if err != nil {
		return h.sendTextMessage(c, err.Error(), nil)
	}

	if err := h.subscription.Activate(ctx, userID, days, nil); err != nil {
		var provisioning *apperrors.ProvisioningError
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return h.sendTextMessage(c, "Unknown user.", nil)
		case errors.As(err, &provisioning):
			h.logger.Errorf("Grant provisioning failed for %d: %v", userID, err)
			return h.sendTextMessage(c, "⚠️ Time granted locally, but provisioning failed. Retry with another grant or activation.", nil)
		default:
			h.logger.Errorf("Grant failed for %d: %v", userID, err)
			return h.sendTextMessage(c, "Failed, try again.", nil)
		}
	}

	h.notifyUser(c, userID, fmt.Sprintf("🎁 You have been granted %d days of VPN access", days), nil)
	return h.sendTextMessage(c, fmt.Sprintf("✅ Granted %d days to <code>%d</code>", days, userID), nil)
}
