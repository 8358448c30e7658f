package services

import (
	"context"

	"flashvpn-bot/internal/models"
)

// Provisioner is the capability contract against the external VPN panel.
// Every method reports (true, nil) on success, (false, nil) when the
// panel answered but refused the operation, and (false, err) when the
// call failed at the transport level. Authenticate must precede the
// mutating calls within one logical operation; the panel expires
// sessions at will.
type Provisioner interface {
	Authenticate(ctx context.Context) (bool, error)
	CreateClient(ctx context.Context, inboundID int, client models.Client) (bool, error)
	SetClientState(ctx context.Context, inboundID int, credentialID string, enabled bool, expiryMs int64) (bool, error)
}
