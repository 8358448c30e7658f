package helpers

import (
	"fmt"

	"flashvpn-bot/internal/config"
)

// BuildVlessLink assembles the connection URI handed to the user. The
// reality parameters come from static deployment configuration; the
// label ends up as the display name in the client app.
func BuildVlessLink(credentialID, label string, cfg config.VlessConfig) string {
	return fmt.Sprintf(
		"vless://%s@%s:%d"+
			"?security=reality&encryption=none"+
			"&pbk=%s"+
			"&fp=chrome&type=tcp"+
			"&flow=xtls-rprx-vision"+
			"&sni=%s&sid=%s"+
			"#%s",
		credentialID, cfg.ServerIP, cfg.Port,
		cfg.PublicKey,
		cfg.SNI, cfg.ShortID,
		label,
	)
}
