package xuiclient

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"flashvpn-bot/internal/config"
	"flashvpn-bot/internal/constants"
	"flashvpn-bot/internal/models"
)

// Client is a 3x-ui panel API client. Methods return (true, nil) when the
// panel accepted the operation, (false, nil) when the panel answered but
// declared it unsuccessful, and (false, err) on transport-level faults.
type Client struct {
	httpClient  *resty.Client
	panelConfig config.PanelConfig
	cookieCache *cache.Cache
	logger      *logrus.Logger
}

// apiResponse represents the envelope every panel endpoint returns
type apiResponse struct {
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Obj     json.RawMessage `json:"obj"`
}

// NewClient creates a new panel API client
func NewClient(panelConfig config.PanelConfig, logger *logrus.Logger) *Client {
	httpClient := resty.New().
		SetTimeout(constants.DefaultTimeout * time.Second).
		SetRetryCount(constants.DefaultRetryCount).
		SetRetryWaitTime(constants.DefaultRetryWaitTime * time.Second).
		SetRetryMaxWaitTime(constants.DefaultRetryMaxWaitTime * time.Second).
		SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})

	return &Client{
		httpClient:  httpClient,
		panelConfig: panelConfig,
		cookieCache: cache.New(constants.SessionCacheExpiration*time.Minute, constants.SessionCacheCleanupInterval*time.Minute),
		logger:      logger,
	}
}

// Authenticate establishes a session with the panel. A cached session is
// reused when present; expired sessions are detected on 401 by the
// individual calls, which drop the cache and re-login.
func (c *Client) Authenticate(ctx context.Context) (bool, error) {
	if _, found := c.cookieCache.Get("session"); found {
		return true, nil
	}

	c.logger.Infof("Logging in to panel at %s", c.panelConfig.APIURL)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"username": c.panelConfig.User,
			"password": c.panelConfig.Password,
		}).
		Post(fmt.Sprintf("%s/login", c.panelConfig.APIURL))

	if err != nil {
		c.logger.Errorf("Panel login request failed: %v", err)
		return false, fmt.Errorf("login request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		c.logger.Errorf("Panel login failed - status: %d, response: %s", resp.StatusCode(), string(resp.Body()))
		return false, nil
	}

	var apiResp apiResponse
	if err := json.Unmarshal(resp.Body(), &apiResp); err != nil {
		c.logger.Errorf("Failed to parse login response: %v, body: %s", err, string(resp.Body()))
		return false, nil
	}

	if !apiResp.Success {
		c.logger.Errorf("Panel login declined: %s", apiResp.Msg)
		return false, nil
	}

	cookies := resp.Cookies()
	if len(cookies) == 0 {
		c.logger.Error("Panel login returned no session cookie")
		return false, nil
	}

	c.cookieCache.Set("session", cookies, cache.DefaultExpiration)
	return true, nil
}

// CreateClient provisions a new client on the inbound. The direct
// addClient endpoint is tried first; some panel forks lack it, so on
// failure the full inbound client list is read, repaired and written
// back. The fallback is a read-modify-write and is racy against
// concurrent writers on the same inbound.
func (c *Client) CreateClient(ctx context.Context, inboundID int, client models.Client) (bool, error) {
	settingsJSON, err := json.Marshal(map[string]interface{}{
		"clients": []map[string]interface{}{client.ToDictionary()},
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal client settings: %w", err)
	}

	body := map[string]interface{}{
		"id":       inboundID,
		"settings": string(settingsJSON),
	}

	c.logger.Infof("Adding client %s to inbound %d", client.Email, inboundID)

	ok, err := c.postJSON(ctx, fmt.Sprintf("%s/panel/api/inbounds/addClient", c.panelConfig.APIURL), body, "addClient")
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	c.logger.Warnf("Direct addClient failed for inbound %d, falling back to get+update", inboundID)
	return c.appendClientViaUpdate(ctx, inboundID, client)
}

// SetClientState idempotently updates the enable flag and expiry of an
// existing client.
func (c *Client) SetClientState(ctx context.Context, inboundID int, credentialID string, enabled bool, expiryMs int64) (bool, error) {
	settingsJSON, err := json.Marshal(map[string]interface{}{
		"clients": []map[string]interface{}{
			{
				"id":         credentialID,
				"enable":     enabled,
				"expiryTime": expiryMs,
			},
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal client settings: %w", err)
	}

	body := map[string]interface{}{
		"id":       inboundID,
		"settings": string(settingsJSON),
	}

	c.logger.Debugf("Updating client %s on inbound %d: enabled=%v expiryMs=%d", credentialID, inboundID, enabled, expiryMs)

	url := fmt.Sprintf("%s/panel/api/inbounds/updateClient/%s", c.panelConfig.APIURL, credentialID)
	return c.postJSON(ctx, url, body, "updateClient")
}

// appendClientViaUpdate reads the inbound, backfills any client missing
// an email (the panel's store rejects writes with empty emails), appends
// the new client and writes the whole list back.
func (c *Client) appendClientViaUpdate(ctx context.Context, inboundID int, client models.Client) (bool, error) {
	inbound, err := c.getInbound(ctx, inboundID)
	if err != nil {
		return false, err
	}
	if inbound == nil {
		c.logger.Errorf("Cannot add client: inbound %d not readable", inboundID)
		return false, nil
	}

	var settings models.InboundSettings
	if inbound.Settings != "" {
		if err := json.Unmarshal([]byte(inbound.Settings), &settings); err != nil {
			c.logger.Errorf("Failed to parse settings for inbound %d: %v", inboundID, err)
			return false, nil
		}
	}

	for i := range settings.Clients {
		if settings.Clients[i].Email == "" {
			if settings.Clients[i].ID != "" && len(settings.Clients[i].ID) >= 8 {
				settings.Clients[i].Email = "client_" + settings.Clients[i].ID[:8]
			} else {
				settings.Clients[i].Email = "client_unknown"
			}
		}
	}
	settings.Clients = append(settings.Clients, client)

	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return false, fmt.Errorf("failed to marshal inbound settings: %w", err)
	}

	body := map[string]interface{}{
		"id":       inboundID,
		"settings": string(settingsJSON),
	}

	url := fmt.Sprintf("%s/panel/api/inbounds/update/%d", c.panelConfig.APIURL, inboundID)
	return c.postJSON(ctx, url, body, "updateInbound")
}

// getInbound fetches a single inbound by id
func (c *Client) getInbound(ctx context.Context, inboundID int) (*models.Inbound, error) {
	cookies, found := c.cookieCache.Get("session")
	if !found {
		c.logger.Error("getInbound called without an authenticated session")
		return nil, nil
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetCookies(cookies.([]*http.Cookie)).
		Get(fmt.Sprintf("%s/panel/api/inbounds/get/%d", c.panelConfig.APIURL, inboundID))

	if err != nil {
		c.logger.Errorf("Get inbound request failed: %v", err)
		return nil, fmt.Errorf("get inbound request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		if resp.StatusCode() == http.StatusUnauthorized {
			c.cookieCache.Delete("session")
			if ok, err := c.Authenticate(ctx); err != nil || !ok {
				return nil, err
			}
			return c.getInbound(ctx, inboundID)
		}
		c.logger.Errorf("Get inbound failed - status: %d, response: %s", resp.StatusCode(), string(resp.Body()))
		return nil, nil
	}

	var apiResp apiResponse
	if err := json.Unmarshal(resp.Body(), &apiResp); err != nil {
		c.logger.Errorf("Failed to parse inbound response: %v", err)
		return nil, nil
	}
	if !apiResp.Success {
		c.logger.Errorf("Get inbound declined: %s", apiResp.Msg)
		return nil, nil
	}

	var inbound models.Inbound
	if err := json.Unmarshal(apiResp.Obj, &inbound); err != nil {
		c.logger.Errorf("Failed to unmarshal inbound: %v", err)
		return nil, nil
	}
	return &inbound, nil
}

// postJSON posts a JSON body to a panel endpoint and interprets the
// standard response envelope. 401 drops the cached session, re-logins
// and retries once.
func (c *Client) postJSON(ctx context.Context, url string, body interface{}, op string) (bool, error) {
	cookies, found := c.cookieCache.Get("session")
	if !found {
		c.logger.Errorf("%s called without an authenticated session", op)
		return false, nil
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetCookies(cookies.([]*http.Cookie)).
		SetBody(body).
		Post(url)

	if err != nil {
		c.logger.Errorf("%s request failed: %v", op, err)
		return false, fmt.Errorf("%s request failed: %w", op, err)
	}

	if resp.StatusCode() != http.StatusOK {
		if resp.StatusCode() == http.StatusUnauthorized {
			c.cookieCache.Delete("session")
			if ok, err := c.Authenticate(ctx); err != nil || !ok {
				return false, err
			}
			return c.postJSON(ctx, url, body, op)
		}
		c.logger.Errorf("%s failed - status: %d, response: %s", op, resp.StatusCode(), string(resp.Body()))
		return false, nil
	}

	var apiResp apiResponse
	if err := json.Unmarshal(resp.Body(), &apiResp); err != nil {
		c.logger.Errorf("Failed to parse %s response: %v, body: %s", op, err, string(resp.Body()))
		return false, nil
	}

	if !apiResp.Success {
		c.logger.Errorf("%s declined by panel: %s", op, apiResp.Msg)
		return false, nil
	}

	return true, nil
}
