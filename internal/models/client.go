package models

// Client represents an x-ray client entry as the 3x-ui panel stores it
type Client struct {
	ID         string `json:"id"`
	Enable     bool   `json:"enable"`
	Flow       string `json:"flow,omitempty"`
	Email      string `json:"email"`
	TotalGB    int    `json:"totalGB"`
	LimitIP    int    `json:"limitIp"`
	ExpiryTime int64  `json:"expiryTime,omitempty"`
}

// ToDictionary converts the client to a map for API requests
func (c *Client) ToDictionary() map[string]interface{} {
	result := map[string]interface{}{
		"id":      c.ID,
		"enable":  c.Enable,
		"email":   c.Email,
		"totalGB": c.TotalGB,
		"limitIp": c.LimitIP,
	}

	if c.Flow != "" {
		result["flow"] = c.Flow
	}

	if c.ExpiryTime != 0 {
		result["expiryTime"] = c.ExpiryTime
	}

	return result
}
