package yolink

import (
	"net/http"
	"time"
)

// Client talks to the YoLink open API for one or more connectors. It holds
// no token state of its own: every call re-derives token validity from the
// Config passed in, so two concurrent calls for the same connector may both
// refresh and the last persisted config wins. That race is accepted; do not
// add a shared cache or lock here.
type Client struct {
	TokenURL   string
	APIURL     string
	HTTPClient *http.Client

	// Limiter, when set, paces outbound API calls. It never changes how many
	// calls an operation makes.
	Limiter *RateLimiter

	// OnConfigUpdated is invoked whenever a call resolves a token that
	// differs from the config it was given. The client never persists
	// configs itself; the hook is the only persistence boundary.
	OnConfigUpdated func(connectorID string, cfg Config)
}

// NewClient returns a Client pointed at the production YoLink endpoints.
func NewClient() *Client {
	return &Client{
		TokenURL:   DefaultTokenURL,
		APIURL:     DefaultAPIURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) notifyConfigUpdated(connectorID string, old, updated Config) {
	if c.OnConfigUpdated == nil {
		return
	}
	if updated.AccessToken == old.AccessToken &&
		updated.RefreshToken == old.RefreshToken &&
		updated.TokenExpiresAt == old.TokenExpiresAt {
		return
	}
	c.OnConfigUpdated(connectorID, updated)
}
