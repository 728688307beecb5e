package yolink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// tokenResponse is the token endpoint's success payload. expires_in is kept
// as issued (seconds); conversion to an absolute expiry happens in the
// lifecycle manager.
type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	RefreshToken string   `json:"refresh_token"`
	Scope        []string `json:"scope"`
}

// fetchToken exchanges client credentials for a fresh token pair. Exactly one
// network call, no retries.
func (c *Client) fetchToken(ctx context.Context, clientID, clientSecret string) (*tokenResponse, error) {
	if clientID == "" || clientSecret == "" {
		return nil, &ConfigurationError{Message: "client ID and client secret are required to fetch a token"}
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}
	log.Debug().Str("client_id", clientID).Msg("Requesting new YoLink token (client_credentials)")
	return c.postTokenForm(ctx, "token fetch", form)
}

// refreshAccessToken exchanges a refresh token for a renewed token pair. The
// platform rotates the refresh token on every call; callers must discard the
// old one after success. Any failure is wrapped in a RefreshError so the
// lifecycle manager can fall back to a fresh fetch.
func (c *Client) refreshAccessToken(ctx context.Context, refreshToken, clientID string) (*tokenResponse, error) {
	if refreshToken == "" || clientID == "" {
		return nil, &RefreshError{Err: &ConfigurationError{Message: "refresh token and client ID are required to refresh a token"}}
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {clientID},
		"refresh_token": {refreshToken},
	}
	log.Debug().Str("client_id", clientID).Msg("Refreshing YoLink token (refresh_token)")
	tok, err := c.postTokenForm(ctx, "token refresh", form)
	if err != nil {
		return nil, &RefreshError{Err: err}
	}
	return tok, nil
}

// postTokenForm performs one form-encoded POST against the token endpoint and
// validates the response body field by field. The platform can return HTTP
// 200 with a semantically invalid body, so a decoded struct is never trusted
// without the checks below.
func (c *Client) postTokenForm(ctx context.Context, operation string, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		log.Error().Err(err).Str("url", c.TokenURL).Msgf("HTTP request failed during %s", operation)
		return nil, &TransportError{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Operation: operation, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody map[string]any
		_ = json.Unmarshal(body, &errBody)
		msg := classifyAPIError(errBody, resp.StatusCode)
		log.Error().Int("status", resp.StatusCode).Str("message", msg).Msgf("Token endpoint rejected %s", operation)
		return nil, &AuthError{Message: msg}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, &AuthError{Message: fmt.Sprintf("malformed token response during %s", operation), Err: err}
	}
	if tok.AccessToken == "" || tok.RefreshToken == "" || tok.ExpiresIn <= 0 {
		return nil, &AuthError{Message: fmt.Sprintf("malformed token response during %s: missing access_token, refresh_token, or expires_in", operation)}
	}
	return &tok, nil
}
