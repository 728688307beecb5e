package yolink

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// tokenExpiryLead is how long before the recorded expiry a token is treated
// as already expired, so that a token that would lapse mid-request is never
// reused.
const tokenExpiryLead = 60 * time.Second

// ResolveToken returns a token that is valid right now, preferring in order:
// reuse of the configured token, the refresh-token grant, and finally a fresh
// client-credentials fetch. A refresh failure is logged and falls through to
// the fetch; a fetch failure is fatal. The input config is never mutated.
func (c *Client) ResolveToken(ctx context.Context, cfg Config) (*TokenResolution, error) {
	if cfg.AccessToken != "" && cfg.TokenExpiresAt > 0 {
		expiresAt := time.UnixMilli(cfg.TokenExpiresAt)
		if expiresAt.After(time.Now().Add(tokenExpiryLead)) {
			return &TokenResolution{
				AccessToken:   cfg.AccessToken,
				RefreshToken:  cfg.RefreshToken,
				ExpiresAt:     cfg.TokenExpiresAt,
				UpdatedConfig: cfg,
			}, nil
		}
		log.Debug().Int64("expires_at", cfg.TokenExpiresAt).Msg("Access token expired or expiring soon")
	}

	if cfg.RefreshToken != "" && cfg.ClientID != "" {
		tok, err := c.refreshAccessToken(ctx, cfg.RefreshToken, cfg.ClientID)
		if err == nil {
			return resolutionFromToken(cfg, tok), nil
		}
		// Never fatal by itself; a fresh fetch may still succeed.
		log.Warn().Err(err).Msg("Token refresh failed, falling back to a fresh token fetch")
	}

	// A fresh fetch depends only on the stable credentials; stale session
	// state never reaches the request.
	tok, err := c.fetchToken(ctx, cfg.ClientID, cfg.ClientSecret)
	if err != nil {
		return nil, err
	}
	return resolutionFromToken(cfg, tok), nil
}

// resolutionFromToken builds the updated config snapshot from a token
// endpoint payload. The access token, refresh token, and expiry are always
// replaced together.
func resolutionFromToken(cfg Config, tok *tokenResponse) *TokenResolution {
	expiresAt := time.Now().UnixMilli() + tok.ExpiresIn*1000

	updated := cfg
	updated.AccessToken = tok.AccessToken
	updated.RefreshToken = tok.RefreshToken
	updated.TokenExpiresAt = expiresAt
	// The scope always mirrors the latest grant; a grant without one clears
	// any scope carried over from a previous token.
	updated.Scope = append([]string(nil), tok.Scope...)

	return &TokenResolution{
		AccessToken:   tok.AccessToken,
		RefreshToken:  tok.RefreshToken,
		ExpiresAt:     expiresAt,
		UpdatedConfig: updated,
	}
}
