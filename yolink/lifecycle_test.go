package yolink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}
}

func TestResolveToken_ReusesValidToken(t *testing.T) {
	p := newFakePlatform(t)
	c := p.client()

	cfg := validConfig()
	cfg.AccessToken = "still-good"
	cfg.RefreshToken = "still-good-refresh"
	cfg.TokenExpiresAt = time.Now().Add(1 * time.Hour).UnixMilli()

	res, err := c.ResolveToken(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "still-good", res.AccessToken)
	assert.Equal(t, cfg, res.UpdatedConfig, "reuse must not touch the config")

	tokenCalls, apiCalls := p.counts()
	assert.Zero(t, tokenCalls, "reuse path must make zero HTTP calls")
	assert.Zero(t, apiCalls)
}

func TestResolveToken_ExpiringSoonIsNotReused(t *testing.T) {
	p := newFakePlatform(t)
	c := p.client()

	cfg := validConfig()
	cfg.AccessToken = "expiring"
	cfg.RefreshToken = "refresh-old"
	// Nominally still in the future, but inside the expiry lead window.
	cfg.TokenExpiresAt = time.Now().Add(30 * time.Second).UnixMilli()

	res, err := c.ResolveToken(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEqual(t, "expiring", res.AccessToken)

	tokenCalls, _ := p.counts()
	assert.Equal(t, 1, tokenCalls)
	assert.Equal(t, []string{"refresh_token"}, p.grantTypes, "refresh should be preferred over a fresh fetch")
}

func TestResolveToken_RefreshFailureFallsBackToFetch(t *testing.T) {
	p := newFakePlatform(t)
	p.failRefresh = true
	c := p.client()

	cfg := validConfig()
	cfg.RefreshToken = "dead-refresh"

	res, err := c.ResolveToken(context.Background(), cfg)
	require.NoError(t, err, "refresh failure is never fatal while a fetch can still succeed")
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, []string{"refresh_token", "client_credentials"}, p.grantTypes)
}

func TestResolveToken_FetchFailureIsFatal(t *testing.T) {
	p := newFakePlatform(t)
	p.failRefresh = true
	p.failFetch = true
	c := p.client()

	cfg := validConfig()
	cfg.RefreshToken = "dead-refresh"

	_, err := c.ResolveToken(context.Background(), cfg)
	require.Error(t, err)
	var authErr *AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestResolveToken_MissingEverythingFailsWithoutNetwork(t *testing.T) {
	p := newFakePlatform(t)
	c := p.client()

	_, err := c.ResolveToken(context.Background(), Config{})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))

	tokenCalls, _ := p.counts()
	assert.Zero(t, tokenCalls)
}

func TestResolutionFromToken_ScopeMirrorsLatestGrant(t *testing.T) {
	cfg := validConfig()
	cfg.Scope = []string{"create"}

	tok := &tokenResponse{
		AccessToken:  "access-new",
		RefreshToken: "refresh-new",
		ExpiresIn:    7200,
	}
	res := resolutionFromToken(cfg, tok)
	assert.Empty(t, res.UpdatedConfig.Scope, "a grant without a scope clears the carried-over scope")

	tok.Scope = []string{"create", "manage"}
	res = resolutionFromToken(cfg, tok)
	assert.Equal(t, []string{"create", "manage"}, res.UpdatedConfig.Scope)
}

func TestResolveToken_TokenTripletReplacedAtomically(t *testing.T) {
	p := newFakePlatform(t)
	c := p.client()

	cfg := validConfig()
	cfg.AccessToken = "old-access"
	cfg.RefreshToken = "old-refresh"
	cfg.TokenExpiresAt = time.Now().Add(-1 * time.Hour).UnixMilli()
	cfg.HomeID = "home-1"

	before := time.Now().UnixMilli()
	res, err := c.ResolveToken(context.Background(), cfg)
	require.NoError(t, err)

	updated := res.UpdatedConfig
	assert.NotEqual(t, cfg.AccessToken, updated.AccessToken)
	assert.NotEqual(t, cfg.RefreshToken, updated.RefreshToken)
	assert.Greater(t, updated.TokenExpiresAt, before+7000*1000, "expiry should be roughly now + expires_in")
	assert.Equal(t, updated.AccessToken, res.AccessToken)
	assert.Equal(t, updated.RefreshToken, res.RefreshToken)
	assert.Equal(t, updated.TokenExpiresAt, res.ExpiresAt)

	// Stable fields survive the replacement.
	assert.Equal(t, "home-1", updated.HomeID)
	assert.Equal(t, cfg.ClientID, updated.ClientID)
	assert.Equal(t, cfg.ClientSecret, updated.ClientSecret)

	// And the caller's config was never mutated.
	assert.Equal(t, "old-access", cfg.AccessToken)
	assert.Equal(t, "old-refresh", cfg.RefreshToken)
}
