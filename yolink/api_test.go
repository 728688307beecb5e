package yolink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallAPI_SuccessReturnsDataPayload(t *testing.T) {
	p := newFakePlatform(t)
	p.apiHandler = func(attempt int, req APIRequest) (int, apiEnvelope) {
		return 200, apiEnvelope{Code: codeSuccess, Data: successData(t, map[string]string{"id": "home-42"})}
	}
	c := p.client()

	data, err := c.CallAPI(context.Background(), "conn-1", validConfig(), APIRequest{Method: "Home.getGeneralInfo"}, "getHomeInfo")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"home-42"}`, string(data))

	tokenCalls, apiCalls := p.counts()
	assert.Equal(t, 1, tokenCalls, "no configured token, so one fetch")
	assert.Equal(t, 1, apiCalls)
}

func TestCallAPI_OneShotRetryOnTokenRejection(t *testing.T) {
	p := newFakePlatform(t)
	p.apiHandler = func(attempt int, req APIRequest) (int, apiEnvelope) {
		if attempt == 1 {
			return 200, apiEnvelope{Code: codeTokenInvalid}
		}
		return 200, apiEnvelope{Code: codeSuccess, Data: successData(t, map[string]bool{"ok": true})}
	}
	c := p.client()

	cfg := validConfig()
	cfg.AccessToken = "rejected-by-platform"
	cfg.RefreshToken = "refresh-old"
	cfg.TokenExpiresAt = time.Now().Add(1 * time.Hour).UnixMilli()

	data, err := c.CallAPI(context.Background(), "conn-1", cfg, APIRequest{Method: "Home.getDeviceList"}, "getDeviceList")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))

	tokenCalls, apiCalls := p.counts()
	assert.Equal(t, 2, apiCalls, "exactly one retried API call")
	assert.Equal(t, 1, tokenCalls, "the retry forces one token refresh")
	assert.Equal(t, []string{"refresh_token"}, p.grantTypes)
}

func TestCallAPI_SecondTokenRejectionIsFatal(t *testing.T) {
	p := newFakePlatform(t)
	p.apiHandler = func(attempt int, req APIRequest) (int, apiEnvelope) {
		// The platform persistently rejects every token.
		return 200, apiEnvelope{Code: codeTokenExpired}
	}
	c := p.client()

	cfg := validConfig()
	cfg.AccessToken = "doomed"
	cfg.RefreshToken = "doomed-refresh"
	cfg.TokenExpiresAt = time.Now().Add(1 * time.Hour).UnixMilli()

	_, err := c.CallAPI(context.Background(), "conn-1", cfg, APIRequest{Method: "Home.getDeviceList"}, "getDeviceList")
	require.Error(t, err)

	var opErr *RemoteOperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, codeTokenExpired, opErr.Code)
	assert.Equal(t, "getDeviceList", opErr.Operation)
	assert.Equal(t, "conn-1", opErr.ConnectorID)

	_, apiCalls := p.counts()
	assert.Equal(t, 2, apiCalls, "at most one retry, never a loop")
}

func TestCallAPI_NonTokenErrorNeverRetries(t *testing.T) {
	p := newFakePlatform(t)
	p.apiHandler = func(attempt int, req APIRequest) (int, apiEnvelope) {
		return 200, apiEnvelope{Code: "000201", Desc: "device unreachable"}
	}
	c := p.client()

	_, err := c.CallAPI(context.Background(), "conn-1", validConfig(), APIRequest{Method: "Outlet.getState"}, "getDeviceState")
	require.Error(t, err)

	var opErr *RemoteOperationError
	require.ErrorAs(t, err, &opErr)
	assert.Contains(t, opErr.Message, "Cannot connect to the device")

	_, apiCalls := p.counts()
	assert.Equal(t, 1, apiCalls)
}

func TestCallAPI_HTTPSuccessAloneIsNotEnough(t *testing.T) {
	p := newFakePlatform(t)
	p.apiHandler = func(attempt int, req APIRequest) (int, apiEnvelope) {
		return 500, apiEnvelope{Code: codeSuccess}
	}
	c := p.client()

	_, err := c.CallAPI(context.Background(), "conn-1", validConfig(), APIRequest{Method: "Home.getGeneralInfo"}, "getHomeInfo")
	require.Error(t, err, "protocol success with HTTP failure is still a failure")
}

func TestCallAPI_TokenResolutionFailurePropagates(t *testing.T) {
	p := newFakePlatform(t)
	p.failFetch = true
	c := p.client()

	_, err := c.CallAPI(context.Background(), "conn-1", validConfig(), APIRequest{Method: "Home.getGeneralInfo"}, "getHomeInfo")
	require.Error(t, err)

	_, apiCalls := p.counts()
	assert.Zero(t, apiCalls, "the API endpoint must not be reached without a token")
}

func TestCallAPI_FiresOnConfigUpdatedHook(t *testing.T) {
	p := newFakePlatform(t)
	c := p.client()

	var gotConnector string
	var gotConfigs []Config
	c.OnConfigUpdated = func(connectorID string, cfg Config) {
		gotConnector = connectorID
		gotConfigs = append(gotConfigs, cfg)
	}

	_, err := c.CallAPI(context.Background(), "conn-9", validConfig(), APIRequest{Method: "Home.getGeneralInfo"}, "getHomeInfo")
	require.NoError(t, err)

	require.Len(t, gotConfigs, 1)
	assert.Equal(t, "conn-9", gotConnector)
	assert.NotEmpty(t, gotConfigs[0].AccessToken)
	assert.NotEmpty(t, gotConfigs[0].RefreshToken)
	assert.Positive(t, gotConfigs[0].TokenExpiresAt)
}

func TestCallAPI_HookNotFiredOnReuse(t *testing.T) {
	p := newFakePlatform(t)
	c := p.client()

	fired := false
	c.OnConfigUpdated = func(string, Config) { fired = true }

	cfg := validConfig()
	cfg.AccessToken = "fresh"
	cfg.RefreshToken = "fresh-refresh"
	cfg.TokenExpiresAt = time.Now().Add(1 * time.Hour).UnixMilli()

	_, err := c.CallAPI(context.Background(), "conn-1", cfg, APIRequest{Method: "Home.getGeneralInfo"}, "getHomeInfo")
	require.NoError(t, err)
	assert.False(t, fired, "an unchanged config needs no persistence")
}

func TestCallAPI_SelfContainedWithoutPersistence(t *testing.T) {
	// No OnConfigUpdated hook at all: each call must still work on its own.
	p := newFakePlatform(t)
	c := p.client()

	for i := 0; i < 2; i++ {
		_, err := c.CallAPI(context.Background(), "conn-1", validConfig(), APIRequest{Method: "Home.getGeneralInfo"}, "getHomeInfo")
		require.NoError(t, err)
	}

	tokenCalls, apiCalls := p.counts()
	assert.Equal(t, 2, apiCalls)
	assert.Equal(t, 2, tokenCalls, "without persisted configs each call re-fetches; that is the documented cost")
}
