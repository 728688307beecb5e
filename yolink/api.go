package yolink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// apiEnvelope is the BUDP response wrapper. HTTP success does not imply
// protocol success; only code "000000" does.
type apiEnvelope struct {
	Code string          `json:"code"`
	Desc string          `json:"desc,omitempty"`
	Msg  string          `json:"msg,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// CallAPI performs one authenticated remote procedure call for a connector.
// It resolves a token first (which may itself refresh or re-fetch), fires
// OnConfigUpdated when the resolved config changed, and retries the call
// exactly once if the platform rejects the token on the first attempt. On
// success it returns only the envelope's data payload.
func (c *Client) CallAPI(ctx context.Context, connectorID string, cfg Config, request APIRequest, operation string) (json.RawMessage, error) {
	return c.callAPI(ctx, connectorID, cfg, request, operation, false)
}

// callAPI carries the isRetry flag through the recursive retry. The flag is
// the only loop-prevention mechanism: the retry branch is gated on !isRetry
// and the recursive call always sets it, so a token rejection during the
// retry is a hard failure.
func (c *Client) callAPI(ctx context.Context, connectorID string, cfg Config, request APIRequest, operation string, isRetry bool) (json.RawMessage, error) {
	res, err := c.ResolveToken(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.notifyConfigUpdated(connectorID, cfg, res.UpdatedConfig)

	if c.Limiter != nil {
		c.Limiter.Wait()
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", operation, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+res.AccessToken)

	log.Debug().Str("operation", operation).Str("connector_id", connectorID).Str("method", request.Method).Bool("retry", isRetry).Msg("Calling YoLink API")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		log.Error().Err(err).Str("operation", operation).Str("connector_id", connectorID).Msg("YoLink API request failed")
		return nil, &TransportError{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Operation: operation, Err: err}
	}

	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &RemoteOperationError{
			Operation:   operation,
			ConnectorID: connectorID,
			Message:     fmt.Sprintf("unparseable YoLink API response (status %d)", resp.StatusCode),
		}
	}

	httpOK := resp.StatusCode >= 200 && resp.StatusCode < 300
	if httpOK && env.Code == codeSuccess {
		return env.Data, nil
	}

	if !isRetry && isTokenRejection(env.Code) {
		// Force the recursive resolution past the reuse branch.
		retryCfg := res.UpdatedConfig
		retryCfg.AccessToken = ""
		retryCfg.TokenExpiresAt = 0
		log.Warn().Str("operation", operation).Str("connector_id", connectorID).Str("code", env.Code).Msg("Token rejected by YoLink API, retrying once with a forced refresh")
		return c.callAPI(ctx, connectorID, retryCfg, request, operation, true)
	}

	var errBody map[string]any
	_ = json.Unmarshal(body, &errBody)
	return nil, &RemoteOperationError{
		Operation:   operation,
		ConnectorID: connectorID,
		Code:        env.Code,
		Message:     classifyAPIError(errBody, resp.StatusCode),
	}
}
