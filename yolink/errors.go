package yolink

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a required static field (client credentials,
// device id/token, device type) that is missing or unsupported. It is always
// raised before any network call and is never retried.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// AuthError reports that the token endpoint rejected a request or returned a
// semantically invalid success body.
type AuthError struct {
	Message string
	Err     error // optional underlying error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

// RefreshError wraps any failure of the refresh-token grant. The lifecycle
// manager treats it as "refresh path exhausted" and falls back to a fresh
// fetch instead of failing the operation.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string { return fmt.Sprintf("token refresh failed: %v", e.Err) }
func (e *RefreshError) Unwrap() error { return e.Err }

// TransportError reports a network-level failure at an HTTP call site.
type TransportError struct {
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Err)
}
func (e *TransportError) Unwrap() error { return e.Err }

// RemoteOperationError reports a non-success code in the API response
// envelope.
type RemoteOperationError struct {
	Operation   string
	ConnectorID string
	Code        string
	Message     string
}

func (e *RemoteOperationError) Error() string {
	return fmt.Sprintf("YoLink operation %s failed for connector %s: %s", e.Operation, e.ConnectorID, e.Message)
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// Platform error codes with dedicated handling.
const (
	codeSuccess      = "000000"
	codeTokenInvalid = "010103"
	codeTokenExpired = "010104"
)

// isTokenRejection reports whether code is one of the two codes the platform
// uses to reject a bearer token. Only these trigger the reactive retry.
func isTokenRejection(code string) bool {
	return code == codeTokenInvalid || code == codeTokenExpired
}

// apiErrorMessages maps known YoLink error codes to actionable messages.
var apiErrorMessages = map[string]string{
	"010101":         "Authentication is invalid. Check the connector's client ID and secret.",
	"010102":         "Authorization is invalid. Re-authorize the connector.",
	codeTokenInvalid: "The access token is invalid. A new token will be requested.",
	codeTokenExpired: "The access token has expired. A new token will be requested.",
	"010200":         "The request was malformed or contained invalid parameters.",
	"010301":         "Rate limited by the YoLink API. Slow down and try again later.",
	"000101":         "Cannot connect to the YoLink hub. Check that the hub is online.",
	"000201":         "Cannot connect to the device. It may be offline.",
	"000203":         "The device is busy. Try the operation again shortly.",
	"020104":         "The device was not found or is not bound to this account.",
}

// classifyAPIError maps a decoded error body plus the HTTP status to a single
// human-readable message. The body shape is untrusted: code and msg/desc are
// extracted only if present and of the right type. Pure; never fails.
func classifyAPIError(body map[string]any, status int) string {
	code, _ := body["code"].(string)
	msg, _ := body["msg"].(string)
	if msg == "" {
		msg, _ = body["desc"].(string)
	}

	if code != "" {
		if known, ok := apiErrorMessages[code]; ok {
			return known
		}
		if msg != "" {
			return fmt.Sprintf("%s (code %s)", msg, code)
		}
		return fmt.Sprintf("YoLink API error code %s", code)
	}
	if msg != "" {
		return msg
	}
	return fmt.Sprintf("YoLink API request failed (status %d)", status)
}
