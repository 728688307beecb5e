package yolink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// GetHomeInfo returns the home identifier for the account behind cfg.
func (c *Client) GetHomeInfo(ctx context.Context, connectorID string, cfg Config) (string, error) {
	data, err := c.CallAPI(ctx, connectorID, cfg, APIRequest{Method: "Home.getGeneralInfo"}, "getHomeInfo")
	if err != nil {
		return "", err
	}

	var home struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &home); err != nil {
		return "", fmt.Errorf("failed to parse home info response: %w", err)
	}
	if home.ID == "" {
		return "", fmt.Errorf("home info response did not include a home id")
	}
	return home.ID, nil
}

// GetDeviceList returns every device bound to the account behind cfg.
func (c *Client) GetDeviceList(ctx context.Context, connectorID string, cfg Config) ([]RawDevice, error) {
	data, err := c.CallAPI(ctx, connectorID, cfg, APIRequest{Method: "Home.getDeviceList"}, "getDeviceList")
	if err != nil {
		return nil, err
	}

	var list struct {
		Devices []RawDevice `json:"devices"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse device list response: %w", err)
	}
	log.Debug().Str("connector_id", connectorID).Int("count", len(list.Devices)).Msg("Fetched YoLink device list")
	return list.Devices, nil
}

// SetDeviceState drives a device to the open or close state. The method name
// is selected from the device-type table; unsupported types fail before any
// network call.
func (c *Client) SetDeviceState(ctx context.Context, connectorID string, cfg Config, deviceID, deviceToken, rawDeviceType, state string) (json.RawMessage, error) {
	family, err := deviceMethodFamily(deviceID, deviceToken, rawDeviceType)
	if err != nil {
		return nil, err
	}
	if state != StateOpen && state != StateClose {
		return nil, &ConfigurationError{Message: fmt.Sprintf("unsupported device state %q: must be %q or %q", state, StateOpen, StateClose)}
	}

	req := APIRequest{
		Method:       family + ".setState",
		TargetDevice: deviceID,
		Token:        deviceToken,
		Params:       map[string]any{"state": state},
	}
	return c.CallAPI(ctx, connectorID, cfg, req, "setDeviceState")
}

// GetDeviceState reads a device's current state.
func (c *Client) GetDeviceState(ctx context.Context, connectorID string, cfg Config, deviceID, deviceToken, rawDeviceType string) (json.RawMessage, error) {
	family, err := deviceMethodFamily(deviceID, deviceToken, rawDeviceType)
	if err != nil {
		return nil, err
	}

	req := APIRequest{
		Method:       family + ".getState",
		TargetDevice: deviceID,
		Token:        deviceToken,
	}
	return c.CallAPI(ctx, connectorID, cfg, req, "getDeviceState")
}

// TestConnection reports whether cfg can reach the account at all. It never
// returns an error: any failure in the chain, from missing credentials to a
// network fault, comes back as false.
func (c *Client) TestConnection(ctx context.Context, connectorID string, cfg Config) bool {
	if _, err := c.GetHomeInfo(ctx, connectorID, cfg); err != nil {
		log.Warn().Err(err).Str("connector_id", connectorID).Msg("YoLink connection test failed")
		return false
	}
	return true
}

func deviceMethodFamily(deviceID, deviceToken, rawDeviceType string) (string, error) {
	if deviceID == "" || deviceToken == "" {
		return "", &ConfigurationError{Message: "device ID and device token are required"}
	}
	family, ok := stateMethodFamily[rawDeviceType]
	if !ok {
		return "", &ConfigurationError{Message: fmt.Sprintf("unsupported device type %q for state operations", rawDeviceType)}
	}
	return family, nil
}
