package connector

import (
	"context"
	"encoding/json"

	"github.com/austin-smith/fusion-bridge/yolink"
)

// DeviceAPI is the slice of the platform client the connector service needs.
// *yolink.Client satisfies it.
type DeviceAPI interface {
	GetHomeInfo(ctx context.Context, connectorID string, cfg yolink.Config) (string, error)
	GetDeviceList(ctx context.Context, connectorID string, cfg yolink.Config) ([]yolink.RawDevice, error)
	SetDeviceState(ctx context.Context, connectorID string, cfg yolink.Config, deviceID, deviceToken, rawDeviceType, state string) (json.RawMessage, error)
	GetDeviceState(ctx context.Context, connectorID string, cfg yolink.Config, deviceID, deviceToken, rawDeviceType string) (json.RawMessage, error)
	TestConnection(ctx context.Context, connectorID string, cfg yolink.Config) bool
}
