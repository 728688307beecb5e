package yolink

// Default YoLink open API endpoints. Tests override these on the Client.
const (
	DefaultTokenURL = "https://api.yosmart.com/open/yolink/token"
	DefaultAPIURL   = "https://api.yosmart.com/open/yolink/v2/api"
)

// Config is the connector configuration consumed and produced by this
// package. It is always passed by value; every function that changes token
// state returns a new Config and leaves the caller's copy untouched.
// Persisting updated configs is the caller's job (see Client.OnConfigUpdated).
type Config struct {
	ClientID       string   `json:"clientId"`
	ClientSecret   string   `json:"clientSecret"`
	AccessToken    string   `json:"accessToken,omitempty"`
	RefreshToken   string   `json:"refreshToken,omitempty"`
	TokenExpiresAt int64    `json:"tokenExpiresAt,omitempty"` // Unix epoch milliseconds
	Scope          []string `json:"scope,omitempty"`
	HomeID         string   `json:"homeId,omitempty"`
}

// TokenResolution is the transient result of a single token resolution.
// UpdatedConfig carries the full configuration snapshot the caller should
// persist; AccessToken/RefreshToken/ExpiresAt mirror its token fields.
type TokenResolution struct {
	AccessToken   string
	RefreshToken  string
	ExpiresAt     int64
	UpdatedConfig Config
}

// APIRequest is the BUDP request envelope sent to the YoLink API endpoint.
type APIRequest struct {
	Method       string         `json:"method"`
	TargetDevice string         `json:"targetDevice,omitempty"`
	Token        string         `json:"token,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
}

// RawDevice is a device entry as returned by Home.getDeviceList.
type RawDevice struct {
	DeviceID  string `json:"deviceId"`
	Name      string `json:"name"`
	Token     string `json:"token"`
	Type      string `json:"type"`
	ModelName string `json:"modelName,omitempty"`
}

// DeviceState values accepted by SetDeviceState.
const (
	StateOpen  = "open"
	StateClose = "close"
)

// stateMethodFamily maps a raw device type to the API method family used for
// state reads/writes. Multi-outlet devices use the plain outlet methods.
var stateMethodFamily = map[string]string{
	"Outlet":      "Outlet",
	"MultiOutlet": "Outlet",
	"Switch":      "Switch",
	"Manipulator": "Manipulator",
}

// SupportedDeviceTypes lists the raw device types SetDeviceState and
// GetDeviceState accept.
func SupportedDeviceTypes() []string {
	types := make([]string, 0, len(stateMethodFamily))
	for t := range stateMethodFamily {
		types = append(types, t)
	}
	return types
}
