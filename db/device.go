package db

import (
	"time"
)

// Device is one entry in the per-connector device registry, mirrored from
// the platform's device list on every sync. State holds the last known raw
// state payload as JSON, if a state read has happened.
type Device struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	ConnectorID string    `gorm:"uniqueIndex:idx_connector_device" json:"connectorId"`
	DeviceID    string    `gorm:"uniqueIndex:idx_connector_device" json:"deviceId"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	ModelName   string    `json:"modelName,omitempty"`
	Token       string    `json:"-"` // platform device token; never exposed over the API
	State       string    `json:"state,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
