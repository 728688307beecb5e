package db

import (
	"time"
)

// Event types recorded by the bridge.
const (
	EventSyncCompleted  = "sync.completed"
	EventStateChanged   = "state.changed"
	EventStateRead      = "state.read"
	EventConnectionTest = "connection.test"
)

// Event is one append-only entry in the event feed. Payload is free-form
// JSON describing what happened.
type Event struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ConnectorID string    `gorm:"index" json:"connectorId"`
	DeviceID    string    `json:"deviceId,omitempty"`
	Type        string    `json:"type"`
	Payload     string    `json:"payload,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
