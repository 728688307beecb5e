package db

import (
	"time"
)

// Connector is a configured link to a third-party device platform. Config
// holds the platform-specific configuration (credentials, tokens) as a JSON
// document; the connector service owns encoding and decoding it.
type Connector struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex" json:"name"`
	Category  string    `json:"category"` // e.g. "yolink"
	Config    string    `json:"-"`        // serialized platform config; never exposed over the API
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
