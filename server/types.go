package server

import (
	"time"
)

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateConnectorRequest is the body of POST /api/connectors.
type CreateConnectorRequest struct {
	Name         string `json:"name" binding:"required"`
	ClientID     string `json:"clientId" binding:"required"`
	ClientSecret string `json:"clientSecret" binding:"required"`
}

// ConnectorResponse is the public view of a connector. Credentials and
// tokens never leave the server.
type ConnectorResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	HomeID    string    `json:"homeId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetStateRequest is the body of POST /api/devices/:id/state.
type SetStateRequest struct {
	State string `json:"state" binding:"required"`
}

// SyncRequest is the optional body of POST /api/connectors/:id/sync.
type SyncRequest struct {
	WithState bool `json:"withState"`
	Workers   int  `json:"workers"`
}

// SyncResponse summarizes a completed sync.
type SyncResponse struct {
	Total         int `json:"total"`
	StatesFetched int `json:"statesFetched"`
	StateErrors   int `json:"stateErrors"`
}

// TestResponse reports a connection test outcome.
type TestResponse struct {
	Ok bool `json:"ok"`
}
