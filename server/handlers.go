package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/austin-smith/fusion-bridge/connector"
	"github.com/austin-smith/fusion-bridge/db"
	"github.com/austin-smith/fusion-bridge/pkg/validation"
	"github.com/austin-smith/fusion-bridge/yolink"
	"github.com/gin-gonic/gin"
)

func (r *Router) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listConnectors handles GET /api/connectors.
func (r *Router) listConnectors(c *gin.Context) {
	connectors, err := r.service.Connectors.List(c.Request.Context())
	if err != nil {
		r.writeError(c, err)
		return
	}

	result := make([]ConnectorResponse, 0, len(connectors))
	for _, conn := range connectors {
		result = append(result, connectorView(&conn))
	}
	c.JSON(http.StatusOK, gin.H{"connectors": result, "count": len(result)})
}

// createConnector handles POST /api/connectors. The connector is verified
// against the platform before it is reported as created.
func (r *Router) createConnector(c *gin.Context) {
	var req CreateConnectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "name, clientId and clientSecret are required",
		})
		return
	}

	conn, err := r.service.Register(c.Request.Context(), req.Name, req.ClientID, req.ClientSecret)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, connectorView(conn))
}

// getConnector handles GET /api/connectors/:id.
func (r *Router) getConnector(c *gin.Context) {
	conn, err := r.service.Connectors.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.writeError(c, err)
		return
	}
	if conn == nil {
		r.writeError(c, connector.ErrConnectorNotFound)
		return
	}
	c.JSON(http.StatusOK, connectorView(conn))
}

// removeConnector handles DELETE /api/connectors/:id.
func (r *Router) removeConnector(c *gin.Context) {
	if err := r.service.Remove(c.Request.Context(), c.Param("id")); err != nil {
		r.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// testConnector handles POST /api/connectors/:id/test. A failing test is a
// 200 with ok=false; only unknown connectors or storage failures error.
func (r *Router) testConnector(c *gin.Context) {
	ok, err := r.service.TestConnection(c.Request.Context(), c.Param("id"))
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TestResponse{Ok: ok})
}

// syncConnector handles POST /api/connectors/:id/sync.
func (r *Router) syncConnector(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if req.Workers != 0 {
		if err := validation.ValidateWorkerCount(req.Workers); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
			return
		}
	}

	result, err := r.service.SyncDevices(c.Request.Context(), c.Param("id"), connector.SyncOptions{
		WithState: req.WithState,
		Workers:   req.Workers,
	})
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SyncResponse{
		Total:         result.Total,
		StatesFetched: result.StatesFetched,
		StateErrors:   result.StateErrors,
	})
}

// listDevices handles GET /api/devices, optionally filtered by ?connector=.
func (r *Router) listDevices(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		devices []db.Device
		err     error
	)
	if connectorID := c.Query("connector"); connectorID != "" {
		devices, err = r.service.Devices.ListByConnector(ctx, connectorID)
	} else {
		devices, err = r.service.Devices.List(ctx)
	}
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices, "count": len(devices)})
}

// getDeviceState handles GET /api/devices/:id/state. The owning connector is
// named by the required ?connector= query parameter.
func (r *Router) getDeviceState(c *gin.Context) {
	connectorID := c.Query("connector")
	if connectorID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "connector query parameter is required",
		})
		return
	}

	data, err := r.service.GetDeviceState(c.Request.Context(), connectorID, c.Param("id"))
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// setDeviceState handles POST /api/devices/:id/state.
func (r *Router) setDeviceState(c *gin.Context) {
	connectorID := c.Query("connector")
	if connectorID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "connector query parameter is required",
		})
		return
	}

	var req SetStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "state is required"})
		return
	}
	if err := validation.ValidateDeviceState(req.State); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	data, err := r.service.SetDeviceState(c.Request.Context(), connectorID, c.Param("id"), req.State)
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// listEvents handles GET /api/events with optional ?connector= and ?limit=.
func (r *Router) listEvents(c *gin.Context) {
	ctx := c.Request.Context()

	limit := 0
	if rawLimit := c.Query("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "limit must be an integer"})
			return
		}
		if err := validation.ValidateEventLimit(parsed); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
			return
		}
		limit = parsed
	}

	var (
		events []db.Event
		err    error
	)
	if connectorID := c.Query("connector"); connectorID != "" {
		events, err = r.service.Events.ListByConnector(ctx, connectorID, limit)
	} else {
		events, err = r.service.Events.ListRecent(ctx, limit)
	}
	if err != nil {
		r.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// connectorView maps a stored connector to its public representation. The
// home id is the only config field that is safe to expose.
func connectorView(conn *db.Connector) ConnectorResponse {
	var cfg yolink.Config
	_ = json.Unmarshal([]byte(conn.Config), &cfg)
	return ConnectorResponse{
		ID:        conn.ID,
		Name:      conn.Name,
		Category:  conn.Category,
		HomeID:    cfg.HomeID,
		CreatedAt: conn.CreatedAt,
		UpdatedAt: conn.UpdatedAt,
	}
}

// writeError maps service and platform errors to HTTP responses.
func (r *Router) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, connector.ErrConnectorNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Connector not found"})
	case errors.Is(err, connector.ErrDeviceNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Device not found"})
	case yolink.IsConfigurationError(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
	default:
		var authErr *yolink.AuthError
		if errors.As(err, &authErr) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_credentials", Message: err.Error()})
			return
		}
		var (
			transportErr *yolink.TransportError
			remoteErr    *yolink.RemoteOperationError
		)
		if errors.As(err, &transportErr) || errors.As(err, &remoteErr) {
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: "upstream_error", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: err.Error()})
	}
}
