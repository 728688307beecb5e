package server

import (
	"net/http"

	"github.com/austin-smith/fusion-bridge/connector"
	"github.com/gin-gonic/gin"
)

// Router holds the Gin engine and the connector service it exposes.
type Router struct {
	engine  *gin.Engine
	service *connector.Service
}

// NewRouter creates a new API router
func NewRouter(service *connector.Service) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	SetupMiddleware(engine)

	router := &Router{
		engine:  engine,
		service: service,
	}

	router.setupRoutes()

	return router
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.health)

	api := r.engine.Group("/api")
	{
		connectors := api.Group("/connectors")
		{
			connectors.GET("", r.listConnectors)
			connectors.POST("", r.createConnector)
			connectors.GET("/:id", r.getConnector)
			connectors.DELETE("/:id", r.removeConnector)
			connectors.POST("/:id/test", r.testConnector)
			connectors.POST("/:id/sync", r.syncConnector)
		}

		devices := api.Group("/devices")
		{
			devices.GET("", r.listDevices)
			devices.GET("/:id/state", r.getDeviceState)
			devices.POST("/:id/state", r.setDeviceState)
		}

		api.GET("/events", r.listEvents)
	}
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}

// ServeHTTP makes the router an http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}
