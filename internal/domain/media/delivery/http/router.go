package http

import (
	"github.com/fasthttp/router"
	"github.com/rs/zerolog"
)

// Router registers media ops HTTP routes
type Router struct {
	handler *HealthHandler
	logger  zerolog.Logger
}

// NewRouter creates a new media ops router
func NewRouter(handler *HealthHandler, logger zerolog.Logger) *Router {
	return &Router{
		handler: handler,
		logger:  logger,
	}
}

// RegisterRoutes registers media ops routes on the router
func (r *Router) RegisterRoutes(rt *router.Router) {
	rt.GET("/health", r.handler.Handle)
}
