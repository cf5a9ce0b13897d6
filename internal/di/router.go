package di

import (
	"github.com/gin-gonic/gin"

	"github.com/sean-huni/store-sub000/internal/middleware"
	"github.com/sean-huni/store-sub000/pkg/telemetry"
)

// NewRouter builds the HTTP surface. The authentication gate runs on every
// route; only /me additionally requires a principal.
func NewRouter(c *Container) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		telemetry.TracingMiddleware(),
		middleware.Logger(c.Logger),
		middleware.Authenticate(c.Validator, c.Identities, c.GateConfig, c.Logger),
	)

	// Health check endpoints
	router.GET("/health", c.HealthHandler.Health)
	router.GET("/ready", c.HealthHandler.Ready)

	// API routes
	v1 := router.Group("/api/v1")
	auth := v1.Group("/auth")
	if c.RateLimiter != nil {
		auth.Use(middleware.RateLimit(c.RateLimiter, c.RateLimitConfig, c.Logger))
	}
	c.AuthHandler.RegisterRoutes(auth, middleware.RequireAuthentication())

	return router
}
