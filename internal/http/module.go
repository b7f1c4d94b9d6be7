// Package http defines how bounded contexts plug into the gin engine. The
// engine itself is assembled in internal/http/router.
package http

import (
	"context"

	"power_dialer_backend/internal/events"
	"power_dialer_backend/platform/config"
	"power_dialer_backend/platform/httpkit"
	"power_dialer_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context with HTTP routes (leads, campaigns, zones, agents).
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext hands modules the groups they mount on.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is /api/v1. Agent consoles call it without a token.
	V1 *gin.RouterGroup
	// Admin is /api/v1/admin, supervisor JWT required.
	Admin *gin.RouterGroup
	// Cron is /api/v1 behind the internal cron secret.
	Cron   *gin.RouterGroup
	Config config.JWTConfig
	// NextLeadLimiter is shared so every lead route counts against one bucket per client.
	NextLeadLimiter *httpkit.IPRateLimiter
}

// RouterConfig is the slice of configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
	config.CronConfig
}

// HealthChecker is pinged by /api/health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is everything the composition root hands to router.New.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health is nil on the memory store.
	Health   HealthChecker
	EventBus events.Bus
	Modules  []Module
}
