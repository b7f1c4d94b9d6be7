// Package zones provides the territory exclusivity bounded context module.
package zones

import (
	"power_dialer_backend/internal/events"
	apphttp "power_dialer_backend/internal/http"
	"power_dialer_backend/internal/zones/handler"
	"power_dialer_backend/internal/zones/repository"
	"power_dialer_backend/internal/zones/service"
	"power_dialer_backend/platform/logger"
	"power_dialer_backend/platform/validator"
)

// Module is the zones bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the zones module on top of repo.
func NewModule(repo repository.Repository, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, eventBus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "zones"
}

// Service returns the zone service.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts zone routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/zones"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
