// Package agents provides the agent presence bounded context module.
package agents

import (
	"context"

	"power_dialer_backend/internal/agents/handler"
	"power_dialer_backend/internal/agents/repository"
	"power_dialer_backend/internal/agents/service"
	"power_dialer_backend/internal/events"
	apphttp "power_dialer_backend/internal/http"
	"power_dialer_backend/platform/logger"
	"power_dialer_backend/platform/validator"
)

// Module is the agents bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the agents module on top of repo.
func NewModule(repo repository.Repository, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "agents"
}

// Service returns the agent service.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts agent routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/agents"))
}

// RegisterHandlers subscribes to lead lifecycle events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadLeased{}.EventName(), m)
	bus.Subscribe(events.LeadDisposed{}.EventName(), m)
	bus.Subscribe(events.StaleLeasesReleased{}.EventName(), m)
}

// Handle routes events to the appropriate service method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadLeased:
		return m.service.HandleLeadLeased(ctx, e)
	case events.LeadDisposed:
		return m.service.HandleLeadDisposed(ctx, e)
	case events.StaleLeasesReleased:
		return m.service.HandleLeasesReleased(ctx, e)
	default:
		return nil
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
