// Package campaigns provides the campaign (calling wave) bounded context module.
package campaigns

import (
	"context"

	"power_dialer_backend/internal/campaigns/handler"
	"power_dialer_backend/internal/campaigns/repository"
	"power_dialer_backend/internal/campaigns/service"
	apphttp "power_dialer_backend/internal/http"
	"power_dialer_backend/platform/logger"
	"power_dialer_backend/platform/validator"
)

// Module is the campaigns bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the campaigns module on top of repo.
func NewModule(repo repository.Repository, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "campaigns"
}

// Service returns the campaign service for adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// SeedDefaults inserts the default waves on boot.
func (m *Module) SeedDefaults(ctx context.Context) error {
	_, err := m.service.Seed(ctx)
	return err
}

// RegisterRoutes mounts campaign routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/campaigns", m.handler.List)
	ctx.V1.GET("/campaigns/active", m.handler.ListActive)
	ctx.V1.GET("/campaigns/:id", m.handler.GetByID)

	adminGroup := ctx.Admin.Group("/campaigns")
	adminGroup.PUT("", m.handler.Upsert)
	adminGroup.PATCH("/:id/active", m.handler.SetActive)
	adminGroup.POST("/seed", m.handler.Seed)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
