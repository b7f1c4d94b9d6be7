// Package leads provides the lead distribution bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"power_dialer_backend/internal/events"
	apphttp "power_dialer_backend/internal/http"
	"power_dialer_backend/internal/leads/domain"
	"power_dialer_backend/internal/leads/handler"
	"power_dialer_backend/internal/leads/importer"
	"power_dialer_backend/internal/leads/ports"
	"power_dialer_backend/internal/leads/reaper"
	"power_dialer_backend/internal/leads/repository"
	"power_dialer_backend/internal/leads/service"
	"power_dialer_backend/platform/config"
	"power_dialer_backend/platform/logger"
	"power_dialer_backend/platform/validator"
)

// ModuleConfig is the configuration the leads module reads.
type ModuleConfig interface {
	config.DialerConfig
	config.ImportConfig
}

// Campaigns is what the leads module needs from the campaign context.
type Campaigns interface {
	ports.CampaignRegistry
	ports.CampaignDirectory
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	reaper  *reaper.Reaper
	repo    repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(repo repository.Repository, campaigns Campaigns, eventBus events.Bus, val *validator.Validator, cfg ModuleConfig, log *logger.Logger) *Module {
	policy := domain.DefaultPolicy().WithOverrides(cfg.GetLeaseDuration(), cfg.GetRetryCeiling(), cfg.GetReaperBatchSize())

	rp := reaper.NewFromConfig(repo, cfg, eventBus, log)

	imp := importer.New(repo, campaigns, val, cfg.GetDefaultPhoneRegion(), cfg.GetDefaultCampaign())
	svc := service.New(repo, campaigns, policy, imp, rp, eventBus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		reaper:  rp,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Reaper returns the stale lease reaper so the composition root can schedule it.
func (m *Module) Reaper() *reaper.Reaper {
	return m.reaper
}

// Repository returns the lead store.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/leads"), ctx.NextLeadLimiter.RateLimit())
	ctx.Cron.GET("/leads/unlock-stale", m.handler.ReleaseStale)
	ctx.Admin.POST("/leads/import", m.handler.Import)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
