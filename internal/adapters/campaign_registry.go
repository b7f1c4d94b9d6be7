// Package adapters wires one bounded context's ports to another's services.
package adapters

import (
	"context"
	"fmt"

	camprepo "power_dialer_backend/internal/campaigns/repository"
	"power_dialer_backend/internal/leads/domain"
	"power_dialer_backend/internal/leads/ports"
)

// CampaignSource is the campaign read surface the leads context depends on.
type CampaignSource interface {
	ListActive(ctx context.Context) ([]camprepo.Campaign, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// CampaignRegistry adapts the campaigns context for lead distribution.
// Every call reads through to the store, so toggling a wave takes effect on
// the next queue request.
type CampaignRegistry struct {
	source CampaignSource
}

// NewCampaignRegistry creates a registry over source.
func NewCampaignRegistry(source CampaignSource) *CampaignRegistry {
	return &CampaignRegistry{source: source}
}

// ListActiveWaves returns the id and calling window of every active campaign.
func (a *CampaignRegistry) ListActiveWaves(ctx context.Context) ([]ports.Wave, error) {
	campaigns, err := a.source.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("campaign adapter: list active: %w", err)
	}

	waves := make([]ports.Wave, 0, len(campaigns))
	for _, c := range campaigns {
		waves = append(waves, ports.Wave{
			ID:     c.ID,
			Window: domain.CallingWindow{StartHour: c.StartHourLocal, EndHour: c.EndHourLocal},
		})
	}
	return waves, nil
}

// CampaignExists reports whether id names a campaign, active or not.
func (a *CampaignRegistry) CampaignExists(ctx context.Context, id string) (bool, error) {
	ok, err := a.source.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("campaign adapter: exists: %w", err)
	}
	return ok, nil
}

var (
	_ ports.CampaignRegistry  = (*CampaignRegistry)(nil)
	_ ports.CampaignDirectory = (*CampaignRegistry)(nil)
)
