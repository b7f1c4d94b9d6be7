// Package ports defines the interfaces the leads domain requires from other
// bounded contexts. Implementations are wired in the composition root.
package ports

import (
	"context"

	"power_dialer_backend/internal/leads/domain"
)

// Wave is the slice of a campaign the queue needs: its id and calling window.
type Wave struct {
	ID     string
	Window domain.CallingWindow
}

// CampaignRegistry returns the campaigns that are currently active. It is
// read on every queue request; implementations must not cache.
type CampaignRegistry interface {
	ListActiveWaves(ctx context.Context) ([]Wave, error)
}

// CampaignDirectory answers whether a campaign id exists, active or not.
type CampaignDirectory interface {
	CampaignExists(ctx context.Context, id string) (bool, error)
}
