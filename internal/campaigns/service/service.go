// Package service implements campaign management.
package service

import (
	"context"
	"strings"
	"time"

	"power_dialer_backend/internal/campaigns/repository"
	"power_dialer_backend/internal/campaigns/seed"
	"power_dialer_backend/internal/campaigns/transport"
	"power_dialer_backend/platform/apperr"
	"power_dialer_backend/platform/logger"
)

// Service manages campaigns and their calling windows.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
	now  func() time.Time
}

// New creates a campaign service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// SetClock replaces the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// List returns all campaigns.
func (s *Service) List(ctx context.Context) ([]repository.Campaign, error) {
	return s.repo.List(ctx)
}

// ListActive returns the campaigns currently dialed. It always reads the store.
func (s *Service) ListActive(ctx context.Context) ([]repository.Campaign, error) {
	return s.repo.ListActive(ctx)
}

// Get returns one campaign.
func (s *Service) Get(ctx context.Context, id string) (repository.Campaign, error) {
	return s.repo.GetByID(ctx, id)
}

// Exists reports whether id names a stored campaign.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// Upsert creates or replaces a campaign.
func (s *Service) Upsert(ctx context.Context, req transport.UpsertCampaignRequest) (repository.Campaign, error) {
	if err := checkWindow(req.StartHourLocal, req.EndHourLocal); err != nil {
		return repository.Campaign{}, err
	}

	c := repository.Campaign{
		ID:             strings.TrimSpace(req.ID),
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		IsActive:       req.IsActive,
		StartHourLocal: req.StartHourLocal,
		EndHourLocal:   req.EndHourLocal,
		Timezone:       req.Timezone,
		UpdatedAt:      s.now().UTC(),
	}
	saved, err := s.repo.Upsert(ctx, c)
	if err != nil {
		return repository.Campaign{}, err
	}
	s.log.Info("campaign saved", "campaignId", saved.ID, "active", saved.IsActive)
	return saved, nil
}

// SetActive switches a campaign on or off.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (repository.Campaign, error) {
	c, err := s.repo.SetActive(ctx, id, active, s.now().UTC())
	if err != nil {
		return repository.Campaign{}, err
	}
	s.log.Info("campaign toggled", "campaignId", id, "active", active)
	return c, nil
}

// Seed inserts the default waves that are missing. Existing campaigns are left alone.
func (s *Service) Seed(ctx context.Context) (transport.SeedResponse, error) {
	waves, err := seed.Default()
	if err != nil {
		return transport.SeedResponse{}, apperr.Wrap(apperr.KindInternal, "load default campaigns", err)
	}

	now := s.now().UTC()
	campaigns := make([]repository.Campaign, 0, len(waves))
	ids := make([]string, 0, len(waves))
	for _, w := range waves {
		if err := checkWindow(w.StartHourLocal, w.EndHourLocal); err != nil {
			return transport.SeedResponse{}, err
		}
		campaigns = append(campaigns, repository.Campaign{
			ID:             w.ID,
			Name:           w.Name,
			Description:    optional(w.Description),
			IsActive:       w.Active,
			StartHourLocal: w.StartHourLocal,
			EndHourLocal:   w.EndHourLocal,
			Timezone:       w.Timezone,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		ids = append(ids, w.ID)
	}

	inserted, err := s.repo.InsertMissing(ctx, campaigns)
	if err != nil {
		return transport.SeedResponse{}, err
	}
	if inserted > 0 {
		s.log.Info("default campaigns seeded", "inserted", inserted)
	}
	return transport.SeedResponse{Inserted: inserted, Campaigns: ids}, nil
}

// checkWindow enforces 0 <= start < end <= 23.
func checkWindow(start, end int) error {
	if start < 0 || start > 23 || end < 0 || end > 23 {
		return apperr.Validation("calling window hours must be between 0 and 23")
	}
	if start >= end {
		return apperr.Validation("startHourLocal must be before endHourLocal")
	}
	return nil
}

func optional(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
