// Package service implements territory exclusivity: availability checks,
// conditional locking and pricing.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"power_dialer_backend/internal/events"
	"power_dialer_backend/internal/zones/domain"
	"power_dialer_backend/internal/zones/repository"
	"power_dialer_backend/platform/apperr"
	"power_dialer_backend/platform/logger"
	"power_dialer_backend/platform/sanitize"
)

// Owner identifies who holds a zone and for how long.
type Owner struct {
	Name      string    `json:"name"`
	PlaceID   string    `json:"placeId"`
	LockedAt  time.Time `json:"lockedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Availability is the answer to an availability check.
type Availability struct {
	Available bool
	ZoneID    string
	Geohash   string
	Cell      domain.Cell
	Owner     *Owner
}

// LockParams describes a purchased territory.
type LockParams struct {
	Lat              float64
	Lng              float64
	TierID           string
	PlaceID          string
	BusinessName     string
	Category         string
	AnnualPrice      float64
	PaymentReference *string
}

// Service guards the one-live-owner-per-key rule.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
	now  func() time.Time
}

// New creates the zone service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log, now: time.Now}
}

// SetClock replaces the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func resolveKey(lat, lng float64, tierID, category string) (zoneID, geohash string, err error) {
	if _, ok := domain.LookupTier(tierID); !ok {
		return "", "", apperr.Validation(fmt.Sprintf("unknown tier %q", tierID))
	}
	if !domain.ValidCoordinates(lat, lng) {
		return "", "", apperr.Validation("lat must be within [-90, 90] and lng within [-180, 180]")
	}
	if domain.NormalizeCategory(category) == "" {
		return "", "", apperr.Validation("category is required")
	}

	geohash, err = domain.Partition(lat, lng, tierID)
	if err != nil {
		return "", "", apperr.Validation(err.Error())
	}
	return domain.ZoneKey(geohash, category), geohash, nil
}

// CheckAvailability reports whether the zone at (lat, lng, tier, category) can be bought.
// An expired record is removed on the way.
func (s *Service) CheckAvailability(ctx context.Context, lat, lng float64, tierID, category string) (Availability, error) {
	zoneID, geohash, err := resolveKey(lat, lng, tierID, category)
	if err != nil {
		return Availability{}, err
	}
	cell, _ := domain.Decode(geohash)
	result := Availability{Available: true, ZoneID: zoneID, Geohash: geohash, Cell: cell}

	existing, err := s.repo.GetByID(ctx, zoneID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return result, nil
		}
		return Availability{}, err
	}

	now := s.now().UTC()
	if !existing.Live(now) {
		if _, err := s.repo.DeleteIfExpired(ctx, zoneID, now); err != nil {
			return Availability{}, err
		}
		s.log.Info("expired zone reclaimed", "zoneId", zoneID, "previousOwner", existing.PlaceID)
		return result, nil
	}

	result.Available = false
	result.Owner = ownerOf(existing)
	return result, nil
}

// Lock grants the zone to the buyer if no live owner holds it. A live owner
// turns into a conflict error carrying that owner.
func (s *Service) Lock(ctx context.Context, p LockParams) (repository.Zone, error) {
	zoneID, geohash, err := resolveKey(p.Lat, p.Lng, p.TierID, p.Category)
	if err != nil {
		return repository.Zone{}, err
	}
	name := sanitize.Text(p.BusinessName)
	if strings.TrimSpace(p.PlaceID) == "" || name == "" {
		return repository.Zone{}, apperr.Validation("placeId and businessName are required")
	}
	if p.AnnualPrice <= 0 {
		return repository.Zone{}, apperr.Validation("annualPrice must be positive")
	}

	now := s.now().UTC()
	zone := repository.Zone{
		ZoneID:           zoneID,
		Geohash:          geohash,
		TierID:           p.TierID,
		PlaceID:          strings.TrimSpace(p.PlaceID),
		BusinessName:     name,
		Category:         strings.TrimSpace(p.Category),
		Lat:              p.Lat,
		Lng:              p.Lng,
		AnnualPrice:      p.AnnualPrice,
		LockedAt:         now,
		ExpiresAt:        domain.ExpiresAt(now),
		PaymentReference: p.PaymentReference,
	}

	saved, err := s.repo.Lock(ctx, zone)
	if errors.Is(err, repository.ErrZoneTaken) {
		s.log.Info("zone lock refused", "zoneId", zoneID, "owner", saved.PlaceID, "buyer", zone.PlaceID)
		return repository.Zone{}, apperr.Conflict(fmt.Sprintf("Zone already locked by %s", saved.BusinessName)).
			WithDetails(ownerOf(saved))
	}
	if err != nil {
		return repository.Zone{}, err
	}

	s.log.Info("zone locked", "zoneId", saved.ZoneID, "placeId", saved.PlaceID, "tier", saved.TierID)
	if s.bus != nil {
		s.bus.Publish(ctx, events.ZoneLocked{
			BaseEvent:    events.NewBaseEventAt(now),
			ZoneID:       saved.ZoneID,
			TierID:       saved.TierID,
			PlaceID:      saved.PlaceID,
			BusinessName: saved.BusinessName,
			AnnualPrice:  saved.AnnualPrice,
		})
	}
	return saved, nil
}

// ListByPlace returns the zones a business holds across all tiers.
func (s *Service) ListByPlace(ctx context.Context, placeID string) ([]repository.Zone, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, apperr.Validation("placeId is required")
	}
	return s.repo.ListByPlace(ctx, placeID)
}

// Quote prices every tier for the given competitor rings.
func (s *Service) Quote(counts domain.CompetitorCounts, avgTicket float64) ([]domain.TierQuote, error) {
	if counts.Tier1 < 0 || counts.Tier2 < 0 || counts.Tier3 < 0 {
		return nil, apperr.Validation("competitor counts cannot be negative")
	}
	if avgTicket < 0 {
		return nil, apperr.Validation("avgTicket cannot be negative")
	}
	return domain.Quote(counts, avgTicket), nil
}

func ownerOf(z repository.Zone) *Owner {
	return &Owner{Name: z.BusinessName, PlaceID: z.PlaceID, LockedAt: z.LockedAt, ExpiresAt: z.ExpiresAt}
}
