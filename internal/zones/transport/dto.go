// Package transport holds the zone request and response shapes.
package transport

import (
	"time"

	"power_dialer_backend/internal/zones/domain"
	"power_dialer_backend/internal/zones/repository"
	"power_dialer_backend/internal/zones/service"
)

// AvailabilityRequest is the query of GET /zones/availability.
type AvailabilityRequest struct {
	Lat      *float64 `form:"lat" validate:"required,min=-90,max=90"`
	Lng      *float64 `form:"lng" validate:"required,min=-180,max=180"`
	TierID   string   `form:"tierId" validate:"required"`
	Category string   `form:"category" validate:"required,max=100"`
}

// LockRequest is the body of POST /zones/lock.
type LockRequest struct {
	Lat              *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng              *float64 `json:"lng" validate:"required,min=-180,max=180"`
	TierID           string   `json:"tierId" validate:"required"`
	PlaceID          string   `json:"placeId" validate:"required,max=200"`
	BusinessName     string   `json:"businessName" validate:"required,max=200"`
	Category         string   `json:"category" validate:"required,max=100"`
	AnnualPrice      float64  `json:"annualPrice" validate:"required,gt=0"`
	PaymentReference *string  `json:"paymentReference" validate:"omitempty,max=200"`
}

// ListByPlaceRequest is the query of GET /zones.
type ListByPlaceRequest struct {
	PlaceID string `form:"placeId" validate:"required,max=200"`
}

// PricingRequest is the query of GET /zones/pricing. Counts are per ring.
type PricingRequest struct {
	Tier1     int     `form:"tier1" validate:"min=0"`
	Tier2     int     `form:"tier2" validate:"min=0"`
	Tier3     int     `form:"tier3" validate:"min=0"`
	AvgTicket float64 `form:"avgTicket" validate:"min=0"`
}

// AvailabilityResponse answers an availability check.
type AvailabilityResponse struct {
	Available bool           `json:"available"`
	ZoneID    string         `json:"zoneId"`
	Geohash   string         `json:"geohash"`
	Cell      domain.Cell    `json:"cell"`
	Owner     *service.Owner `json:"owner,omitempty"`
}

// LockResponse confirms a granted zone.
type LockResponse struct {
	Success   bool      `json:"success"`
	ZoneID    string    `json:"zoneId"`
	Geohash   string    `json:"geohash"`
	LockedAt  time.Time `json:"lockedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ZoneResponse is the public view of a zone record.
type ZoneResponse struct {
	ZoneID           string    `json:"zoneId"`
	Geohash          string    `json:"geohash"`
	TierID           string    `json:"tierId"`
	PlaceID          string    `json:"placeId"`
	BusinessName     string    `json:"businessName"`
	Category         string    `json:"category"`
	Lat              float64   `json:"lat"`
	Lng              float64   `json:"lng"`
	AnnualPrice      float64   `json:"annualPrice"`
	LockedAt         time.Time `json:"lockedAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
	PaymentReference *string   `json:"paymentReference,omitempty"`
	Active           bool      `json:"active"`
}

// ZoneListResponse wraps a list of zones.
type ZoneListResponse struct {
	Items []ZoneResponse `json:"items"`
}

// PricingResponse lists tier quotes.
type PricingResponse struct {
	Pricings []domain.TierQuote `json:"pricings"`
}

// ToAvailabilityResponse maps a service availability result.
func ToAvailabilityResponse(a service.Availability) AvailabilityResponse {
	return AvailabilityResponse{
		Available: a.Available,
		ZoneID:    a.ZoneID,
		Geohash:   a.Geohash,
		Cell:      a.Cell,
		Owner:     a.Owner,
	}
}

// ToZoneListResponse maps zone records; Active is evaluated at now.
func ToZoneListResponse(zones []repository.Zone, now time.Time) ZoneListResponse {
	items := make([]ZoneResponse, 0, len(zones))
	for _, z := range zones {
		items = append(items, ZoneResponse{
			ZoneID:           z.ZoneID,
			Geohash:          z.Geohash,
			TierID:           z.TierID,
			PlaceID:          z.PlaceID,
			BusinessName:     z.BusinessName,
			Category:         z.Category,
			Lat:              z.Lat,
			Lng:              z.Lng,
			AnnualPrice:      z.AnnualPrice,
			LockedAt:         z.LockedAt,
			ExpiresAt:        z.ExpiresAt,
			PaymentReference: z.PaymentReference,
			Active:           z.Live(now),
		})
	}
	return ZoneListResponse{Items: items}
}
