package domain

import (
	"fmt"
	"time"
)

// ExpiresAt returns the expiry of a lock taken at lockedAt: one calendar year later.
func ExpiresAt(lockedAt time.Time) time.Time {
	return lockedAt.AddDate(1, 0, 0)
}

// Tier is a purchasable territory size.
type Tier struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Tagline     string  `json:"tagline"`
	Precision   int     `json:"geohashPrecision"`
	WalkMinutes int     `json:"walkMinutes"`
	DriveMiles  int     `json:"driveMiles"`
	BasePrice   float64 `json:"basePrice"`
	// MonthlySearches is the estimated local search volume inside the tier's radius.
	MonthlySearches int `json:"monthlySearches"`
}

// Tiers lists the catalog from narrowest to widest. Wider tiers use a
// coarser geohash, so their cells are larger.
var Tiers = []Tier{
	{ID: "tier1", Name: "Local Lock", Tagline: "Own your block", Precision: 6, WalkMinutes: 5, DriveMiles: 1, BasePrice: 1800, MonthlySearches: 320},
	{ID: "tier2", Name: "Neighborhood Control", Tagline: "Own your neighborhood", Precision: 5, WalkMinutes: 10, DriveMiles: 3, BasePrice: 2800, MonthlySearches: 780},
	{ID: "tier3", Name: "Area Ownership", Tagline: "Own your city", Precision: 4, WalkMinutes: 20, DriveMiles: 5, BasePrice: 4200, MonthlySearches: 1800},
}

// LookupTier finds a tier by id.
func LookupTier(id string) (Tier, bool) {
	for _, t := range Tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// Partition maps a coordinate to the spatial key of tierID.
func Partition(lat, lng float64, tierID string) (string, error) {
	tier, ok := LookupTier(tierID)
	if !ok {
		return "", fmt.Errorf("unknown tier %q", tierID)
	}
	if !ValidCoordinates(lat, lng) {
		return "", fmt.Errorf("coordinates out of range: %v,%v", lat, lng)
	}
	return Encode(lat, lng, tier.Precision), nil
}
