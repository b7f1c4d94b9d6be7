package repository

import (
	"context"
	"errors"
	"time"
)

// ErrZoneTaken is returned by Lock when a live record already holds the key.
var ErrZoneTaken = errors.New("zone already locked")

// Zone is an exclusive territory held by one business.
type Zone struct {
	ZoneID           string
	Geohash          string
	TierID           string
	PlaceID          string
	BusinessName     string
	Category         string
	Lat              float64
	Lng              float64
	AnnualPrice      float64
	LockedAt         time.Time
	ExpiresAt        time.Time
	PaymentReference *string
}

// Live reports whether the lock still holds at now.
func (z Zone) Live(now time.Time) bool {
	return !z.ExpiresAt.Before(now)
}

// Repository persists zone locks.
type Repository interface {
	GetByID(ctx context.Context, zoneID string) (Zone, error)
	// DeleteIfExpired removes the record only when it expired before now.
	DeleteIfExpired(ctx context.Context, zoneID string, now time.Time) (bool, error)
	// Lock stores z when no record exists for its key or the existing one
	// expired before z.LockedAt. Otherwise it returns the live owner and ErrZoneTaken.
	Lock(ctx context.Context, z Zone) (Zone, error)
	ListByPlace(ctx context.Context, placeID string) ([]Zone, error)
}
