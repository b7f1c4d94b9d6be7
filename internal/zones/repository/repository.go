package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"power_dialer_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const zoneNotFoundMessage = "zone not found"

const zoneColumns = `zone_id, geohash, tier_id, place_id, business_name, category, lat, lng, annual_price,
	locked_at, expires_at, payment_reference`

// lockAttempts bounds the insert/read-owner loop when the owner vanishes in between.
const lockAttempts = 3

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new zones repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func scanZone(row pgx.Row) (Zone, error) {
	var z Zone
	err := row.Scan(&z.ZoneID, &z.Geohash, &z.TierID, &z.PlaceID, &z.BusinessName, &z.Category, &z.Lat, &z.Lng,
		&z.AnnualPrice, &z.LockedAt, &z.ExpiresAt, &z.PaymentReference)
	return z, err
}

// GetByID retrieves the record stored under zoneID, expired or not.
func (r *Repo) GetByID(ctx context.Context, zoneID string) (Zone, error) {
	z, err := scanZone(r.pool.QueryRow(ctx, `SELECT `+zoneColumns+` FROM zones WHERE zone_id = $1`, zoneID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Zone{}, apperr.NotFound(zoneNotFoundMessage)
		}
		return Zone{}, fmt.Errorf("get zone: %w", err)
	}
	return z, nil
}

// DeleteIfExpired removes an expired record.
func (r *Repo) DeleteIfExpired(ctx context.Context, zoneID string, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM zones WHERE zone_id = $1 AND expires_at < $2`, zoneID, now)
	if err != nil {
		return false, fmt.Errorf("delete expired zone: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Lock is a single conditional write: the upsert only replaces a row whose
// lock expired before the new one starts. No row back means a live owner won.
func (r *Repo) Lock(ctx context.Context, z Zone) (Zone, error) {
	for attempt := 0; attempt < lockAttempts; attempt++ {
		saved, err := scanZone(r.pool.QueryRow(ctx, `
			INSERT INTO zones (`+zoneColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (zone_id) DO UPDATE
			SET geohash = EXCLUDED.geohash, tier_id = EXCLUDED.tier_id, place_id = EXCLUDED.place_id,
				business_name = EXCLUDED.business_name, category = EXCLUDED.category, lat = EXCLUDED.lat,
				lng = EXCLUDED.lng, annual_price = EXCLUDED.annual_price, locked_at = EXCLUDED.locked_at,
				expires_at = EXCLUDED.expires_at, payment_reference = EXCLUDED.payment_reference
			WHERE zones.expires_at < EXCLUDED.locked_at
			RETURNING `+zoneColumns,
			z.ZoneID, z.Geohash, z.TierID, z.PlaceID, z.BusinessName, z.Category, z.Lat, z.Lng,
			z.AnnualPrice, z.LockedAt, z.ExpiresAt, z.PaymentReference))
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return Zone{}, fmt.Errorf("lock zone: %w", err)
		}

		owner, err := r.GetByID(ctx, z.ZoneID)
		if err == nil {
			return owner, ErrZoneTaken
		}
		if !apperr.Is(err, apperr.KindNotFound) {
			return Zone{}, err
		}
		// owner was reclaimed between the upsert and the read; try again
	}
	return Zone{}, apperr.Conflict("zone lock contended, retry")
}

// ListByPlace returns every zone held by placeID, newest first.
func (r *Repo) ListByPlace(ctx context.Context, placeID string) ([]Zone, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+zoneColumns+`
		FROM zones
		WHERE place_id = $1
		ORDER BY locked_at DESC`, placeID)
	if err != nil {
		return nil, fmt.Errorf("list zones by place: %w", err)
	}
	defer rows.Close()

	zones := make([]Zone, 0)
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}
