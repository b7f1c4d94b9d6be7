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

const campaignNotFoundMessage = "campaign not found"

const campaignColumns = `id, name, description, is_active, start_hour_local, end_hour_local, timezone, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new campaigns repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func scanCampaign(row pgx.Row) (Campaign, error) {
	var c Campaign
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.StartHourLocal, &c.EndHourLocal,
		&c.Timezone, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *Repo) query(ctx context.Context, op, sql string, args ...any) ([]Campaign, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	campaigns := make([]Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// List returns every campaign ordered by id.
func (r *Repo) List(ctx context.Context) ([]Campaign, error) {
	return r.query(ctx, "list campaigns", `SELECT `+campaignColumns+` FROM campaigns ORDER BY id`)
}

// ListActive returns active campaigns ordered by id.
func (r *Repo) ListActive(ctx context.Context) ([]Campaign, error) {
	return r.query(ctx, "list active campaigns",
		`SELECT `+campaignColumns+` FROM campaigns WHERE is_active ORDER BY id`)
}

// GetByID retrieves a campaign.
func (r *Repo) GetByID(ctx context.Context, id string) (Campaign, error) {
	c, err := scanCampaign(r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Campaign{}, apperr.NotFound(campaignNotFoundMessage)
		}
		return Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// Exists reports whether a campaign with id is stored.
func (r *Repo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM campaigns WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("campaign exists: %w", err)
	}
	return exists, nil
}

// Upsert inserts c or replaces the stored campaign with the same id.
// created_at of an existing row is preserved.
func (r *Repo) Upsert(ctx context.Context, c Campaign) (Campaign, error) {
	saved, err := scanCampaign(r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (id, name, description, is_active, start_hour_local, end_hour_local, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description, is_active = EXCLUDED.is_active,
			start_hour_local = EXCLUDED.start_hour_local, end_hour_local = EXCLUDED.end_hour_local,
			timezone = EXCLUDED.timezone, updated_at = EXCLUDED.updated_at
		RETURNING `+campaignColumns,
		c.ID, c.Name, c.Description, c.IsActive, c.StartHourLocal, c.EndHourLocal, c.Timezone, c.UpdatedAt))
	if err != nil {
		return Campaign{}, fmt.Errorf("upsert campaign: %w", err)
	}
	return saved, nil
}

// SetActive toggles a campaign on or off.
func (r *Repo) SetActive(ctx context.Context, id string, active bool, now time.Time) (Campaign, error) {
	c, err := scanCampaign(r.pool.QueryRow(ctx, `
		UPDATE campaigns SET is_active = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+campaignColumns, id, active, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Campaign{}, apperr.NotFound(campaignNotFoundMessage)
		}
		return Campaign{}, fmt.Errorf("set campaign active: %w", err)
	}
	return c, nil
}

// InsertMissing stores campaigns whose id is not taken yet in one batch.
func (r *Repo) InsertMissing(ctx context.Context, campaigns []Campaign) (int, error) {
	if len(campaigns) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, c := range campaigns {
		batch.Queue(`
			INSERT INTO campaigns (id, name, description, is_active, start_hour_local, end_hour_local, timezone, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			ON CONFLICT (id) DO NOTHING`,
			c.ID, c.Name, c.Description, c.IsActive, c.StartHourLocal, c.EndHourLocal, c.Timezone, c.CreatedAt)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range campaigns {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert campaign: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}
