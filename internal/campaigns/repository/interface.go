package repository

import (
	"context"
	"time"
)

// Campaign is a wave of leads dialed inside one local calling window.
type Campaign struct {
	ID             string
	Name           string
	Description    *string
	IsActive       bool
	StartHourLocal int
	EndHourLocal   int
	Timezone       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Repository persists campaigns.
type Repository interface {
	List(ctx context.Context) ([]Campaign, error)
	ListActive(ctx context.Context) ([]Campaign, error)
	GetByID(ctx context.Context, id string) (Campaign, error)
	Exists(ctx context.Context, id string) (bool, error)
	Upsert(ctx context.Context, c Campaign) (Campaign, error)
	SetActive(ctx context.Context, id string, active bool, now time.Time) (Campaign, error)
	// InsertMissing stores campaigns whose id is not taken yet and returns how many were inserted.
	InsertMissing(ctx context.Context, campaigns []Campaign) (int, error)
}
