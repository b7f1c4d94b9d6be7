package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"power_dialer_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const agentNotFoundMessage = "agent not found"

const agentColumns = `id, display_name, status, current_lead_id, calls_today, revenue_cents, talk_time_seconds,
	stats_day, last_active_at, created_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new agents repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func scanAgent(row pgx.Row) (Agent, error) {
	var a Agent
	var status string
	err := row.Scan(&a.ID, &a.DisplayName, &status, &a.CurrentLeadID, &a.CallsToday, &a.RevenueCents,
		&a.TalkTimeSeconds, &a.StatsDay, &a.LastActiveAt, &a.CreatedAt)
	if err != nil {
		return Agent{}, err
	}
	a.Status = Status(status)
	return a, nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(agentNotFoundMessage)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// GetByID retrieves an agent.
func (r *Repo) GetByID(ctx context.Context, id string) (Agent, error) {
	a, err := scanAgent(r.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id))
	if err != nil {
		return Agent{}, notFoundOr(err, "get agent")
	}
	return a, nil
}

// List returns all agents, most recently active first.
func (r *Repo) List(ctx context.Context) ([]Agent, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY last_active_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	agents := make([]Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// Register creates the agent or reactivates it.
func (r *Repo) Register(ctx context.Context, id, displayName string, now time.Time) (Agent, error) {
	a, err := scanAgent(r.pool.QueryRow(ctx, `
		INSERT INTO agents (id, display_name, status, stats_day, last_active_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name, status = EXCLUDED.status,
			current_lead_id = NULL, last_active_at = EXCLUDED.last_active_at
		RETURNING `+agentColumns,
		id, displayName, string(StatusAvailable), StatsDay(now), now))
	if err != nil {
		return Agent{}, fmt.Errorf("register agent: %w", err)
	}
	return a, nil
}

// Touch refreshes LastActiveAt and optionally the status.
func (r *Repo) Touch(ctx context.Context, id string, status *Status, now time.Time) (Agent, error) {
	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}
	a, err := scanAgent(r.pool.QueryRow(ctx, `
		UPDATE agents SET last_active_at = $2, status = COALESCE($3, status)
		WHERE id = $1
		RETURNING `+agentColumns, id, now, statusArg))
	if err != nil {
		return Agent{}, notFoundOr(err, "touch agent")
	}
	return a, nil
}

// SetStatus sets status and current lead.
func (r *Repo) SetStatus(ctx context.Context, id string, status Status, currentLead *uuid.UUID, now time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE agents SET status = $2, current_lead_id = $3, last_active_at = $4
		WHERE id = $1`, id, string(status), currentLead, now)
	if err != nil {
		return fmt.Errorf("set agent status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(agentNotFoundMessage)
	}
	return nil
}

// RecordCall credits a finished call.
func (r *Repo) RecordCall(ctx context.Context, id string, call CallRecord, now time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE agents
		SET calls_today       = CASE WHEN stats_day = $2 THEN calls_today + 1 ELSE 1 END,
			revenue_cents     = CASE WHEN stats_day = $2 THEN revenue_cents + $3 ELSE $3 END,
			talk_time_seconds = CASE WHEN stats_day = $2 THEN talk_time_seconds + $4 ELSE $4 END,
			stats_day = $2, status = $5, current_lead_id = NULL, last_active_at = $6
		WHERE id = $1`,
		id, StatsDay(now), call.RevenueCents, call.TalkTimeSeconds, string(StatusAvailable), now)
	if err != nil {
		return fmt.Errorf("record agent call: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(agentNotFoundMessage)
	}
	return nil
}

// ReleaseOnCall makes ON_CALL agents among ids AVAILABLE.
func (r *Repo) ReleaseOnCall(ctx context.Context, ids []string, now time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE agents SET status = $2, current_lead_id = NULL, last_active_at = $3
		WHERE id = ANY($1) AND status = $4`,
		ids, string(StatusAvailable), now, string(StatusOnCall))
	if err != nil {
		return 0, fmt.Errorf("release agents: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
