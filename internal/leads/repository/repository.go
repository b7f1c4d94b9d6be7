package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"power_dialer_backend/internal/leads/domain"
	"power_dialer_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	leadNotFoundMessage    = "lead not found"
	callLogNotFoundMessage = "call log not found"
)

const leadColumns = `id, business_name, contact_name, phone, email, address, kgmid, timezone, utc_offset_hours,
	status, campaign_id, retry_count, assigned_agent_id, locked_until, next_available_at, last_called_at,
	closed_at, notes, version, created_at, updated_at`

const updateLeadLifecycle = `
	UPDATE leads
	SET status = $2, retry_count = $3, assigned_agent_id = $4, locked_until = $5,
		next_available_at = $6, last_called_at = $7, closed_at = $8, notes = $9,
		version = version + 1, updated_at = $10
	WHERE id = $1 AND version = $11`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (Lead, error) {
	var l Lead
	var status string
	err := row.Scan(
		&l.ID, &l.BusinessName, &l.ContactName, &l.Phone, &l.Email, &l.Address, &l.KGMID, &l.Timezone, &l.UTCOffsetHours,
		&status, &l.CampaignID, &l.RetryCount, &l.AssignedAgentID, &l.LockedUntil, &l.NextAvailableAt, &l.LastCalledAt,
		&l.ClosedAt, &l.Notes, &l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}
	parsed, ok := domain.ParseStatus(status)
	if !ok {
		return Lead{}, fmt.Errorf("lead %s has unknown status %q", l.ID, status)
	}
	l.Status = parsed
	return l, nil
}

func collectLeads(rows pgx.Rows) ([]Lead, error) {
	defer rows.Close()
	leads := make([]Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// GetByID retrieves a lead by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	l, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("get lead by id: %w", err)
	}
	return l, nil
}

// ListDueCallbacks retrieves callback leads that are due, earliest first.
func (r *Repo) ListDueCallbacks(ctx context.Context, status domain.Status, now time.Time, limit int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE status = $1 AND next_available_at <= $2
		ORDER BY next_available_at ASC, created_at ASC, id ASC
		LIMIT $3`, string(status), now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due callbacks: %w", err)
	}
	return collectLeads(rows)
}

// ListFresh retrieves NEW leads of active campaigns, oldest first.
func (r *Repo) ListFresh(ctx context.Context, campaignIDs []string, limit int) ([]Lead, error) {
	if len(campaignIDs) == 0 {
		return []Lead{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE status = $1 AND campaign_id = ANY($2)
		ORDER BY created_at ASC, id ASC
		LIMIT $3`, string(domain.StatusNew), campaignIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("list fresh leads: %w", err)
	}
	return collectLeads(rows)
}

// ListStaleLeases retrieves in-progress leads whose lease expired before now.
func (r *Repo) ListStaleLeases(ctx context.Context, now time.Time, limit int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE status = $1 AND locked_until < $2
		ORDER BY locked_until ASC, id ASC
		LIMIT $3`, string(domain.StatusInProgress), now, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale leases: %w", err)
	}
	return collectLeads(rows)
}

// CountQueued counts leads still waiting to be called.
func (r *Repo) CountQueued(ctx context.Context) (int, error) {
	statuses := make([]string, 0, len(domain.QueuedStatuses))
	for _, s := range domain.QueuedStatuses {
		statuses = append(statuses, string(s))
	}

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads WHERE status = ANY($1)`, statuses).Scan(&count); err != nil {
		return 0, fmt.Errorf("count queued leads: %w", err)
	}
	return count, nil
}

// FindExistingContacts reports which phones and kgmids are already stored.
func (r *Repo) FindExistingContacts(ctx context.Context, phones []string, kgmids []string) (ContactMatches, error) {
	matches := ContactMatches{Phones: map[string]bool{}, KGMIDs: map[string]bool{}}
	if len(phones) == 0 && len(kgmids) == 0 {
		return matches, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT phone, kgmid
		FROM leads
		WHERE phone = ANY($1) OR kgmid = ANY($2)`, phones, kgmids)
	if err != nil {
		return ContactMatches{}, fmt.Errorf("find existing contacts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var phone string
		var kgmid *string
		if err := rows.Scan(&phone, &kgmid); err != nil {
			return ContactMatches{}, err
		}
		matches.Phones[phone] = true
		if kgmid != nil {
			matches.KGMIDs[*kgmid] = true
		}
	}
	return matches, rows.Err()
}

// Update reads the lead, applies fn and writes it back on an unchanged version.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, fn Mutation) (Lead, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Lead{}, fmt.Errorf("begin lead update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanLead(tx.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("read lead for update: %w", err)
	}

	next := current
	write, err := fn(&next)
	if err != nil {
		return Lead{}, err
	}
	if !write {
		return current, nil
	}

	next.UpdatedAt = time.Now().UTC()
	tag, err := tx.Exec(ctx, updateLeadLifecycle, lifecycleArgs(next, current.Version)...)
	if err != nil {
		return Lead{}, fmt.Errorf("write lead update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Lead{}, ErrVersionConflict
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, fmt.Errorf("commit lead update: %w", err)
	}
	next.Version = current.Version + 1
	return next, nil
}

// UpdateBatch applies version-conditional lifecycle writes in one transaction
// and returns the ids of the leads whose write landed.
func (r *Repo) UpdateBatch(ctx context.Context, leads []Lead) ([]uuid.UUID, error) {
	if len(leads) == 0 {
		return nil, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin lead batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, l := range leads {
		l.UpdatedAt = now
		batch.Queue(updateLeadLifecycle, lifecycleArgs(l, l.Version)...)
	}

	results := tx.SendBatch(ctx, batch)
	applied := make([]uuid.UUID, 0, len(leads))
	for _, l := range leads {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return nil, fmt.Errorf("write lead batch: %w", err)
		}
		if tag.RowsAffected() == 1 {
			applied = append(applied, l.ID)
		}
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("close lead batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit lead batch: %w", err)
	}
	return applied, nil
}

// InsertBatch inserts leads, skipping duplicates on phone or kgmid.
func (r *Repo) InsertBatch(ctx context.Context, leads []Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, l := range leads {
		batch.Queue(`
			INSERT INTO leads (
				id, business_name, contact_name, phone, email, address, kgmid, timezone, utc_offset_hours,
				status, campaign_id, retry_count, notes, version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 0, $14, $14)
			ON CONFLICT DO NOTHING`,
			l.ID, l.BusinessName, l.ContactName, l.Phone, l.Email, l.Address, l.KGMID, l.Timezone, l.UTCOffsetHours,
			string(l.Status), l.CampaignID, l.RetryCount, l.Notes, l.CreatedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range leads {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert lead batch: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func lifecycleArgs(l Lead, expectedVersion int64) []any {
	return []any{
		l.ID, string(l.Status), l.RetryCount, l.AssignedAgentID, l.LockedUntil,
		l.NextAvailableAt, l.LastCalledAt, l.ClosedAt, l.Notes, l.UpdatedAt, expectedVersion,
	}
}

// =============================================================================
// Call logs
// =============================================================================

const callLogColumns = `id, lead_id, agent_id, call_sid, transcript, disposition, disposition_label, notes,
	started_at, ended_at, duration_seconds`

func scanCallLog(row rowScanner) (CallLog, error) {
	var c CallLog
	var transcript []byte
	if err := row.Scan(
		&c.ID, &c.LeadID, &c.AgentID, &c.CallSID, &transcript, &c.Disposition, &c.DispositionLabel, &c.Notes,
		&c.StartedAt, &c.EndedAt, &c.DurationSeconds,
	); err != nil {
		return CallLog{}, err
	}
	c.Transcript = []TranscriptEntry{}
	if len(transcript) > 0 {
		if err := json.Unmarshal(transcript, &c.Transcript); err != nil {
			return CallLog{}, fmt.Errorf("decode transcript: %w", err)
		}
	}
	return c, nil
}

// CreateCallLog stores a new call log.
func (r *Repo) CreateCallLog(ctx context.Context, log CallLog) (CallLog, error) {
	transcript, err := json.Marshal(nonNilTranscript(log.Transcript))
	if err != nil {
		return CallLog{}, err
	}

	created, err := scanCallLog(r.pool.QueryRow(ctx, `
		INSERT INTO call_logs (id, lead_id, agent_id, call_sid, transcript, started_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)
		RETURNING `+callLogColumns,
		log.ID, log.LeadID, log.AgentID, log.CallSID, string(transcript), log.StartedAt,
	))
	if err != nil {
		return CallLog{}, fmt.Errorf("create call log: %w", err)
	}
	return created, nil
}

// GetCallLog retrieves a call log by ID.
func (r *Repo) GetCallLog(ctx context.Context, id uuid.UUID) (CallLog, error) {
	c, err := scanCallLog(r.pool.QueryRow(ctx, `SELECT `+callLogColumns+` FROM call_logs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CallLog{}, apperr.NotFound(callLogNotFoundMessage)
		}
		return CallLog{}, fmt.Errorf("get call log: %w", err)
	}
	return c, nil
}

// AppendTranscript appends entries to the stored transcript.
func (r *Repo) AppendTranscript(ctx context.Context, id uuid.UUID, entries []TranscriptEntry) error {
	payload, err := json.Marshal(nonNilTranscript(entries))
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE call_logs
		SET transcript = transcript || $2::jsonb
		WHERE id = $1`, id, string(payload))
	if err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(callLogNotFoundMessage)
	}
	return nil
}

// FinalizeCallLog records the outcome and duration of a call.
func (r *Repo) FinalizeCallLog(ctx context.Context, id uuid.UUID, params FinalizeCallLogParams) (CallLog, error) {
	c, err := scanCallLog(r.pool.QueryRow(ctx, `
		UPDATE call_logs
		SET disposition = $2,
			disposition_label = $3,
			notes = COALESCE($4, notes),
			ended_at = $5,
			duration_seconds = GREATEST(0, EXTRACT(EPOCH FROM ($5 - started_at)))::int
		WHERE id = $1
		RETURNING `+callLogColumns,
		id, params.Disposition, params.DispositionLabel, params.Notes, params.EndedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CallLog{}, apperr.NotFound(callLogNotFoundMessage)
		}
		return CallLog{}, fmt.Errorf("finalize call log: %w", err)
	}
	return c, nil
}

func nonNilTranscript(entries []TranscriptEntry) []TranscriptEntry {
	if entries == nil {
		return []TranscriptEntry{}
	}
	return entries
}
