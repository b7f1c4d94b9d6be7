package repository

import (
	"context"
	"errors"
	"time"

	"power_dialer_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// ErrVersionConflict is returned when a record changed between the read and
// the conditional write of a transaction.
var ErrVersionConflict = errors.New("lead was modified concurrently")

// Lead is a work item waiting to be called.
type Lead struct {
	ID              uuid.UUID
	BusinessName    string
	ContactName     string
	Phone           string
	Email           *string
	Address         *string
	KGMID           *string
	Timezone        string
	UTCOffsetHours  int
	Status          domain.Status
	CampaignID      string
	RetryCount      int
	AssignedAgentID *string
	LockedUntil     *time.Time
	NextAvailableAt *time.Time
	LastCalledAt    *time.Time
	ClosedAt        *time.Time
	Notes           *string
	// Version increments on every committed write.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LeaseLive reports whether an agent holds an unexpired lease at now.
func (l Lead) LeaseLive(now time.Time) bool {
	return l.AssignedAgentID != nil && l.LockedUntil != nil && l.LockedUntil.After(now)
}

// HeldBy reports whether agentID holds a live lease at now.
func (l Lead) HeldBy(agentID string, now time.Time) bool {
	return l.LeaseLive(now) && *l.AssignedAgentID == agentID
}

// ClearLease drops the agent reservation.
func (l *Lead) ClearLease() {
	l.AssignedAgentID = nil
	l.LockedUntil = nil
}

// Mutation edits a snapshot of a lead inside a transaction. Returning false
// commits nothing; returning an error aborts.
type Mutation func(lead *Lead) (bool, error)

// ContactMatches holds the phone numbers and knowledge-graph ids already stored.
type ContactMatches struct {
	Phones map[string]bool
	KGMIDs map[string]bool
}

// TranscriptEntry is one utterance captured during a call.
type TranscriptEntry struct {
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// CallLog records a single dial attempt.
type CallLog struct {
	ID               uuid.UUID
	LeadID           uuid.UUID
	AgentID          string
	CallSID          *string
	Transcript       []TranscriptEntry
	Disposition      *string
	DispositionLabel *string
	Notes            *string
	StartedAt        time.Time
	EndedAt          *time.Time
	DurationSeconds  *int
}

// FinalizeCallLogParams closes a call log once the outcome is known.
type FinalizeCallLogParams struct {
	Disposition      string
	DispositionLabel *string
	Notes            *string
	EndedAt          time.Time
}

// LeadReader provides the queue and lookup queries.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	// ListDueCallbacks returns leads in status whose nextAvailableAt <= now,
	// oldest first.
	ListDueCallbacks(ctx context.Context, status domain.Status, now time.Time, limit int) ([]Lead, error)
	// ListFresh returns NEW leads of the given campaigns, oldest first.
	ListFresh(ctx context.Context, campaignIDs []string, limit int) ([]Lead, error)
	// ListStaleLeases returns IN_PROGRESS leads whose lease ended before now.
	ListStaleLeases(ctx context.Context, now time.Time, limit int) ([]Lead, error)
	// CountQueued counts leads in NEW or either callback status.
	CountQueued(ctx context.Context) (int, error)
	FindExistingContacts(ctx context.Context, phones []string, kgmids []string) (ContactMatches, error)
}

// LeadWriter provides the transactional writes.
type LeadWriter interface {
	// Update runs fn against a fresh snapshot and commits only if the stored
	// version is unchanged. A concurrent commit yields ErrVersionConflict.
	Update(ctx context.Context, id uuid.UUID, fn Mutation) (Lead, error)
	// UpdateBatch writes each lead on the condition that its stored version
	// still equals lead.Version. Returns the ids of the writes that applied.
	UpdateBatch(ctx context.Context, leads []Lead) ([]uuid.UUID, error)
	// InsertBatch stores new leads, skipping ones whose phone or kgmid exists.
	// Returns how many were inserted.
	InsertBatch(ctx context.Context, leads []Lead) (int, error)
}

// CallLogStore persists call logs.
type CallLogStore interface {
	CreateCallLog(ctx context.Context, log CallLog) (CallLog, error)
	GetCallLog(ctx context.Context, id uuid.UUID) (CallLog, error)
	AppendTranscript(ctx context.Context, id uuid.UUID, entries []TranscriptEntry) error
	FinalizeCallLog(ctx context.Context, id uuid.UUID, params FinalizeCallLogParams) (CallLog, error)
}

// Repository combines all lead store operations.
type Repository interface {
	LeadReader
	LeadWriter
	CallLogStore
}
