package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is an agent's presence on the dialer.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusOnCall    Status = "ON_CALL"
	StatusOffline   Status = "OFFLINE"
	StatusBusy      Status = "BUSY"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusAvailable, StatusOnCall, StatusOffline, StatusBusy:
		return Status(s), true
	}
	return "", false
}

// Agent is a dialer seat and its daily counters.
type Agent struct {
	ID              string
	DisplayName     string
	Status          Status
	CurrentLeadID   *uuid.UUID
	CallsToday      int
	RevenueCents    int64
	TalkTimeSeconds int64
	// StatsDay is the UTC day the counters belong to.
	StatsDay     time.Time
	LastActiveAt time.Time
	CreatedAt    time.Time
}

// CallRecord is one finished call credited to an agent.
type CallRecord struct {
	RevenueCents    int64
	TalkTimeSeconds int64
}

// Repository persists agents.
type Repository interface {
	GetByID(ctx context.Context, id string) (Agent, error)
	List(ctx context.Context) ([]Agent, error)
	// Register creates the agent or brings it back AVAILABLE, keeping its counters.
	Register(ctx context.Context, id, displayName string, now time.Time) (Agent, error)
	// Touch refreshes LastActiveAt and, when status is non-nil, the status.
	Touch(ctx context.Context, id string, status *Status, now time.Time) (Agent, error)
	// SetStatus sets status and current lead.
	SetStatus(ctx context.Context, id string, status Status, currentLead *uuid.UUID, now time.Time) error
	// RecordCall credits a finished call, rolling counters over when the UTC day
	// changed, and returns the agent to AVAILABLE.
	RecordCall(ctx context.Context, id string, call CallRecord, now time.Time) error
	// ReleaseOnCall makes ON_CALL agents among ids AVAILABLE again.
	ReleaseOnCall(ctx context.Context, ids []string, now time.Time) (int, error)
}

// StatsDay truncates t to its UTC day.
func StatsDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
