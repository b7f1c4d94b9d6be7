// Package disposition applies call outcomes to leads.
package disposition

import (
	"context"
	"errors"
	"strings"
	"time"

	"power_dialer_backend/internal/leads/domain"
	"power_dialer_backend/internal/leads/repository"
	"power_dialer_backend/platform/apperr"

	"github.com/google/uuid"
)

// maxCommitAttempts bounds how often a disposition is recomputed after losing
// a write race, e.g. against a concurrent reaper sweep.
const maxCommitAttempts = 3

// Store is the transactional write the machine needs.
type Store interface {
	Update(ctx context.Context, id uuid.UUID, fn repository.Mutation) (repository.Lead, error)
}

// Request is one reported call outcome.
type Request struct {
	LeadID   uuid.UUID
	AgentID  string
	Outcome  domain.Outcome
	RecallAt *time.Time
	// Notes nil leaves stored notes untouched; blank clears them; anything
	// else is appended on a new line.
	Notes *string
}

// Machine moves a lead out of IN_PROGRESS according to the transition table.
type Machine struct {
	store  Store
	policy domain.Policy
}

// NewMachine creates a disposition machine.
func NewMachine(store Store, policy domain.Policy) *Machine {
	return &Machine{store: store, policy: policy}
}

// Apply records req at now and returns the updated lead.
func (m *Machine) Apply(ctx context.Context, req Request, now time.Time) (repository.Lead, error) {
	var lastErr error
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		updated, err := m.store.Update(ctx, req.LeadID, func(l *repository.Lead) (bool, error) {
			return true, m.transition(l, req, now)
		})
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return repository.Lead{}, err
		}
		lastErr = err
	}
	return repository.Lead{}, apperr.Wrap(apperr.KindConflict, "lead changed while recording the outcome, retry", lastErr)
}

func (m *Machine) transition(l *repository.Lead, req Request, now time.Time) error {
	if l.Status.IsTerminal() {
		return apperr.Conflict("lead is already " + strings.ToLower(string(l.Status)))
	}
	if req.AgentID != "" && l.LeaseLive(now) && !l.HeldBy(req.AgentID, now) {
		return apperr.Conflict("lead is leased to another agent")
	}

	effect := domain.Resolve(req.Outcome, now, req.RecallAt)
	if effect.IncrementRetry {
		l.RetryCount++
	}
	l.Status = m.policy.Settle(effect.Status, l.RetryCount)
	if effect.SetNextAvailable {
		next := effect.NextAvailableAt
		l.NextAvailableAt = &next
	}
	if effect.ClosedAt != nil {
		l.ClosedAt = effect.ClosedAt
	}
	l.ClearLease()
	l.Notes = mergeNotes(l.Notes, req.Notes)
	return nil
}

func mergeNotes(existing, incoming *string) *string {
	if incoming == nil {
		return existing
	}
	text := strings.TrimSpace(*incoming)
	if text == "" {
		return nil
	}
	if existing == nil || strings.TrimSpace(*existing) == "" {
		return &text
	}
	merged := *existing + "\n" + text
	return &merged
}
