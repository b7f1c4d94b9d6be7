// Package lease grants agents short exclusive reservations on leads.
package lease

import (
	"context"
	"errors"
	"time"

	"power_dialer_backend/internal/leads/domain"
	"power_dialer_backend/internal/leads/repository"
	"power_dialer_backend/platform/apperr"
	"power_dialer_backend/platform/logger"

	"github.com/google/uuid"
)

// Attempt is the result of trying to lease one lead.
type Attempt int

const (
	AttemptAcquired Attempt = iota
	// AttemptMissing means the lead no longer exists.
	AttemptMissing
	// AttemptHeld means another lease is still live.
	AttemptHeld
	// AttemptNotClaimable means the lead left the queue since it was selected.
	AttemptNotClaimable
	// AttemptExhausted means the lead was past the retry ceiling and was retired.
	AttemptExhausted
	// AttemptConflict means a concurrent write won the race.
	AttemptConflict
)

func (a Attempt) String() string {
	switch a {
	case AttemptAcquired:
		return "acquired"
	case AttemptMissing:
		return "missing"
	case AttemptHeld:
		return "held"
	case AttemptNotClaimable:
		return "not_claimable"
	case AttemptExhausted:
		return "exhausted"
	case AttemptConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Store is the transactional write the manager needs.
type Store interface {
	Update(ctx context.Context, id uuid.UUID, fn repository.Mutation) (repository.Lead, error)
}

// Manager leases leads inside optimistic transactions.
type Manager struct {
	store  Store
	policy domain.Policy
	log    *logger.Logger
}

// NewManager creates a lease manager.
func NewManager(store Store, policy domain.Policy, log *logger.Logger) *Manager {
	return &Manager{store: store, policy: policy, log: log}
}

// Acquire tries once to lease leadID for agentID at now. Store failures are
// returned as errors; every other failure is reported through Attempt.
func (m *Manager) Acquire(ctx context.Context, leadID uuid.UUID, agentID string, now time.Time) (repository.Lead, Attempt, error) {
	attempt := AttemptConflict
	leased, err := m.store.Update(ctx, leadID, func(l *repository.Lead) (bool, error) {
		if !l.Status.IsQueued() {
			attempt = AttemptNotClaimable
			return false, nil
		}
		if l.LeaseLive(now) {
			attempt = AttemptHeld
			return false, nil
		}
		if m.policy.Exhausted(l.RetryCount) {
			l.Status = domain.StatusExhausted
			l.ClearLease()
			attempt = AttemptExhausted
			return true, nil
		}

		agent := agentID
		lockedUntil := now.Add(m.policy.LeaseDuration)
		calledAt := now
		l.Status = domain.StatusInProgress
		l.AssignedAgentID = &agent
		l.LockedUntil = &lockedUntil
		l.LastCalledAt = &calledAt
		attempt = AttemptAcquired
		return true, nil
	})

	switch {
	case err == nil:
	case errors.Is(err, repository.ErrVersionConflict):
		attempt = AttemptConflict
	case apperr.Is(err, apperr.KindNotFound):
		attempt = AttemptMissing
	default:
		return repository.Lead{}, attempt, err
	}

	if m.log != nil {
		m.log.WithContext(ctx).LeaseEvent(leadID.String(), agentID, attempt.String())
	}
	if attempt != AttemptAcquired {
		return repository.Lead{}, attempt, nil
	}
	return leased, attempt, nil
}

// AcquireFirst walks candidates in order, trying each exactly once, and stops
// at the first lease granted. ok is false when every candidate was lost.
func (m *Manager) AcquireFirst(ctx context.Context, candidates []repository.Lead, agentID string, now time.Time) (repository.Lead, bool, error) {
	for i := 0; i < len(candidates); i++ {
		if err := ctx.Err(); err != nil {
			return repository.Lead{}, false, err
		}
		leased, attempt, err := m.Acquire(ctx, candidates[i].ID, agentID, now)
		if err != nil {
			return repository.Lead{}, false, err
		}
		if attempt == AttemptAcquired {
			return leased, true, nil
		}
	}
	return repository.Lead{}, false, nil
}
