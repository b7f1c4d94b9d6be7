// Package reaper returns leads whose lease expired without a disposition to the queue.
package reaper

import (
	"context"
	"time"

	"power_dialer_backend/internal/events"
	"power_dialer_backend/internal/leads/domain"
	"power_dialer_backend/internal/leads/repository"
	"power_dialer_backend/platform/config"
	"power_dialer_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultInterval = 2 * time.Minute
	sweepLockKey    = "dialer:reaper:sweep"
)

// Store is the read and batch-write side the reaper needs.
type Store interface {
	ListStaleLeases(ctx context.Context, now time.Time, limit int) ([]repository.Lead, error)
	UpdateBatch(ctx context.Context, leads []repository.Lead) ([]uuid.UUID, error)
}

// Locker provides a cross-process single-flight guard. ok is false when
// another holder has the key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error)
}

// Reaper releases expired leases.
type Reaper struct {
	store    Store
	policy   domain.Policy
	log      *logger.Logger
	bus      events.Bus
	locker   Locker
	interval time.Duration
	now      func() time.Time
}

// New creates a reaper. bus and locker may be nil.
func New(store Store, policy domain.Policy, bus events.Bus, log *logger.Logger) *Reaper {
	return &Reaper{
		store:    store,
		policy:   policy,
		log:      log,
		bus:      bus,
		interval: defaultInterval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NewFromConfig creates a reaper whose policy and sweep interval come from
// cfg. The interval is also the sweep lock TTL.
func NewFromConfig(store Store, cfg config.DialerConfig, bus events.Bus, log *logger.Logger) *Reaper {
	policy := domain.DefaultPolicy().WithOverrides(cfg.GetLeaseDuration(), cfg.GetRetryCeiling(), cfg.GetReaperBatchSize())
	r := New(store, policy, bus, log)
	r.SetInterval(cfg.GetReaperInterval())
	return r
}

// SetLocker installs a distributed lock so replicas do not sweep at once.
func (r *Reaper) SetLocker(locker Locker) {
	r.locker = locker
}

// SetInterval changes the period used by Run.
func (r *Reaper) SetInterval(interval time.Duration) {
	if interval > 0 {
		r.interval = interval
	}
}

// Interval returns the sweep period.
func (r *Reaper) Interval() time.Duration {
	return r.interval
}

// Restore computes the queued state of an abandoned lead.
func Restore(l repository.Lead, now time.Time) repository.Lead {
	if l.RetryCount > 0 {
		next := now.Add(domain.AbandonedCallbackDelay)
		l.Status = domain.StatusCallbackAuto
		l.NextAvailableAt = &next
	} else {
		l.Status = domain.StatusNew
		l.NextAvailableAt = nil
	}
	l.ClearLease()
	return l
}

// Sweep releases up to one batch of expired leases at now and returns how
// many were released. Leads already released by a concurrent sweep are skipped.
func (r *Reaper) Sweep(ctx context.Context, now time.Time) (int, error) {
	if r.locker != nil {
		unlock, ok, err := r.locker.TryLock(ctx, sweepLockKey, r.interval)
		switch {
		case err != nil:
			r.log.Warn("reaper lock unavailable, sweeping without it", "error", err)
		case !ok:
			r.log.Debug("reaper sweep already running elsewhere")
			return 0, nil
		default:
			defer unlock()
		}
	}

	stale, err := r.store.ListStaleLeases(ctx, now, r.policy.ReaperBatchSize)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	restored := make([]repository.Lead, 0, len(stale))
	agentByLead := make(map[uuid.UUID]string, len(stale))
	for _, l := range stale {
		if l.AssignedAgentID != nil {
			agentByLead[l.ID] = *l.AssignedAgentID
		}
		restored = append(restored, Restore(l, now))
	}

	applied, err := r.store.UpdateBatch(ctx, restored)
	if err != nil {
		return 0, err
	}
	released := len(applied)
	if released == 0 {
		return 0, nil
	}

	// only leads whose write landed; the rest were disposed or swept elsewhere
	leadIDs := make([]string, 0, released)
	agents := make([]string, 0, released)
	for _, id := range applied {
		leadIDs = append(leadIDs, id.String())
		if agent, ok := agentByLead[id]; ok {
			agents = append(agents, agent)
		}
	}

	r.log.Info("released stale leases", "released", released, "scanned", len(stale))
	if r.bus != nil {
		r.bus.Publish(ctx, events.StaleLeasesReleased{
			BaseEvent: events.NewBaseEventAt(now),
			LeadIDs:   leadIDs,
			AgentIDs:  agents,
			Released:  released,
		})
	}
	return released, nil
}

// Run sweeps immediately and then on every interval until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	if r == nil || r.store == nil {
		return
	}

	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Reaper) tick(ctx context.Context) {
	if _, err := r.Sweep(ctx, r.now()); err != nil {
		r.log.Warn("stale lease sweep failed", "error", err)
	}
}
