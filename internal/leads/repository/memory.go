package repository

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"power_dialer_backend/internal/leads/domain"
	"power_dialer_backend/platform/apperr"

	"github.com/google/uuid"
)

// MemoryRepo is an in-process Repository with the same optimistic
// concurrency contract as the PostgreSQL store. Mutations run outside the
// lock, so concurrent writers race exactly as they would against the database.
type MemoryRepo struct {
	mu       sync.Mutex
	leads    map[uuid.UUID]Lead
	callLogs map[uuid.UUID]CallLog
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryRepo {
	return &MemoryRepo{
		leads:    make(map[uuid.UUID]Lead),
		callLogs: make(map[uuid.UUID]CallLog),
	}
}

var _ Repository = (*MemoryRepo)(nil)

// Put stores l as-is, replacing any lead with the same ID. Used for seeding.
func (m *MemoryRepo) Put(l Lead) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads[l.ID] = l
}

// GetByID retrieves a lead by its ID.
func (m *MemoryRepo) GetByID(_ context.Context, id uuid.UUID) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return Lead{}, apperr.NotFound(leadNotFoundMessage)
	}
	return l, nil
}

func (m *MemoryRepo) filter(keep func(Lead) bool) []Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Lead, 0)
	for _, l := range m.leads {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

// createdBefore orders by creation time, then by id the way postgres orders
// uuid columns, so equal timestamps still give one fixed order.
func createdBefore(a, b Lead) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

func limitLeads(leads []Lead, limit int) []Lead {
	if limit > 0 && len(leads) > limit {
		return leads[:limit]
	}
	return leads
}

// ListDueCallbacks retrieves callback leads that are due, earliest first.
func (m *MemoryRepo) ListDueCallbacks(_ context.Context, status domain.Status, now time.Time, limit int) ([]Lead, error) {
	leads := m.filter(func(l Lead) bool {
		return l.Status == status && l.NextAvailableAt != nil && !l.NextAvailableAt.After(now)
	})
	sort.SliceStable(leads, func(i, j int) bool {
		if !leads[i].NextAvailableAt.Equal(*leads[j].NextAvailableAt) {
			return leads[i].NextAvailableAt.Before(*leads[j].NextAvailableAt)
		}
		return createdBefore(leads[i], leads[j])
	})
	return limitLeads(leads, limit), nil
}

// ListFresh retrieves NEW leads of the given campaigns, oldest first.
func (m *MemoryRepo) ListFresh(_ context.Context, campaignIDs []string, limit int) ([]Lead, error) {
	wanted := make(map[string]bool, len(campaignIDs))
	for _, id := range campaignIDs {
		wanted[id] = true
	}
	leads := m.filter(func(l Lead) bool {
		return l.Status == domain.StatusNew && wanted[l.CampaignID]
	})
	sort.SliceStable(leads, func(i, j int) bool {
		return createdBefore(leads[i], leads[j])
	})
	return limitLeads(leads, limit), nil
}

// ListStaleLeases retrieves in-progress leads whose lease expired before now.
func (m *MemoryRepo) ListStaleLeases(_ context.Context, now time.Time, limit int) ([]Lead, error) {
	leads := m.filter(func(l Lead) bool {
		return l.Status == domain.StatusInProgress && l.LockedUntil != nil && l.LockedUntil.Before(now)
	})
	sort.SliceStable(leads, func(i, j int) bool {
		if !leads[i].LockedUntil.Equal(*leads[j].LockedUntil) {
			return leads[i].LockedUntil.Before(*leads[j].LockedUntil)
		}
		return bytes.Compare(leads[i].ID[:], leads[j].ID[:]) < 0
	})
	return limitLeads(leads, limit), nil
}

// CountQueued counts leads still waiting to be called.
func (m *MemoryRepo) CountQueued(_ context.Context) (int, error) {
	return len(m.filter(func(l Lead) bool { return l.Status.IsQueued() })), nil
}

// FindExistingContacts reports which phones and kgmids are already stored.
func (m *MemoryRepo) FindExistingContacts(_ context.Context, phones []string, kgmids []string) (ContactMatches, error) {
	wantPhones := make(map[string]bool, len(phones))
	for _, p := range phones {
		wantPhones[p] = true
	}
	wantKGMIDs := make(map[string]bool, len(kgmids))
	for _, k := range kgmids {
		wantKGMIDs[k] = true
	}

	matches := ContactMatches{Phones: map[string]bool{}, KGMIDs: map[string]bool{}}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if wantPhones[l.Phone] {
			matches.Phones[l.Phone] = true
		}
		if l.KGMID != nil && wantKGMIDs[*l.KGMID] {
			matches.KGMIDs[*l.KGMID] = true
		}
	}
	return matches, nil
}

// Update snapshots the lead, applies fn without holding the lock and commits
// only if no other write landed in between.
func (m *MemoryRepo) Update(_ context.Context, id uuid.UUID, fn Mutation) (Lead, error) {
	m.mu.Lock()
	current, ok := m.leads[id]
	m.mu.Unlock()
	if !ok {
		return Lead{}, apperr.NotFound(leadNotFoundMessage)
	}

	next := current
	write, err := fn(&next)
	if err != nil {
		return Lead{}, err
	}
	if !write {
		return current, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.leads[id]
	if !ok {
		return Lead{}, apperr.NotFound(leadNotFoundMessage)
	}
	if stored.Version != current.Version {
		return Lead{}, ErrVersionConflict
	}

	next.ID = current.ID
	next.Version = current.Version + 1
	next.UpdatedAt = time.Now().UTC()
	m.leads[id] = next
	return next, nil
}

// UpdateBatch applies version-conditional lifecycle writes atomically and
// returns the ids of the leads whose write landed.
func (m *MemoryRepo) UpdateBatch(_ context.Context, leads []Lead) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	applied := make([]uuid.UUID, 0, len(leads))
	for _, l := range leads {
		stored, ok := m.leads[l.ID]
		if !ok || stored.Version != l.Version {
			continue
		}
		stored.Status = l.Status
		stored.RetryCount = l.RetryCount
		stored.AssignedAgentID = l.AssignedAgentID
		stored.LockedUntil = l.LockedUntil
		stored.NextAvailableAt = l.NextAvailableAt
		stored.LastCalledAt = l.LastCalledAt
		stored.ClosedAt = l.ClosedAt
		stored.Notes = l.Notes
		stored.Version++
		stored.UpdatedAt = now
		m.leads[l.ID] = stored
		applied = append(applied, l.ID)
	}
	return applied, nil
}

// InsertBatch inserts leads, skipping duplicates on phone or kgmid.
func (m *MemoryRepo) InsertBatch(_ context.Context, leads []Lead) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	phones := make(map[string]bool, len(m.leads))
	kgmids := make(map[string]bool)
	for _, l := range m.leads {
		phones[l.Phone] = true
		if l.KGMID != nil {
			kgmids[*l.KGMID] = true
		}
	}

	inserted := 0
	for _, l := range leads {
		if _, exists := m.leads[l.ID]; exists || phones[l.Phone] {
			continue
		}
		if l.KGMID != nil && kgmids[*l.KGMID] {
			continue
		}
		l.Version = 0
		l.UpdatedAt = l.CreatedAt
		m.leads[l.ID] = l
		phones[l.Phone] = true
		if l.KGMID != nil {
			kgmids[*l.KGMID] = true
		}
		inserted++
	}
	return inserted, nil
}

// CreateCallLog stores a new call log.
func (m *MemoryRepo) CreateCallLog(_ context.Context, log CallLog) (CallLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.Transcript = append([]TranscriptEntry{}, log.Transcript...)
	m.callLogs[log.ID] = log
	return log, nil
}

// GetCallLog retrieves a call log by ID.
func (m *MemoryRepo) GetCallLog(_ context.Context, id uuid.UUID) (CallLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.callLogs[id]
	if !ok {
		return CallLog{}, apperr.NotFound(callLogNotFoundMessage)
	}
	c.Transcript = append([]TranscriptEntry{}, c.Transcript...)
	return c, nil
}

// AppendTranscript appends entries to the stored transcript.
func (m *MemoryRepo) AppendTranscript(_ context.Context, id uuid.UUID, entries []TranscriptEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.callLogs[id]
	if !ok {
		return apperr.NotFound(callLogNotFoundMessage)
	}
	c.Transcript = append(append([]TranscriptEntry{}, c.Transcript...), entries...)
	m.callLogs[id] = c
	return nil
}

// FinalizeCallLog records the outcome and duration of a call.
func (m *MemoryRepo) FinalizeCallLog(_ context.Context, id uuid.UUID, params FinalizeCallLogParams) (CallLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.callLogs[id]
	if !ok {
		return CallLog{}, apperr.NotFound(callLogNotFoundMessage)
	}

	disposition := params.Disposition
	endedAt := params.EndedAt
	duration := int(endedAt.Sub(c.StartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}

	c.Disposition = &disposition
	c.DispositionLabel = params.DispositionLabel
	if params.Notes != nil {
		c.Notes = params.Notes
	}
	c.EndedAt = &endedAt
	c.DurationSeconds = &duration
	m.callLogs[id] = c
	return c, nil
}
