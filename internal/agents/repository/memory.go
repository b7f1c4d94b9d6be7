package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"power_dialer_backend/platform/apperr"

	"github.com/google/uuid"
)

// MemoryRepo keeps agents in process.
type MemoryRepo struct {
	mu     sync.Mutex
	agents map[string]Agent
}

// NewMemory creates an empty in-memory agent store.
func NewMemory() *MemoryRepo {
	return &MemoryRepo{agents: make(map[string]Agent)}
}

var _ Repository = (*MemoryRepo)(nil)

func (m *MemoryRepo) GetByID(_ context.Context, id string) (Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[id]
	if !ok {
		return Agent{}, apperr.NotFound(agentNotFoundMessage)
	}
	return a, nil
}

func (m *MemoryRepo) List(_ context.Context) ([]Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Agent, 0, len(m.agents))
	for _, a := range m.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActiveAt.After(out[j].LastActiveAt) })
	return out, nil
}

func (m *MemoryRepo) Register(_ context.Context, id, displayName string, now time.Time) (Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[id]
	if !ok {
		a = Agent{ID: id, StatsDay: StatsDay(now), CreatedAt: now}
	}
	a.DisplayName = displayName
	a.Status = StatusAvailable
	a.CurrentLeadID = nil
	a.LastActiveAt = now
	m.agents[id] = a
	return a, nil
}

// update applies fn to a stored agent under the lock.
func (m *MemoryRepo) update(id string, fn func(*Agent)) (Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[id]
	if !ok {
		return Agent{}, apperr.NotFound(agentNotFoundMessage)
	}
	fn(&a)
	m.agents[id] = a
	return a, nil
}

func (m *MemoryRepo) Touch(_ context.Context, id string, status *Status, now time.Time) (Agent, error) {
	return m.update(id, func(a *Agent) {
		a.LastActiveAt = now
		if status != nil {
			a.Status = *status
		}
	})
}

func (m *MemoryRepo) SetStatus(_ context.Context, id string, status Status, currentLead *uuid.UUID, now time.Time) error {
	_, err := m.update(id, func(a *Agent) {
		a.Status = status
		a.CurrentLeadID = currentLead
		a.LastActiveAt = now
	})
	return err
}

func (m *MemoryRepo) RecordCall(_ context.Context, id string, call CallRecord, now time.Time) error {
	day := StatsDay(now)
	_, err := m.update(id, func(a *Agent) {
		if !a.StatsDay.Equal(day) {
			a.CallsToday, a.RevenueCents, a.TalkTimeSeconds = 0, 0, 0
			a.StatsDay = day
		}
		a.CallsToday++
		a.RevenueCents += call.RevenueCents
		a.TalkTimeSeconds += call.TalkTimeSeconds
		a.Status = StatusAvailable
		a.CurrentLeadID = nil
		a.LastActiveAt = now
	})
	return err
}

func (m *MemoryRepo) ReleaseOnCall(_ context.Context, ids []string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	released := 0
	for _, id := range ids {
		a, ok := m.agents[id]
		if !ok || a.Status != StatusOnCall {
			continue
		}
		a.Status = StatusAvailable
		a.CurrentLeadID = nil
		a.LastActiveAt = now
		m.agents[id] = a
		released++
	}
	return released, nil
}
