package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"power_dialer_backend/platform/apperr"
)

// MemoryRepo keeps campaigns in process.
type MemoryRepo struct {
	mu        sync.RWMutex
	campaigns map[string]Campaign
}

// NewMemory creates an empty in-memory campaign store.
func NewMemory() *MemoryRepo {
	return &MemoryRepo{campaigns: make(map[string]Campaign)}
}

var _ Repository = (*MemoryRepo)(nil)

func (m *MemoryRepo) list(keep func(Campaign) bool) []Campaign {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Campaign, 0, len(m.campaigns))
	for _, c := range m.campaigns {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryRepo) List(_ context.Context) ([]Campaign, error) {
	return m.list(func(Campaign) bool { return true }), nil
}

func (m *MemoryRepo) ListActive(_ context.Context) ([]Campaign, error) {
	return m.list(func(c Campaign) bool { return c.IsActive }), nil
}

func (m *MemoryRepo) GetByID(_ context.Context, id string) (Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.campaigns[id]
	if !ok {
		return Campaign{}, apperr.NotFound(campaignNotFoundMessage)
	}
	return c, nil
}

func (m *MemoryRepo) Exists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.campaigns[id]
	return ok, nil
}

func (m *MemoryRepo) Upsert(_ context.Context, c Campaign) (Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.campaigns[c.ID]; ok {
		c.CreatedAt = existing.CreatedAt
	} else {
		c.CreatedAt = c.UpdatedAt
	}
	m.campaigns[c.ID] = c
	return c, nil
}

func (m *MemoryRepo) SetActive(_ context.Context, id string, active bool, now time.Time) (Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return Campaign{}, apperr.NotFound(campaignNotFoundMessage)
	}
	c.IsActive = active
	c.UpdatedAt = now
	m.campaigns[id] = c
	return c, nil
}

func (m *MemoryRepo) InsertMissing(_ context.Context, campaigns []Campaign) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for _, c := range campaigns {
		if _, ok := m.campaigns[c.ID]; ok {
			continue
		}
		c.UpdatedAt = c.CreatedAt
		m.campaigns[c.ID] = c
		inserted++
	}
	return inserted, nil
}
