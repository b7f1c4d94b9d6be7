package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"power_dialer_backend/platform/apperr"
)

// MemoryRepo keeps zone locks in process. Lock checks and writes under one
// mutex, matching the conditional upsert of the PostgreSQL store.
type MemoryRepo struct {
	mu    sync.Mutex
	zones map[string]Zone
}

// NewMemory creates an empty in-memory zone store.
func NewMemory() *MemoryRepo {
	return &MemoryRepo{zones: make(map[string]Zone)}
}

var _ Repository = (*MemoryRepo)(nil)

func (m *MemoryRepo) GetByID(_ context.Context, zoneID string) (Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.zones[zoneID]
	if !ok {
		return Zone{}, apperr.NotFound(zoneNotFoundMessage)
	}
	return z, nil
}

func (m *MemoryRepo) DeleteIfExpired(_ context.Context, zoneID string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.zones[zoneID]
	if !ok || !z.ExpiresAt.Before(now) {
		return false, nil
	}
	delete(m.zones, zoneID)
	return true, nil
}

func (m *MemoryRepo) Lock(_ context.Context, z Zone) (Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.zones[z.ZoneID]; ok && !existing.ExpiresAt.Before(z.LockedAt) {
		return existing, ErrZoneTaken
	}
	m.zones[z.ZoneID] = z
	return z, nil
}

func (m *MemoryRepo) ListByPlace(_ context.Context, placeID string) ([]Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Zone, 0)
	for _, z := range m.zones {
		if z.PlaceID == placeID {
			out = append(out, z)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LockedAt.After(out[j].LockedAt) })
	return out, nil
}
