package lease

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"power_dialer_backend/internal/leads/domain"
	"power_dialer_backend/internal/leads/repository"
	"power_dialer_backend/platform/logger"

	"github.com/google/uuid"
)

var leaseAt = time.Date(2026, 6, 2, 15, 0, 0, 0, time.UTC)

func seed(repo *repository.MemoryRepo, mutate func(l *repository.Lead)) repository.Lead {
	l := repository.Lead{
		ID:         uuid.New(),
		Phone:      "+1650253" + uuid.NewString()[:4],
		Status:     domain.StatusNew,
		CampaignID: "wave1",
		CreatedAt:  leaseAt.Add(-time.Hour),
	}
	if mutate != nil {
		mutate(&l)
	}
	repo.Put(l)
	return l
}

func newManager(repo *repository.MemoryRepo) *Manager {
	return NewManager(repo, domain.DefaultPolicy(), logger.Discard())
}

func TestAcquireGrantsLease(t *testing.T) {
	repo := repository.NewMemory()
	l := seed(repo, nil)

	got, attempt, err := newManager(repo).Acquire(context.Background(), l.ID, "agent-1", leaseAt)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if attempt != AttemptAcquired {
		t.Fatalf("expected acquired, got %v", attempt)
	}

	if got.Status != domain.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", got.Status)
	}
	if got.AssignedAgentID == nil || *got.AssignedAgentID != "agent-1" {
		t.Fatalf("expected lease held by agent-1, got %v", got.AssignedAgentID)
	}
	if got.LockedUntil == nil || !got.LockedUntil.Equal(leaseAt.Add(domain.DefaultLeaseDuration)) {
		t.Fatalf("expected lease until %s, got %v", leaseAt.Add(domain.DefaultLeaseDuration), got.LockedUntil)
	}
	if got.LastCalledAt == nil || !got.LastCalledAt.Equal(leaseAt) {
		t.Fatalf("expected last called at %s, got %v", leaseAt, got.LastCalledAt)
	}
}

func TestAcquireOutcomes(t *testing.T) {
	agent := "agent-9"
	live := leaseAt.Add(30 * time.Second)
	expired := leaseAt.Add(-time.Second)

	cases := []struct {
		name   string
		mutate func(l *repository.Lead)
		want   Attempt
		status domain.Status
	}{
		{
			name: "live lease held by another agent",
			mutate: func(l *repository.Lead) {
				l.Status = domain.StatusCallbackAuto
				l.AssignedAgentID = &agent
				l.LockedUntil = &live
			},
			want:   AttemptHeld,
			status: domain.StatusCallbackAuto,
		},
		{
			name: "expired lease is reclaimable",
			mutate: func(l *repository.Lead) {
				l.Status = domain.StatusCallbackAuto
				l.AssignedAgentID = &agent
				l.LockedUntil = &expired
			},
			want:   AttemptAcquired,
			status: domain.StatusInProgress,
		},
		{
			name:   "terminal lead",
			mutate: func(l *repository.Lead) { l.Status = domain.StatusClosed },
			want:   AttemptNotClaimable,
			status: domain.StatusClosed,
		},
		{
			name:   "already in progress",
			mutate: func(l *repository.Lead) { l.Status = domain.StatusInProgress },
			want:   AttemptNotClaimable,
			status: domain.StatusInProgress,
		},
		{
			name: "past the retry ceiling",
			mutate: func(l *repository.Lead) {
				l.Status = domain.StatusCallbackAuto
				l.RetryCount = domain.DefaultRetryCeiling + 1
			},
			want:   AttemptExhausted,
			status: domain.StatusExhausted,
		},
		{
			name: "at the retry ceiling",
			mutate: func(l *repository.Lead) {
				l.Status = domain.StatusCallbackAuto
				l.RetryCount = domain.DefaultRetryCeiling
			},
			want:   AttemptAcquired,
			status: domain.StatusInProgress,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := repository.NewMemory()
			l := seed(repo, tc.mutate)

			_, attempt, err := newManager(repo).Acquire(context.Background(), l.ID, "agent-1", leaseAt)
			if err != nil {
				t.Fatalf("acquire: %v", err)
			}
			if attempt != tc.want {
				t.Fatalf("expected attempt %v, got %v", tc.want, attempt)
			}

			stored, err := repo.GetByID(context.Background(), l.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if stored.Status != tc.status {
				t.Fatalf("expected stored status %s, got %s", tc.status, stored.Status)
			}
		})
	}
}

func TestAcquireMissingLead(t *testing.T) {
	_, attempt, err := newManager(repository.NewMemory()).Acquire(context.Background(), uuid.New(), "agent-1", leaseAt)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if attempt != AttemptMissing {
		t.Fatalf("expected missing, got %v", attempt)
	}
}

type failingStore struct{ err error }

func (f failingStore) Update(context.Context, uuid.UUID, repository.Mutation) (repository.Lead, error) {
	return repository.Lead{}, f.err
}

func TestAcquirePropagatesStoreFailure(t *testing.T) {
	down := errors.New("connection refused")
	m := NewManager(failingStore{err: down}, domain.DefaultPolicy(), logger.Discard())

	if _, _, err := m.Acquire(context.Background(), uuid.New(), "agent-1", leaseAt); !errors.Is(err, down) {
		t.Fatalf("expected store failure, got %v", err)
	}
}

func TestConcurrentAcquireHasSingleWinner(t *testing.T) {
	repo := repository.NewMemory()
	l := seed(repo, nil)
	m := newManager(repo)

	const agents = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
	)
	start := make(chan struct{})
	for i := 0; i < agents; i++ {
		agentID := "agent-" + uuid.NewString()[:8]
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, attempt, err := m.Acquire(context.Background(), l.ID, agentID, leaseAt)
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			if attempt == AttemptAcquired {
				mu.Lock()
				winners = append(winners, agentID)
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	if len(winners) != 1 {
		t.Fatalf("expected a single winner, got %d", len(winners))
	}
	stored, err := repo.GetByID(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.AssignedAgentID == nil || *stored.AssignedAgentID != winners[0] {
		t.Fatalf("expected lease held by %s, got %v", winners[0], stored.AssignedAgentID)
	}
}

func TestAcquireFirstSkipsLostCandidates(t *testing.T) {
	repo := repository.NewMemory()
	other := "agent-2"
	live := leaseAt.Add(time.Minute)
	held := seed(repo, func(l *repository.Lead) {
		l.AssignedAgentID = &other
		l.LockedUntil = &live
	})
	closed := seed(repo, func(l *repository.Lead) { l.Status = domain.StatusClosed })
	free := seed(repo, nil)

	got, ok, err := newManager(repo).AcquireFirst(context.Background(), []repository.Lead{held, closed, free}, "agent-1", leaseAt)
	if err != nil {
		t.Fatalf("acquire first: %v", err)
	}
	if !ok || got.ID != free.ID {
		t.Fatalf("expected free lead %s, got ok=%v id=%s", free.ID, ok, got.ID)
	}
}

func TestAcquireFirstWithoutClaimableCandidates(t *testing.T) {
	repo := repository.NewMemory()
	blocked := seed(repo, func(l *repository.Lead) { l.Status = domain.StatusBlacklisted })

	_, ok, err := newManager(repo).AcquireFirst(context.Background(), []repository.Lead{blocked}, "agent-1", leaseAt)
	if err != nil {
		t.Fatalf("acquire first: %v", err)
	}
	if ok {
		t.Fatal("expected no lead to be acquired")
	}
}

func TestAcquireFirstStopsOnCancelledContext(t *testing.T) {
	repo := repository.NewMemory()
	free := seed(repo, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := newManager(repo).AcquireFirst(ctx, []repository.Lead{free}, "agent-1", leaseAt)
	if !errors.Is(err, context.Canceled) || ok {
		t.Fatalf("expected cancellation without a lease, got ok=%v err=%v", ok, err)
	}
}
