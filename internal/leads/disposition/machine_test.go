package disposition

import (
	"context"
	"errors"
	"testing"
	"time"

	"power_dialer_backend/internal/leads/domain"
	"power_dialer_backend/internal/leads/repository"
	"power_dialer_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var disposedAt = time.Date(2026, 6, 2, 15, 0, 0, 0, time.UTC)

const agentID = "agent-1"

func leasedLead(repo *repository.MemoryRepo, retries int) repository.Lead {
	agent := agentID
	until := disposedAt.Add(30 * time.Second)
	l := repository.Lead{
		ID:              uuid.New(),
		Phone:           "+16502530000",
		Status:          domain.StatusInProgress,
		CampaignID:      "wave1",
		RetryCount:      retries,
		AssignedAgentID: &agent,
		LockedUntil:     &until,
	}
	repo.Put(l)
	return l
}

func apply(t *testing.T, m *Machine, id uuid.UUID, outcome domain.Outcome, mutate func(*Request)) (repository.Lead, error) {
	t.Helper()
	req := Request{LeadID: id, AgentID: agentID, Outcome: outcome}
	if mutate != nil {
		mutate(&req)
	}
	return m.Apply(context.Background(), req, disposedAt)
}

func TestApplyTransitions(t *testing.T) {
	recall := disposedAt.Add(26 * time.Hour)

	cases := []struct {
		outcome  domain.Outcome
		recallAt *time.Time
		status   domain.Status
		retries  int
		next     *time.Time
		closed   bool
	}{
		{domain.OutcomeSuccess, nil, domain.StatusClosed, 2, nil, true},
		{domain.OutcomeDNC, nil, domain.StatusBlacklisted, 2, nil, false},
		{domain.OutcomeWrongNumber, nil, domain.StatusBlacklisted, 2, nil, false},
		{domain.OutcomeRecall, &recall, domain.StatusCallbackManual, 3, &recall, false},
		{domain.OutcomeRecall, nil, domain.StatusCallbackManual, 3, &disposedAt, false},
		{domain.OutcomeNoAnswer, nil, domain.StatusCallbackAuto, 3, ptr(disposedAt.Add(2 * time.Hour)), false},
		{domain.OutcomeBusy, nil, domain.StatusCallbackAuto, 3, ptr(disposedAt.Add(5 * time.Minute)), false},
		{domain.OutcomeVoicemail, nil, domain.StatusCallbackAuto, 3, ptr(disposedAt.Add(24 * time.Hour)), false},
		{domain.OutcomeOther, nil, domain.StatusCallbackAuto, 3, nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.outcome.String(), func(t *testing.T) {
			repo := repository.NewMemory()
			l := leasedLead(repo, 2)
			m := NewMachine(repo, domain.DefaultPolicy())

			got, err := apply(t, m, l.ID, tc.outcome, func(r *Request) { r.RecallAt = tc.recallAt })
			if err != nil {
				t.Fatalf("apply: %v", err)
			}

			if got.Status != tc.status || got.RetryCount != tc.retries {
				t.Fatalf("expected %s with %d retries, got %s with %d", tc.status, tc.retries, got.Status, got.RetryCount)
			}
			if got.AssignedAgentID != nil || got.LockedUntil != nil {
				t.Fatal("expected lease to be cleared")
			}
			switch {
			case tc.next == nil && got.NextAvailableAt != nil:
				t.Fatalf("expected no next availability, got %s", got.NextAvailableAt)
			case tc.next != nil && (got.NextAvailableAt == nil || !tc.next.Equal(*got.NextAvailableAt)):
				t.Fatalf("expected next availability %s, got %v", tc.next, got.NextAvailableAt)
			}
			if (got.ClosedAt != nil) != tc.closed {
				t.Fatalf("expected closed=%v, got closedAt %v", tc.closed, got.ClosedAt)
			}
		})
	}
}

func TestApplyExhaustsPastCeiling(t *testing.T) {
	repo := repository.NewMemory()
	m := NewMachine(repo, domain.DefaultPolicy())

	atCeiling := leasedLead(repo, domain.DefaultRetryCeiling)
	got, err := apply(t, m, atCeiling.ID, domain.OutcomeNoAnswer, nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Status != domain.StatusExhausted || got.RetryCount != domain.DefaultRetryCeiling+1 {
		t.Fatalf("expected EXHAUSTED with %d retries, got %s with %d", domain.DefaultRetryCeiling+1, got.Status, got.RetryCount)
	}

	below := leasedLead(repo, domain.DefaultRetryCeiling-1)
	got, err = apply(t, m, below.ID, domain.OutcomeBusy, nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Status != domain.StatusCallbackAuto {
		t.Fatalf("expected CALLBACK_AUTO below the ceiling, got %s", got.Status)
	}

	closing := leasedLead(repo, domain.DefaultRetryCeiling+3)
	got, err = apply(t, m, closing.ID, domain.OutcomeSuccess, nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Status != domain.StatusClosed {
		t.Fatalf("terminal outcomes win over exhaustion, got %s", got.Status)
	}
}

func TestApplyRejectsTerminalLead(t *testing.T) {
	repo := repository.NewMemory()
	m := NewMachine(repo, domain.DefaultPolicy())
	l := leasedLead(repo, 0)

	if _, err := apply(t, m, l.ID, domain.OutcomeSuccess, nil); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, err := apply(t, m, l.ID, domain.OutcomeNoAnswer, nil); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on a closed lead, got %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), l.ID)
	if stored.Status != domain.StatusClosed || stored.RetryCount != 0 {
		t.Fatalf("expected closed lead untouched, got %s with %d retries", stored.Status, stored.RetryCount)
	}
}

func TestApplyRejectsForeignLiveLease(t *testing.T) {
	repo := repository.NewMemory()
	m := NewMachine(repo, domain.DefaultPolicy())
	l := leasedLead(repo, 0)

	_, err := apply(t, m, l.ID, domain.OutcomeBusy, func(r *Request) { r.AgentID = "agent-2" })
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for another agent's live lease, got %v", err)
	}

	late := disposedAt.Add(time.Hour)
	got, err := m.Apply(context.Background(), Request{LeadID: l.ID, AgentID: "agent-2", Outcome: domain.OutcomeBusy}, late)
	if err != nil {
		t.Fatalf("an expired lease no longer protects the lead: %v", err)
	}
	if got.Status != domain.StatusCallbackAuto {
		t.Fatalf("expected CALLBACK_AUTO, got %s", got.Status)
	}
}

func TestApplyMissingLead(t *testing.T) {
	m := NewMachine(repository.NewMemory(), domain.DefaultPolicy())
	if _, err := apply(t, m, uuid.New(), domain.OutcomeBusy, nil); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMergeNotes(t *testing.T) {
	existing := "asked for owner"
	blank := "  "
	more := "call after lunch"

	if got := mergeNotes(&existing, nil); got == nil || *got != existing {
		t.Fatalf("expected existing notes kept, got %v", got)
	}
	if got := mergeNotes(&existing, &blank); got != nil {
		t.Fatalf("expected blank notes to clear, got %q", *got)
	}
	if got := mergeNotes(nil, &more); got == nil || *got != more {
		t.Fatalf("expected new notes, got %v", got)
	}
	if got := mergeNotes(&existing, &more); got == nil || *got != "asked for owner\ncall after lunch" {
		t.Fatalf("expected appended notes, got %v", got)
	}
}

// conflictingStore loses the first n commits to a simulated concurrent writer.
type conflictingStore struct {
	*repository.MemoryRepo
	losses int
	calls  int
}

func (s *conflictingStore) Update(ctx context.Context, id uuid.UUID, fn repository.Mutation) (repository.Lead, error) {
	s.calls++
	if s.calls <= s.losses {
		return repository.Lead{}, repository.ErrVersionConflict
	}
	return s.MemoryRepo.Update(ctx, id, fn)
}

func TestApplyRetriesLostCommits(t *testing.T) {
	store := &conflictingStore{MemoryRepo: repository.NewMemory(), losses: maxCommitAttempts - 1}
	l := leasedLead(store.MemoryRepo, 0)

	got, err := apply(t, NewMachine(store, domain.DefaultPolicy()), l.ID, domain.OutcomeVoicemail, nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Status != domain.StatusCallbackAuto {
		t.Fatalf("expected CALLBACK_AUTO, got %s", got.Status)
	}
	if got.RetryCount != 1 {
		t.Fatalf("the attempt is counted once, got %d", got.RetryCount)
	}
	if store.calls != maxCommitAttempts {
		t.Fatalf("expected %d commit attempts, got %d", maxCommitAttempts, store.calls)
	}
}

func TestApplyGivesUpAfterRepeatedConflicts(t *testing.T) {
	store := &conflictingStore{MemoryRepo: repository.NewMemory(), losses: maxCommitAttempts}
	l := leasedLead(store.MemoryRepo, 0)

	_, err := apply(t, NewMachine(store, domain.DefaultPolicy()), l.ID, domain.OutcomeVoicemail, nil)
	if !apperr.Is(err, apperr.KindConflict) || !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected a conflict wrapping the version error, got %v", err)
	}
}

func TestApplyKeepsRetryCeilingInvariant(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)
	policy := domain.DefaultPolicy()

	properties.Property("a lead past the ceiling is never left queued", prop.ForAll(
		func(codes []int) bool {
			repo := repository.NewMemory()
			m := NewMachine(repo, policy)
			l := leasedLead(repo, 0)

			for _, code := range codes {
				current, err := repo.GetByID(context.Background(), l.ID)
				if err != nil {
					return false
				}
				if current.Status.IsTerminal() {
					break
				}
				if _, err := m.Apply(context.Background(), Request{LeadID: l.ID, AgentID: agentID, Outcome: domain.Outcome(code)}, disposedAt); err != nil {
					return false
				}
			}

			final, err := repo.GetByID(context.Background(), l.ID)
			if err != nil {
				return false
			}
			if final.RetryCount > policy.RetryCeiling && !final.Status.IsTerminal() {
				return false
			}
			return len(codes) == 0 || (final.AssignedAgentID == nil && final.LockedUntil == nil)
		},
		gen.SliceOf(gen.IntRange(int(domain.OutcomeRecall), int(domain.OutcomeOther))),
	))

	properties.TestingRun(t)
}

func ptr(t time.Time) *time.Time {
	return &t
}
