package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"power_dialer_backend/internal/events"
	"power_dialer_backend/internal/leads/domain"
	"power_dialer_backend/internal/leads/importer"
	"power_dialer_backend/internal/leads/ports"
	"power_dialer_backend/internal/leads/reaper"
	"power_dialer_backend/internal/leads/repository"
	"power_dialer_backend/platform/apperr"
	"power_dialer_backend/platform/logger"
	"power_dialer_backend/platform/validator"

	"github.com/google/uuid"
)

// 15:00 UTC is inside 9-20 for UTC-4 leads.
var serviceNow = time.Date(2026, 6, 2, 15, 0, 0, 0, time.UTC)

type staticCampaigns struct {
	mu    sync.Mutex
	waves []ports.Wave
	calls int
}

func (s *staticCampaigns) ListActiveWaves(context.Context) ([]ports.Wave, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return append([]ports.Wave(nil), s.waves...), nil
}

type harness struct {
	svc       *Service
	repo      *repository.MemoryRepo
	campaigns *staticCampaigns
	bus       *events.InMemoryBus
	clock     time.Time
	seq       int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.Discard()
	repo := repository.NewMemory()
	bus := events.NewInMemoryBus(log)
	campaigns := &staticCampaigns{waves: []ports.Wave{{ID: "wave1", Window: domain.CallingWindow{StartHour: 9, EndHour: 20}}}}
	policy := domain.DefaultPolicy()

	h := &harness{repo: repo, campaigns: campaigns, bus: bus, clock: serviceNow}
	h.svc = New(repo, campaigns, policy,
		importer.New(repo, nil, validator.New(), "US", "wave1"),
		reaper.New(repo, policy, bus, log),
		bus, log)
	h.svc.SetClock(func() time.Time { return h.clock })
	return h
}

func (h *harness) next(t *testing.T, agentID string) NextLeadResult {
	t.Helper()
	res, err := h.svc.NextLead(context.Background(), agentID)
	if err != nil {
		t.Fatalf("next lead for %s: %v", agentID, err)
	}
	return res
}

func (h *harness) addLead(status domain.Status, offset int) repository.Lead {
	h.seq++
	l := repository.Lead{
		ID:             uuid.New(),
		BusinessName:   fmt.Sprintf("Shop %d", h.seq),
		Phone:          fmt.Sprintf("+1650253%04d", h.seq),
		Status:         status,
		CampaignID:     "wave1",
		UTCOffsetHours: offset,
		CreatedAt:      serviceNow.Add(-time.Duration(100-h.seq) * time.Minute),
	}
	h.repo.Put(l)
	return l
}

func TestNextLeadLeasesOldestFreshLead(t *testing.T) {
	h := newHarness(t)
	first := h.addLead(domain.StatusNew, -4)
	h.addLead(domain.StatusNew, -4)

	var leased events.LeadLeased
	h.bus.Subscribe(events.LeadLeased{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		leased = e.(events.LeadLeased)
		return nil
	}))

	res := h.next(t, "agent-1")
	if res.Lead == nil || res.Lead.ID != first.ID {
		t.Fatalf("expected oldest lead %s, got %+v", first.ID, res)
	}
	if res.Lead.Status != domain.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", res.Lead.Status)
	}
	if res.QueueDepth != 1 || res.Message != "" {
		t.Fatalf("expected depth 1 and no message, got %d %q", res.QueueDepth, res.Message)
	}

	h.bus.Wait()
	if leased.LeadID != first.ID || leased.AgentID != "agent-1" || leased.Tier != "fresh" {
		t.Fatalf("unexpected lease event %+v", leased)
	}
}

func TestNextLeadServesImportedLeadsInUploadOrder(t *testing.T) {
	h := newHarness(t)
	rows := make([]importer.Row, 0, 20)
	for i := 0; i < 20; i++ {
		rows = append(rows, importer.Row{
			BusinessName:   fmt.Sprintf("Shop %d", i),
			Phone:          fmt.Sprintf("+1650253%04d", 3000+i),
			Timezone:       "America/New_York",
			UTCOffsetHours: -4,
		})
	}
	if _, err := h.svc.Import(context.Background(), rows, "supervisor-1"); err != nil {
		t.Fatalf("import: %v", err)
	}

	for i := 0; i < 3; i++ {
		res := h.next(t, fmt.Sprintf("agent-%d", i))
		if res.Lead == nil || res.Lead.Phone != rows[i].Phone {
			t.Fatalf("agent %d: expected %s, got %+v", i, rows[i].Phone, res.Lead)
		}
	}
}

func TestNextLeadGivesConcurrentAgentsDistinctLeads(t *testing.T) {
	h := newHarness(t)
	const leads = 10
	for i := 0; i < leads; i++ {
		h.addLead(domain.StatusNew, -4)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[uuid.UUID]string{}
	)
	for i := 0; i < leads; i++ {
		agentID := fmt.Sprintf("agent-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.svc.NextLead(context.Background(), agentID)
			if err != nil {
				t.Errorf("NextLead: %v", err)
				return
			}
			if res.Lead == nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if other, dup := seen[res.Lead.ID]; dup {
				t.Errorf("lead %s handed to %s and %s", res.Lead.ID, other, agentID)
			}
			seen[res.Lead.ID] = agentID
		}()
	}
	wg.Wait()

	if len(seen) == 0 {
		t.Fatal("expected at least one agent to get a lead")
	}
}

func TestNextLeadMessages(t *testing.T) {
	t.Run("no active campaign", func(t *testing.T) {
		h := newHarness(t)
		h.addLead(domain.StatusNew, -4)
		h.campaigns.waves = nil

		res := h.next(t, "agent-1")
		if res.Lead != nil || res.Message != msgNoActiveCampaign || res.QueueDepth != 0 {
			t.Fatalf("unexpected result %+v", res)
		}
	})

	t.Run("outside window", func(t *testing.T) {
		h := newHarness(t)
		h.addLead(domain.StatusNew, 8)

		res := h.next(t, "agent-1")
		if res.Lead != nil || res.Message != msgOutsideWindow || res.QueueDepth != 1 {
			t.Fatalf("unexpected result %+v", res)
		}
	})

	t.Run("empty queue", func(t *testing.T) {
		h := newHarness(t)
		if res := h.next(t, "agent-1"); res.Message != msgQueueEmpty {
			t.Fatalf("expected %q, got %q", msgQueueEmpty, res.Message)
		}
	})

	t.Run("every candidate held", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLead(domain.StatusNew, -4)
		_, err := h.repo.Update(context.Background(), l.ID, func(lead *repository.Lead) (bool, error) {
			other := "agent-2"
			until := serviceNow.Add(time.Minute)
			lead.AssignedAgentID = &other
			lead.LockedUntil = &until
			return true, nil
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}

		res := h.next(t, "agent-1")
		if res.Lead != nil || res.Message != msgLockContention {
			t.Fatalf("unexpected result %+v", res)
		}
	})
}

func TestNextLeadReadsCampaignsEveryCall(t *testing.T) {
	h := newHarness(t)
	h.addLead(domain.StatusNew, -4)

	h.campaigns.waves = nil
	if res := h.next(t, "agent-1"); res.Lead != nil {
		t.Fatal("expected no lead without an active campaign")
	}

	h.campaigns.waves = []ports.Wave{{ID: "wave1", Window: domain.CallingWindow{StartHour: 9, EndHour: 20}}}
	if res := h.next(t, "agent-1"); res.Lead == nil {
		t.Fatal("expected a lead once the campaign is active")
	}
	if h.campaigns.calls != 2 {
		t.Fatalf("expected campaigns read on each call, got %d reads", h.campaigns.calls)
	}
}

func TestNextLeadRequiresAgent(t *testing.T) {
	if _, err := newHarness(t).svc.NextLead(context.Background(), "  "); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLeaseDisposeCycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addLead(domain.StatusNew, -4)

	res := h.next(t, "agent-1")
	if res.Lead == nil {
		t.Fatal("expected a lead")
	}

	call, err := h.svc.StartCall(ctx, res.Lead.ID, "agent-1", nil)
	if err != nil {
		t.Fatalf("start call: %v", err)
	}
	if err := h.svc.AppendTranscript(ctx, call.ID, "agent", "Hi, is this the owner?"); err != nil {
		t.Fatalf("append transcript: %v", err)
	}

	var disposed events.LeadDisposed
	h.bus.Subscribe(events.LeadDisposed{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		disposed = e.(events.LeadDisposed)
		return nil
	}))

	h.clock = serviceNow.Add(42 * time.Second)
	notes := "owner out until friday"
	out, err := h.svc.Dispose(ctx, DisposeParams{
		LeadID:    res.Lead.ID,
		AgentID:   "agent-1",
		Action:    "no_answer",
		Notes:     &notes,
		CallLogID: &call.ID,
	})
	if err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if out.Outcome != domain.OutcomeNoAnswer || out.Lead.Status != domain.StatusCallbackAuto || out.Lead.RetryCount != 1 {
		t.Fatalf("unexpected disposition %s -> %s with %d retries", out.Outcome, out.Lead.Status, out.Lead.RetryCount)
	}
	if out.Lead.Notes == nil || *out.Lead.Notes != notes {
		t.Fatalf("expected notes %q, got %v", notes, out.Lead.Notes)
	}

	logged, err := h.svc.GetCallLog(ctx, call.ID)
	if err != nil {
		t.Fatalf("get call log: %v", err)
	}
	if logged.Disposition == nil || *logged.Disposition != "NO_ANSWER" {
		t.Fatalf("expected NO_ANSWER on the call log, got %v", logged.Disposition)
	}
	if len(logged.Transcript) != 1 {
		t.Fatalf("expected 1 transcript entry, got %d", len(logged.Transcript))
	}
	if logged.DurationSeconds == nil || *logged.DurationSeconds != 42 {
		t.Fatalf("expected 42s call, got %v", logged.DurationSeconds)
	}

	h.bus.Wait()
	if disposed.Outcome != "NO_ANSWER" || disposed.TalkTimeSeconds != 42 || disposed.SaleAmountCents != 0 {
		t.Fatalf("unexpected disposed event %+v", disposed)
	}

	// two hours later the lead comes back as an automatic callback
	h.clock = serviceNow.Add(2*time.Hour + time.Minute)
	again := h.next(t, "agent-2")
	if again.Lead == nil || again.Lead.ID != res.Lead.ID {
		t.Fatalf("expected %s back as a callback, got %+v", res.Lead.ID, again.Lead)
	}
}

func TestDisposeSuccessCreditsSale(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addLead(domain.StatusNew, -4)
	res := h.next(t, "agent-1")

	var disposed events.LeadDisposed
	h.bus.Subscribe(events.LeadDisposed{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		disposed = e.(events.LeadDisposed)
		return nil
	}))

	out, err := h.svc.Dispose(ctx, DisposeParams{LeadID: res.Lead.ID, AgentID: "agent-1", Action: "SUCCESS"})
	if err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if out.Lead.Status != domain.StatusClosed {
		t.Fatalf("expected CLOSED, got %s", out.Lead.Status)
	}

	h.bus.Wait()
	if disposed.SaleAmountCents != DefaultSaleAmountCents {
		t.Fatalf("expected sale of %d cents, got %d", DefaultSaleAmountCents, disposed.SaleAmountCents)
	}
}

func TestDisposeValidation(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Dispose(context.Background(), DisposeParams{LeadID: uuid.New(), AgentID: "agent-1"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error without an action, got %v", err)
	}

	_, err = h.svc.Dispose(context.Background(), DisposeParams{LeadID: uuid.New(), AgentID: "agent-1", Action: "BUSY"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for an unknown lead, got %v", err)
	}
}

func TestDisposeToleratesUnknownCallLog(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addLead(domain.StatusNew, -4)
	res := h.next(t, "agent-1")

	missing := uuid.New()
	out, err := h.svc.Dispose(ctx, DisposeParams{LeadID: res.Lead.ID, AgentID: "agent-1", Action: "BUSY", CallLogID: &missing})
	if err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if out.Lead.Status != domain.StatusCallbackAuto {
		t.Fatalf("expected CALLBACK_AUTO, got %s", out.Lead.Status)
	}
}

func TestReleaseStaleReturnsAbandonedLead(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addLead(domain.StatusNew, -4)
	res := h.next(t, "agent-1")

	h.clock = serviceNow.Add(domain.DefaultLeaseDuration + time.Second)
	released, err := h.svc.ReleaseStale(ctx)
	if err != nil {
		t.Fatalf("release stale: %v", err)
	}
	if released != 1 {
		t.Fatalf("expected 1 released, got %d", released)
	}

	got, err := h.svc.GetLead(ctx, res.Lead.ID)
	if err != nil {
		t.Fatalf("get lead: %v", err)
	}
	if got.Status != domain.StatusNew {
		t.Fatalf("expected NEW, got %s", got.Status)
	}
}

func TestImportPublishesSummary(t *testing.T) {
	h := newHarness(t)
	var imported events.LeadsImported
	h.bus.Subscribe(events.LeadsImported{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		imported = e.(events.LeadsImported)
		return nil
	}))

	res, err := h.svc.Import(context.Background(), []importer.Row{
		{BusinessName: "A", Phone: "650-253-0100", Timezone: "America/Chicago", UTCOffsetHours: -5},
		{BusinessName: "B", Phone: "650-253-0100", Timezone: "America/Chicago", UTCOffsetHours: -5},
	}, "supervisor-1")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 1 || res.Duplicates != 1 {
		t.Fatalf("expected 1 imported and 1 duplicate, got %+v", res)
	}

	h.bus.Wait()
	if imported.Imported != 1 || imported.ImportedBy != "supervisor-1" {
		t.Fatalf("unexpected import event %+v", imported)
	}
}
