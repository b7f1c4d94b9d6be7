// Package service orchestrates the lead lifecycle: hand-out, disposition,
// lease recovery, call logs and bulk import.
package service

import (
	"context"
	"strings"
	"time"

	"power_dialer_backend/internal/events"
	"power_dialer_backend/internal/leads/disposition"
	"power_dialer_backend/internal/leads/domain"
	"power_dialer_backend/internal/leads/importer"
	"power_dialer_backend/internal/leads/lease"
	"power_dialer_backend/internal/leads/ports"
	"power_dialer_backend/internal/leads/queue"
	"power_dialer_backend/internal/leads/reaper"
	"power_dialer_backend/internal/leads/repository"
	"power_dialer_backend/platform/apperr"
	"power_dialer_backend/platform/logger"
	"power_dialer_backend/platform/sanitize"

	"github.com/google/uuid"
)

// DefaultSaleAmountCents is credited to the agent when a sale closes without an amount.
const DefaultSaleAmountCents int64 = 19900

const (
	msgNoActiveCampaign = "No active campaign waves."
	msgQueueEmpty       = "Queue empty or all leads outside calling window."
	msgOutsideWindow    = "All fresh leads are outside their local calling window right now."
	msgLockContention   = "Could not lock any candidate (concurrency conflict). Retry."
)

// NextLeadResult is the answer to a next-lead request. Lead is nil when nothing
// could be handed out; Message then says why.
type NextLeadResult struct {
	Lead       *repository.Lead
	Tier       queue.Tier
	QueueDepth int
	Message    string
}

// DisposeParams carries a reported call outcome.
type DisposeParams struct {
	LeadID           uuid.UUID
	AgentID          string
	Action           string
	DispositionLabel *string
	RecallAt         *time.Time
	Notes            *string
	CallLogID        *uuid.UUID
	SaleAmountCents  *int64
}

// DisposeResult reports the lead after the outcome was applied.
type DisposeResult struct {
	Lead    repository.Lead
	Outcome domain.Outcome
}

// Service is the lead lifecycle application service.
type Service struct {
	repo      repository.Repository
	campaigns ports.CampaignRegistry
	selector  *queue.Selector
	leases    *lease.Manager
	machine   *disposition.Machine
	reaper    *reaper.Reaper
	importer  *importer.Importer
	bus       events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates the lead service.
func New(repo repository.Repository, campaigns ports.CampaignRegistry, policy domain.Policy, imp *importer.Importer, rp *reaper.Reaper, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		campaigns: campaigns,
		selector:  queue.NewSelector(repo),
		leases:    lease.NewManager(repo, policy, log),
		machine:   disposition.NewMachine(repo, policy),
		reaper:    rp,
		importer:  imp,
		bus:       bus,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// NextLead leases the highest-priority claimable lead to agentID.
func (s *Service) NextLead(ctx context.Context, agentID string) (NextLeadResult, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return NextLeadResult{}, apperr.Validation("agentId is required")
	}
	now := s.now()

	waves, err := s.campaigns.ListActiveWaves(ctx)
	if err != nil {
		return NextLeadResult{}, err
	}

	sel, err := s.selector.Select(ctx, waves, now)
	if err != nil {
		return NextLeadResult{}, err
	}
	if sel.Empty() {
		return NextLeadResult{QueueDepth: sel.QueueDepth, Message: emptyMessage(sel.Reason)}, nil
	}

	leased, ok, err := s.leases.AcquireFirst(ctx, sel.Candidates, agentID, now)
	if err != nil {
		return NextLeadResult{}, err
	}

	depth, err := s.repo.CountQueued(ctx)
	if err != nil {
		return NextLeadResult{}, err
	}

	if !ok {
		return NextLeadResult{QueueDepth: depth, Message: msgLockContention}, nil
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadLeased{
			BaseEvent:  events.NewBaseEventAt(now),
			LeadID:     leased.ID,
			AgentID:    agentID,
			CampaignID: leased.CampaignID,
			Tier:       sel.Tier.String(),
		})
	}

	return NextLeadResult{Lead: &leased, Tier: sel.Tier, QueueDepth: depth}, nil
}

func emptyMessage(reason queue.Reason) string {
	switch reason {
	case queue.ReasonNoActiveCampaign:
		return msgNoActiveCampaign
	case queue.ReasonOutsideWindow:
		return msgOutsideWindow
	default:
		return msgQueueEmpty
	}
}

// Dispose records the outcome of a call and releases the lead.
func (s *Service) Dispose(ctx context.Context, params DisposeParams) (DisposeResult, error) {
	agentID := strings.TrimSpace(params.AgentID)
	if agentID == "" {
		return DisposeResult{}, apperr.Validation("agentId is required")
	}
	outcome, err := domain.ParseOutcome(params.Action)
	if err != nil {
		return DisposeResult{}, apperr.Validation(err.Error())
	}
	params.Notes = sanitize.TextPtr(params.Notes)
	now := s.now()

	updated, err := s.machine.Apply(ctx, disposition.Request{
		LeadID:   params.LeadID,
		AgentID:  agentID,
		Outcome:  outcome,
		RecallAt: params.RecallAt,
		Notes:    params.Notes,
	}, now)
	if err != nil {
		return DisposeResult{}, err
	}

	talkTime := 0
	if params.CallLogID != nil {
		talkTime = s.finalizeCallLog(ctx, *params.CallLogID, outcome, params, now)
	}

	var sale int64
	if outcome == domain.OutcomeSuccess {
		sale = DefaultSaleAmountCents
		if params.SaleAmountCents != nil && *params.SaleAmountCents > 0 {
			sale = *params.SaleAmountCents
		}
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadDisposed{
			BaseEvent:       events.NewBaseEventAt(now),
			LeadID:          updated.ID,
			AgentID:         agentID,
			Outcome:         outcome.String(),
			Status:          string(updated.Status),
			RetryCount:      updated.RetryCount,
			SaleAmountCents: sale,
			TalkTimeSeconds: talkTime,
		})
	}

	return DisposeResult{Lead: updated, Outcome: outcome}, nil
}

// finalizeCallLog closes the call log of a disposed call and returns its
// duration. The disposition is already committed, so failures are only logged.
func (s *Service) finalizeCallLog(ctx context.Context, id uuid.UUID, outcome domain.Outcome, params DisposeParams, now time.Time) int {
	final, err := s.repo.FinalizeCallLog(ctx, id, repository.FinalizeCallLogParams{
		Disposition:      outcome.String(),
		DispositionLabel: params.DispositionLabel,
		Notes:            params.Notes,
		EndedAt:          now,
	})
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.Warn("call log not found on disposition", "callLogId", id, "leadId", params.LeadID)
		} else {
			s.log.Error("failed to finalize call log", "error", err, "callLogId", id)
		}
		return 0
	}
	if final.DurationSeconds == nil {
		return 0
	}
	return *final.DurationSeconds
}

// ReleaseStale runs one reaper sweep now.
func (s *Service) ReleaseStale(ctx context.Context) (int, error) {
	return s.reaper.Sweep(ctx, s.now())
}

// GetLead retrieves a lead by ID.
func (s *Service) GetLead(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// StartCall opens a call log for a lead the agent is dialing.
func (s *Service) StartCall(ctx context.Context, leadID uuid.UUID, agentID string, callSID *string) (repository.CallLog, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return repository.CallLog{}, apperr.Validation("agentId is required")
	}
	if _, err := s.repo.GetByID(ctx, leadID); err != nil {
		return repository.CallLog{}, err
	}

	return s.repo.CreateCallLog(ctx, repository.CallLog{
		ID:         uuid.New(),
		LeadID:     leadID,
		AgentID:    agentID,
		CallSID:    callSID,
		Transcript: []repository.TranscriptEntry{},
		StartedAt:  s.now(),
	})
}

// AppendTranscript adds one utterance to a call log.
func (s *Service) AppendTranscript(ctx context.Context, callLogID uuid.UUID, speaker, text string) error {
	speaker = strings.TrimSpace(speaker)
	text = sanitize.Text(text)
	if speaker == "" || text == "" {
		return apperr.Validation("speaker and text are required")
	}
	return s.repo.AppendTranscript(ctx, callLogID, []repository.TranscriptEntry{{
		Speaker: speaker,
		Text:    text,
		At:      s.now(),
	}})
}

// GetCallLog retrieves a call log by ID.
func (s *Service) GetCallLog(ctx context.Context, id uuid.UUID) (repository.CallLog, error) {
	return s.repo.GetCallLog(ctx, id)
}

// Import loads rows as NEW leads on behalf of importedBy.
func (s *Service) Import(ctx context.Context, rows []importer.Row, importedBy string) (importer.Result, error) {
	now := s.now()
	result, err := s.importer.Import(ctx, rows, now)
	if err != nil {
		return result, err
	}

	s.log.Info("lead import finished",
		"imported", result.Imported,
		"duplicates", result.Duplicates,
		"rejected", len(result.Errors),
		"importedBy", importedBy,
	)
	if s.bus != nil && result.Imported > 0 {
		s.bus.Publish(ctx, events.LeadsImported{
			BaseEvent:  events.NewBaseEventAt(now),
			Imported:   result.Imported,
			Duplicates: result.Duplicates,
			Rejected:   len(result.Errors),
			ImportedBy: importedBy,
		})
	}
	return result, nil
}
