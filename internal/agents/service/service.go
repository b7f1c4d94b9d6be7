// Package service tracks agent presence and daily call statistics.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"power_dialer_backend/internal/agents/repository"
	"power_dialer_backend/internal/events"
	"power_dialer_backend/platform/apperr"
	"power_dialer_backend/platform/logger"
)

// Service manages agents.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
	now  func() time.Time
}

// New creates the agent service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// SetClock replaces the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Register creates the agent, or brings it back AVAILABLE with its counters kept.
func (s *Service) Register(ctx context.Context, id, displayName string) (repository.Agent, error) {
	id = strings.TrimSpace(id)
	displayName = strings.TrimSpace(displayName)
	if id == "" || displayName == "" {
		return repository.Agent{}, apperr.Validation("agentId and agentName are required")
	}

	agent, err := s.repo.Register(ctx, id, displayName, s.now().UTC())
	if err != nil {
		return repository.Agent{}, err
	}
	s.log.Info("agent registered", "agentId", id)
	return agent, nil
}

// Heartbeat keeps an agent alive and optionally updates its status.
func (s *Service) Heartbeat(ctx context.Context, id string, status string) (repository.Agent, error) {
	var next *repository.Status
	if status != "" {
		parsed, ok := repository.ParseStatus(status)
		if !ok {
			return repository.Agent{}, apperr.Validation(fmt.Sprintf("unknown agent status %q", status))
		}
		next = &parsed
	}
	return s.repo.Touch(ctx, id, next, s.now().UTC())
}

// GoOffline marks the agent OFFLINE and drops its current lead.
func (s *Service) GoOffline(ctx context.Context, id string) error {
	if err := s.repo.SetStatus(ctx, id, repository.StatusOffline, nil, s.now().UTC()); err != nil {
		return err
	}
	s.log.Info("agent offline", "agentId", id)
	return nil
}

// Get returns one agent.
func (s *Service) Get(ctx context.Context, id string) (repository.Agent, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all agents.
func (s *Service) List(ctx context.Context) ([]repository.Agent, error) {
	return s.repo.List(ctx)
}

// Today is the UTC day counters are reported for.
func (s *Service) Today() time.Time {
	return repository.StatsDay(s.now())
}

// HandleLeadLeased puts the agent ON_CALL on the leased lead. Unregistered
// agents are skipped; leasing does not require registration.
func (s *Service) HandleLeadLeased(ctx context.Context, e events.LeadLeased) error {
	leadID := e.LeadID
	err := s.repo.SetStatus(ctx, e.AgentID, repository.StatusOnCall, &leadID, s.now().UTC())
	return s.ignoreUnknown(err, e.AgentID)
}

// HandleLeadDisposed credits the call to the agent and frees it.
func (s *Service) HandleLeadDisposed(ctx context.Context, e events.LeadDisposed) error {
	call := repository.CallRecord{TalkTimeSeconds: int64(e.TalkTimeSeconds)}
	if e.SaleAmountCents > 0 {
		call.RevenueCents = e.SaleAmountCents
	}
	err := s.repo.RecordCall(ctx, e.AgentID, call, s.now().UTC())
	return s.ignoreUnknown(err, e.AgentID)
}

// HandleLeasesReleased frees agents whose leads were reclaimed by the reaper.
func (s *Service) HandleLeasesReleased(ctx context.Context, e events.StaleLeasesReleased) error {
	released, err := s.repo.ReleaseOnCall(ctx, e.AgentIDs, s.now().UTC())
	if err != nil {
		return err
	}
	if released > 0 {
		s.log.Info("agents released after stale leases", "agents", released)
	}
	return nil
}

func (s *Service) ignoreUnknown(err error, agentID string) error {
	if apperr.Is(err, apperr.KindNotFound) {
		s.log.Debug("event for unregistered agent", "agentId", agentID)
		return nil
	}
	return err
}
