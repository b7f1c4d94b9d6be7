// Package queue picks which leads an agent should be offered next.
package queue

import (
	"context"
	"time"

	"power_dialer_backend/internal/leads/domain"
	"power_dialer_backend/internal/leads/ports"
	"power_dialer_backend/internal/leads/repository"
)

// Tier identifies which priority band produced a selection.
type Tier int

const (
	TierNone Tier = iota
	TierManualCallback
	TierAutoCallback
	TierFresh
)

func (t Tier) String() string {
	switch t {
	case TierManualCallback:
		return "manual_callback"
	case TierAutoCallback:
		return "auto_callback"
	case TierFresh:
		return "fresh"
	default:
		return "none"
	}
}

// Reason explains an empty selection.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonNoActiveCampaign Reason = "NO_ACTIVE_CAMPAIGN"
	ReasonEmptyQueue       Reason = "EMPTY_QUEUE"
	ReasonOutsideWindow    Reason = "OUTSIDE_WINDOW"
)

// Selection is the ordered candidate list for one request.
type Selection struct {
	Tier       Tier
	Candidates []repository.Lead
	Reason     Reason
	// QueueDepth is only filled when Candidates is empty.
	QueueDepth int
}

// Empty reports whether there is nothing to offer.
func (s Selection) Empty() bool {
	return len(s.Candidates) == 0
}

// Store is the read side the selector needs.
type Store interface {
	ListDueCallbacks(ctx context.Context, status domain.Status, now time.Time, limit int) ([]repository.Lead, error)
	ListFresh(ctx context.Context, campaignIDs []string, limit int) ([]repository.Lead, error)
	CountQueued(ctx context.Context) (int, error)
}

// Selector orders claimable leads into strict priority tiers. It never writes.
type Selector struct {
	store Store
}

// NewSelector creates a selector over store.
func NewSelector(store Store) *Selector {
	return &Selector{store: store}
}

// Select returns the first non-empty tier at now. waves must be the campaigns
// active at the time of the call.
func (s *Selector) Select(ctx context.Context, waves []ports.Wave, now time.Time) (Selection, error) {
	if len(waves) == 0 {
		return Selection{Reason: ReasonNoActiveCampaign}, nil
	}

	callbackTiers := []struct {
		tier   Tier
		status domain.Status
	}{
		{TierManualCallback, domain.StatusCallbackManual},
		{TierAutoCallback, domain.StatusCallbackAuto},
	}
	for _, ct := range callbackTiers {
		due, err := s.store.ListDueCallbacks(ctx, ct.status, now, domain.CallbackBatchSize)
		if err != nil {
			return Selection{}, err
		}
		if len(due) > 0 {
			return Selection{Tier: ct.tier, Candidates: due}, nil
		}
	}

	windows := make(map[string]domain.CallingWindow, len(waves))
	ids := make([]string, 0, len(waves))
	for _, w := range waves {
		windows[w.ID] = w.Window
		ids = append(ids, w.ID)
	}

	fresh, err := s.store.ListFresh(ctx, ids, domain.FreshBatchSize)
	if err != nil {
		return Selection{}, err
	}
	if len(fresh) == 0 {
		return s.empty(ctx, ReasonEmptyQueue)
	}

	callable := make([]repository.Lead, 0, len(fresh))
	for _, l := range fresh {
		window, ok := windows[l.CampaignID]
		if ok && window.Allows(now, l.UTCOffsetHours) {
			callable = append(callable, l)
		}
	}
	if len(callable) == 0 {
		return s.empty(ctx, ReasonOutsideWindow)
	}

	return Selection{Tier: TierFresh, Candidates: callable}, nil
}

func (s *Selector) empty(ctx context.Context, reason Reason) (Selection, error) {
	depth, err := s.store.CountQueued(ctx)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Reason: reason, QueueDepth: depth}, nil
}
