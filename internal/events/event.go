// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"power_dialer_backend/platform/events"
	"power_dialer_backend/platform/logger"

	"github.com/google/uuid"
)

// Bus plumbing lives in platform/events; modules import only this package.
type (
	InMemoryBus = events.InMemoryBus
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

var NewBaseEventAt = events.NewBaseEventAt

// NewInMemoryBus creates the process-local bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Lead Lifecycle Events
// =============================================================================

// LeadLeased is published when an agent is handed a lead.
type LeadLeased struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	AgentID    string    `json:"agentId"`
	CampaignID string    `json:"campaignId"`
	Tier       string    `json:"tier"`
}

func (e LeadLeased) EventName() string { return "leads.lead.leased" }

// LeadDisposed is published after an outcome was recorded.
type LeadDisposed struct {
	BaseEvent
	LeadID          uuid.UUID `json:"leadId"`
	AgentID         string    `json:"agentId"`
	Outcome         string    `json:"outcome"`
	Status          string    `json:"status"`
	RetryCount      int       `json:"retryCount"`
	SaleAmountCents int64     `json:"saleAmountCents,omitempty"`
	TalkTimeSeconds int       `json:"talkTimeSeconds,omitempty"`
}

func (e LeadDisposed) EventName() string { return "leads.lead.disposed" }

// StaleLeasesReleased is published when the reaper returns abandoned leads to the queue.
type StaleLeasesReleased struct {
	BaseEvent
	LeadIDs  []string `json:"leadIds"`
	AgentIDs []string `json:"agentIds"`
	Released int      `json:"released"`
}

func (e StaleLeasesReleased) EventName() string { return "leads.leases.released" }

// LeadsImported is published after a bulk import.
type LeadsImported struct {
	BaseEvent
	Imported   int    `json:"imported"`
	Duplicates int    `json:"duplicates"`
	Rejected   int    `json:"rejected"`
	ImportedBy string `json:"importedBy"`
}

func (e LeadsImported) EventName() string { return "leads.import.completed" }

// =============================================================================
// Territory Events
// =============================================================================

// ZoneLocked is published when a business is granted a territory.
type ZoneLocked struct {
	BaseEvent
	ZoneID       string  `json:"zoneId"`
	TierID       string  `json:"tierId"`
	PlaceID      string  `json:"placeId"`
	BusinessName string  `json:"businessName"`
	AnnualPrice  float64 `json:"annualPrice"`
}

func (e ZoneLocked) EventName() string { return "zones.zone.locked" }
