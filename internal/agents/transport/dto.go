// Package transport holds the agent request and response shapes.
package transport

import (
	"time"

	"power_dialer_backend/internal/agents/repository"

	"github.com/google/uuid"
)

// RegisterRequest is sent when an agent opens the dialer.
type RegisterRequest struct {
	AgentID   string `json:"agentId" validate:"required,max=100"`
	AgentName string `json:"agentName" validate:"required,max=200"`
}

// HeartbeatRequest keeps an agent alive.
type HeartbeatRequest struct {
	AgentID string `json:"agentId" validate:"required,max=100"`
	Status  string `json:"status" validate:"omitempty,oneof=AVAILABLE ON_CALL OFFLINE BUSY"`
}

// OfflineRequest signs an agent off.
type OfflineRequest struct {
	AgentID string `json:"agentId" validate:"required,max=100"`
}

// AgentResponse is the public view of an agent. Counters cover the current UTC day.
type AgentResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Status          string     `json:"status"`
	CurrentLeadID   *uuid.UUID `json:"currentLeadId"`
	CallsToday      int        `json:"callsToday"`
	RevenueToday    int64      `json:"revenueTodayCents"`
	TalkTimeSeconds int64      `json:"talkTimeSeconds"`
	LastActiveAt    time.Time  `json:"lastActiveAt"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// AgentListResponse wraps a list of agents.
type AgentListResponse struct {
	Items []AgentResponse `json:"items"`
}

// ToAgentResponse maps an agent; counters from an earlier day read as zero.
func ToAgentResponse(a repository.Agent, today time.Time) AgentResponse {
	resp := AgentResponse{
		ID:            a.ID,
		Name:          a.DisplayName,
		Status:        string(a.Status),
		CurrentLeadID: a.CurrentLeadID,
		LastActiveAt:  a.LastActiveAt,
		CreatedAt:     a.CreatedAt,
	}
	if !a.StatsDay.Before(today) {
		resp.CallsToday = a.CallsToday
		resp.RevenueToday = a.RevenueCents
		resp.TalkTimeSeconds = a.TalkTimeSeconds
	}
	return resp
}

// ToAgentListResponse maps a slice of agents.
func ToAgentListResponse(agents []repository.Agent, today time.Time) AgentListResponse {
	items := make([]AgentResponse, 0, len(agents))
	for _, a := range agents {
		items = append(items, ToAgentResponse(a, today))
	}
	return AgentListResponse{Items: items}
}
