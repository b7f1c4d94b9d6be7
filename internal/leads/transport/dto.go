package transport

import (
	"time"

	"power_dialer_backend/internal/leads/importer"
	"power_dialer_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// Request DTOs
type NextLeadRequest struct {
	AgentID string `json:"agentId" validate:"required,max=128"`
}

type DisposeRequest struct {
	LeadID           string     `json:"leadId" validate:"required,uuid"`
	AgentID          string     `json:"agentId" validate:"required,max=128"`
	CallLogID        *string    `json:"callLogId,omitempty" validate:"omitempty,uuid"`
	Action           string     `json:"action" validate:"required,max=40"`
	DispositionLabel *string    `json:"dispositionLabel,omitempty" validate:"omitempty,max=100"`
	RecallAt         *time.Time `json:"recallAt,omitempty"`
	Notes            *string    `json:"notes,omitempty" validate:"omitempty,max=4000"`
	SaleAmountCents  *int64     `json:"squareAmount,omitempty" validate:"omitempty,min=0"`
}

type StartCallRequest struct {
	LeadID  string  `json:"leadId" validate:"required,uuid"`
	AgentID string  `json:"agentId" validate:"required,max=128"`
	CallSID *string `json:"callSid,omitempty" validate:"omitempty,max=64"`
}

type AppendTranscriptRequest struct {
	CallLogID string `json:"callLogId" validate:"required,uuid"`
	Speaker   string `json:"speaker" validate:"required,max=40"`
	Text      string `json:"text" validate:"required,max=8000"`
}

type ImportLeadsRequest struct {
	Rows []importer.Row `json:"rows" validate:"required,min=1"`
}

// Response DTOs
type LeadResponse struct {
	ID              uuid.UUID  `json:"id"`
	BusinessName    string     `json:"businessName"`
	ContactName     string     `json:"contactName"`
	Phone           string     `json:"phone"`
	Email           *string    `json:"email,omitempty"`
	Address         *string    `json:"address,omitempty"`
	KGMID           *string    `json:"kgmid,omitempty"`
	Timezone        string     `json:"timezone"`
	UTCOffsetHours  int        `json:"utcOffsetHours"`
	Status          string     `json:"status"`
	Campaign        string     `json:"campaign"`
	RetryCount      int        `json:"retryCount"`
	AssignedAgentID *string    `json:"assignedAgentId,omitempty"`
	LockedUntil     *time.Time `json:"lockedUntil,omitempty"`
	NextAvailableAt *time.Time `json:"nextAvailableAt,omitempty"`
	LastCalledAt    *time.Time `json:"lastCalledAt,omitempty"`
	ClosedAt        *time.Time `json:"closedAt,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type NextLeadResponse struct {
	Lead       *LeadResponse `json:"lead"`
	QueueDepth int           `json:"queueDepth"`
	Message    string        `json:"message,omitempty"`
}

type DisposeResponse struct {
	Success    bool   `json:"success"`
	Status     string `json:"status"`
	RetryCount int    `json:"retryCount"`
}

type ReleaseStaleResponse struct {
	Released int `json:"released"`
}

type StartCallResponse struct {
	CallLogID uuid.UUID `json:"callLogId"`
}

type CallLogResponse struct {
	ID               uuid.UUID                    `json:"id"`
	LeadID           uuid.UUID                    `json:"leadId"`
	AgentID          string                       `json:"agentId"`
	CallSID          *string                      `json:"callSid,omitempty"`
	StartedAt        time.Time                    `json:"startedAt"`
	EndedAt          *time.Time                   `json:"endedAt,omitempty"`
	DurationSeconds  *int                         `json:"durationSeconds,omitempty"`
	Disposition      *string                      `json:"disposition,omitempty"`
	DispositionLabel *string                      `json:"dispositionLabel,omitempty"`
	Notes            *string                      `json:"notes,omitempty"`
	Transcript       []repository.TranscriptEntry `json:"transcript"`
}

// ToLeadResponse maps a stored lead onto its wire shape.
func ToLeadResponse(l repository.Lead) LeadResponse {
	return LeadResponse{
		ID:              l.ID,
		BusinessName:    l.BusinessName,
		ContactName:     l.ContactName,
		Phone:           l.Phone,
		Email:           l.Email,
		Address:         l.Address,
		KGMID:           l.KGMID,
		Timezone:        l.Timezone,
		UTCOffsetHours:  l.UTCOffsetHours,
		Status:          string(l.Status),
		Campaign:        l.CampaignID,
		RetryCount:      l.RetryCount,
		AssignedAgentID: l.AssignedAgentID,
		LockedUntil:     l.LockedUntil,
		NextAvailableAt: l.NextAvailableAt,
		LastCalledAt:    l.LastCalledAt,
		ClosedAt:        l.ClosedAt,
		Notes:           l.Notes,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func ToCallLogResponse(c repository.CallLog) CallLogResponse {
	transcript := c.Transcript
	if transcript == nil {
		transcript = []repository.TranscriptEntry{}
	}
	return CallLogResponse{
		ID:               c.ID,
		LeadID:           c.LeadID,
		AgentID:          c.AgentID,
		CallSID:          c.CallSID,
		StartedAt:        c.StartedAt,
		EndedAt:          c.EndedAt,
		DurationSeconds:  c.DurationSeconds,
		Disposition:      c.Disposition,
		DispositionLabel: c.DispositionLabel,
		Notes:            c.Notes,
		Transcript:       transcript,
	}
}
