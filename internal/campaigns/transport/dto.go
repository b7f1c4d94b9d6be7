// Package transport holds the campaign request and response shapes.
package transport

import (
	"time"

	"power_dialer_backend/internal/campaigns/repository"
)

// UpsertCampaignRequest creates or replaces a campaign.
type UpsertCampaignRequest struct {
	ID             string  `json:"id" validate:"required,max=50"`
	Name           string  `json:"name" validate:"required,max=200"`
	Description    *string `json:"description" validate:"omitempty,max=1000"`
	IsActive       bool    `json:"isActive"`
	StartHourLocal int     `json:"startHourLocal" validate:"min=0,max=23"`
	EndHourLocal   int     `json:"endHourLocal" validate:"min=0,max=23"`
	Timezone       string  `json:"timezone" validate:"required,iana_tz"`
}

// SetActiveRequest toggles a campaign.
type SetActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// CampaignResponse is the public view of a campaign.
type CampaignResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	IsActive       bool      `json:"isActive"`
	StartHourLocal int       `json:"startHourLocal"`
	EndHourLocal   int       `json:"endHourLocal"`
	Timezone       string    `json:"timezone"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CampaignListResponse wraps a list of campaigns.
type CampaignListResponse struct {
	Items []CampaignResponse `json:"items"`
}

// SeedResponse reports how many default waves were created.
type SeedResponse struct {
	Inserted  int      `json:"inserted"`
	Campaigns []string `json:"campaigns"`
}

// ToCampaignResponse maps a stored campaign.
func ToCampaignResponse(c repository.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:             c.ID,
		Name:           c.Name,
		Description:    c.Description,
		IsActive:       c.IsActive,
		StartHourLocal: c.StartHourLocal,
		EndHourLocal:   c.EndHourLocal,
		Timezone:       c.Timezone,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// ToCampaignListResponse maps a slice of campaigns.
func ToCampaignListResponse(campaigns []repository.Campaign) CampaignListResponse {
	items := make([]CampaignResponse, 0, len(campaigns))
	for _, c := range campaigns {
		items = append(items, ToCampaignResponse(c))
	}
	return CampaignListResponse{Items: items}
}
