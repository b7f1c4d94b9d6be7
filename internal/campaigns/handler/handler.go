package handler

import (
	"net/http"

	"power_dialer_backend/internal/campaigns/service"
	"power_dialer_backend/internal/campaigns/transport"
	"power_dialer_backend/platform/httpkit"
	"power_dialer_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for campaigns.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a campaign handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List returns every campaign.
// GET /api/v1/campaigns
func (h *Handler) List(c *gin.Context) {
	campaigns, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCampaignListResponse(campaigns))
}

// ListActive returns the campaigns currently dialed.
// GET /api/v1/campaigns/active
func (h *Handler) ListActive(c *gin.Context) {
	campaigns, err := h.svc.ListActive(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCampaignListResponse(campaigns))
}

// GetByID returns one campaign.
// GET /api/v1/campaigns/:id
func (h *Handler) GetByID(c *gin.Context) {
	campaign, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCampaignResponse(campaign))
}

// Upsert creates or replaces a campaign.
// PUT /api/v1/admin/campaigns
func (h *Handler) Upsert(c *gin.Context) {
	var req transport.UpsertCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	campaign, err := h.svc.Upsert(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCampaignResponse(campaign))
}

// SetActive toggles a campaign.
// PATCH /api/v1/admin/campaigns/:id/active
func (h *Handler) SetActive(c *gin.Context) {
	var req transport.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	campaign, err := h.svc.SetActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCampaignResponse(campaign))
}

// Seed creates the default waves that do not exist yet.
// POST /api/v1/admin/campaigns/seed
func (h *Handler) Seed(c *gin.Context) {
	result, err := h.svc.Seed(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
