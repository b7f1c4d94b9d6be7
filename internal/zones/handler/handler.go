package handler

import (
	"net/http"
	"time"

	"power_dialer_backend/internal/zones/domain"
	"power_dialer_backend/internal/zones/service"
	"power_dialer_backend/internal/zones/transport"
	"power_dialer_backend/platform/httpkit"
	"power_dialer_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for zones.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a zone handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the zone routes on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListByPlace)
	rg.GET("/availability", h.CheckAvailability)
	rg.POST("/lock", h.Lock)
	rg.GET("/pricing", h.Pricing)
	rg.GET("/tiers", h.Tiers)
}

// CheckAvailability reports whether a zone is free.
// GET /api/v1/zones/availability?lat=&lng=&tierId=&category=
func (h *Handler) CheckAvailability(c *gin.Context) {
	var req transport.AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CheckAvailability(c.Request.Context(), *req.Lat, *req.Lng, req.TierID, req.Category)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAvailabilityResponse(result))
}

// Lock grants a zone after payment. A live owner yields 409.
// POST /api/v1/zones/lock
func (h *Handler) Lock(c *gin.Context) {
	var req transport.LockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	zone, err := h.svc.Lock(c.Request.Context(), service.LockParams{
		Lat:              *req.Lat,
		Lng:              *req.Lng,
		TierID:           req.TierID,
		PlaceID:          req.PlaceID,
		BusinessName:     req.BusinessName,
		Category:         req.Category,
		AnnualPrice:      req.AnnualPrice,
		PaymentReference: req.PaymentReference,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LockResponse{
		Success:   true,
		ZoneID:    zone.ZoneID,
		Geohash:   zone.Geohash,
		LockedAt:  zone.LockedAt,
		ExpiresAt: zone.ExpiresAt,
	})
}

// ListByPlace returns the zones held by a business.
// GET /api/v1/zones?placeId=
func (h *Handler) ListByPlace(c *gin.Context) {
	var req transport.ListByPlaceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	zones, err := h.svc.ListByPlace(c.Request.Context(), req.PlaceID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToZoneListResponse(zones, time.Now().UTC()))
}

// Pricing quotes every tier for the competitor rings in the query.
// GET /api/v1/zones/pricing?tier1=&tier2=&tier3=&avgTicket=
func (h *Handler) Pricing(c *gin.Context) {
	var req transport.PricingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	quotes, err := h.svc.Quote(domain.CompetitorCounts{Tier1: req.Tier1, Tier2: req.Tier2, Tier3: req.Tier3}, req.AvgTicket)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.PricingResponse{Pricings: quotes})
}

// Tiers lists the purchasable tiers.
// GET /api/v1/zones/tiers
func (h *Handler) Tiers(c *gin.Context) {
	httpkit.OK(c, gin.H{"tiers": domain.Tiers})
}
