package handler

import (
	"net/http"

	"power_dialer_backend/internal/agents/service"
	"power_dialer_backend/internal/agents/transport"
	"power_dialer_backend/platform/httpkit"
	"power_dialer_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for agents.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates an agent handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts agent routes on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.Register)
	rg.POST("/heartbeat", h.Heartbeat)
	rg.POST("/offline", h.Offline)
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

// Register creates or reactivates an agent.
// POST /api/v1/agents/register
func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterRequest
	if !h.bind(c, &req) {
		return
	}
	agent, err := h.svc.Register(c.Request.Context(), req.AgentID, req.AgentName)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"success": true, "agentId": agent.ID})
}

// Heartbeat refreshes presence.
// POST /api/v1/agents/heartbeat
func (h *Handler) Heartbeat(c *gin.Context) {
	var req transport.HeartbeatRequest
	if !h.bind(c, &req) {
		return
	}
	if _, err := h.svc.Heartbeat(c.Request.Context(), req.AgentID, req.Status); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"ok": true})
}

// Offline signs an agent off.
// POST /api/v1/agents/offline
func (h *Handler) Offline(c *gin.Context) {
	var req transport.OfflineRequest
	if !h.bind(c, &req) {
		return
	}
	if httpkit.HandleError(c, h.svc.GoOffline(c.Request.Context(), req.AgentID)) {
		return
	}
	httpkit.OK(c, gin.H{"ok": true})
}

// List returns all agents with today's counters.
// GET /api/v1/agents
func (h *Handler) List(c *gin.Context) {
	agents, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAgentListResponse(agents, h.svc.Today()))
}

// GetByID returns one agent.
// GET /api/v1/agents/:id
func (h *Handler) GetByID(c *gin.Context) {
	agent, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAgentResponse(agent, h.svc.Today()))
}
