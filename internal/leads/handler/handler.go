package handler

import (
	"net/http"

	"power_dialer_backend/internal/leads/service"
	"power_dialer_backend/internal/leads/transport"
	"power_dialer_backend/platform/httpkit"
	"power_dialer_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the agent-facing lead routes. next is wrapped in the
// per-IP limiter passed by the module.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, nextLimiter gin.HandlerFunc) {
	rg.POST("/next", nextLimiter, h.Next)
	rg.POST("/dispose", h.Dispose)
	rg.POST("/calllog", h.StartCall)
	rg.PATCH("/calllog", h.AppendTranscript)
	rg.GET("/calllog/:id", h.GetCallLog)
	rg.GET("/:id", h.GetByID)
}

func (h *Handler) Next(c *gin.Context) {
	var req transport.NextLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.NextLead(c.Request.Context(), req.AgentID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.NextLeadResponse{QueueDepth: result.QueueDepth, Message: result.Message}
	if result.Lead != nil {
		lead := transport.ToLeadResponse(*result.Lead)
		resp.Lead = &lead
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Dispose(c *gin.Context) {
	var req transport.DisposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	params := service.DisposeParams{
		LeadID:           uuid.MustParse(req.LeadID),
		AgentID:          req.AgentID,
		Action:           req.Action,
		DispositionLabel: req.DispositionLabel,
		RecallAt:         req.RecallAt,
		Notes:            req.Notes,
		SaleAmountCents:  req.SaleAmountCents,
	}
	if req.CallLogID != nil {
		callLogID := uuid.MustParse(*req.CallLogID)
		params.CallLogID = &callLogID
	}

	result, err := h.svc.Dispose(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.DisposeResponse{
		Success:    true,
		Status:     string(result.Lead.Status),
		RetryCount: result.Lead.RetryCount,
	})
}

// ReleaseStale is invoked by the external cron as well as the in-process reaper.
func (h *Handler) ReleaseStale(c *gin.Context) {
	released, err := h.svc.ReleaseStale(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ReleaseStaleResponse{Released: released})
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.GetLead(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) StartCall(c *gin.Context) {
	var req transport.StartCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	log, err := h.svc.StartCall(c.Request.Context(), uuid.MustParse(req.LeadID), req.AgentID, req.CallSID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.StartCallResponse{CallLogID: log.ID})
}

func (h *Handler) AppendTranscript(c *gin.Context) {
	var req transport.AppendTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	err := h.svc.AppendTranscript(c.Request.Context(), uuid.MustParse(req.CallLogID), req.Speaker, req.Text)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"ok": true})
}

func (h *Handler) GetCallLog(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	log, err := h.svc.GetCallLog(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCallLogResponse(log))
}

func (h *Handler) Import(c *gin.Context) {
	var req transport.ImportLeadsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Import(c.Request.Context(), req.Rows, httpkit.CallerFrom(c).Subject)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
