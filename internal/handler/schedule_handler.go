package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tabula-api/internal/models"
	"github.com/noah-isme/tabula-api/internal/service"
	appErrors "github.com/noah-isme/tabula-api/pkg/errors"
	"github.com/noah-isme/tabula-api/pkg/response"
)

// ScheduleHandler manages draft generation, validation, and schedule
// synchronization endpoints.
type ScheduleHandler struct {
	drafts *service.DraftService
	sync   *service.SyncService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(drafts *service.DraftService, sync *service.SyncService) *ScheduleHandler {
	return &ScheduleHandler{drafts: drafts, sync: sync}
}

// SaveScheduleRequest carries the replacement assignment set and optional
// batch scope.
type SaveScheduleRequest struct {
	Assignments []models.ClassAssignment `json:"assignments"`
	BatchID     string                   `json:"batch_id"`
}

// CheckDraftRequest carries a draft to validate.
type CheckDraftRequest struct {
	Assignments []models.ClassAssignment `json:"assignments" binding:"required"`
}

// Generate godoc
// @Summary Generate a candidate schedule via the external generator
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	result, err := h.drafts.Generate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Check godoc
// @Summary Validate a draft against committed assignments
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body CheckDraftRequest true "Draft payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/check [post]
func (h *ScheduleHandler) Check(c *gin.Context) {
	var req CheckDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.drafts.Check(c.Request.Context(), req.Assignments)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Save godoc
// @Summary Replace the persisted schedule, optionally scoped to one batch
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body SaveScheduleRequest true "Replacement payload"
// @Success 200 {object} response.Envelope
// @Router /schedule [put]
func (h *ScheduleHandler) Save(c *gin.Context) {
	var req SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.drafts.Accept(c.Request.Context(), req.Assignments, req.BatchID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"saved": len(req.Assignments)}, nil)
}

// Reset godoc
// @Summary Clear every assignment
// @Tags Schedule
// @Produce json
// @Success 204
// @Router /schedule [delete]
func (h *ScheduleHandler) Reset(c *gin.Context) {
	if err := h.sync.ResetSchedule(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Refresh godoc
// @Summary Reconcile the local schedule view with the store
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/refresh [post]
func (h *ScheduleHandler) Refresh(c *gin.Context) {
	if err := h.sync.Refresh(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.sync.State().Assignments(), nil)
}
