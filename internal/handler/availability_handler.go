package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tabula-api/internal/service"
	appErrors "github.com/noah-isme/tabula-api/pkg/errors"
	"github.com/noah-isme/tabula-api/pkg/response"
)

// AvailabilityHandler manages declared faculty availability and point
// availability queries.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler constructs handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// Get godoc
// @Summary Get declared availability for a faculty member
// @Tags Availability
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/availability [get]
func (h *AvailabilityHandler) Get(c *gin.Context) {
	record, err := h.service.GetByFaculty(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Set godoc
// @Summary Declare availability for a faculty member
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Faculty ID"
// @Param payload body service.SetAvailabilityRequest true "Availability payload"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/availability [put]
func (h *AvailabilityHandler) Set(c *gin.Context) {
	var req service.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.Set(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Clear godoc
// @Summary Clear declared availability for a faculty member
// @Tags Availability
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 204
// @Router /faculty/{id}/availability [delete]
func (h *AvailabilityHandler) Clear(c *gin.Context) {
	if err := h.service.Clear(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CheckFaculty godoc
// @Summary Check whether a faculty member is free at a grid cell
// @Tags Availability
// @Produce json
// @Param id path string true "Faculty ID"
// @Param day query int true "Day index"
// @Param slot query int true "Slot index"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/availability/check [get]
func (h *AvailabilityHandler) CheckFaculty(c *gin.Context) {
	query, err := slotQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	available, err := h.service.IsFacultyAvailable(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"available": available}, nil)
}

// CheckBatch godoc
// @Summary Check whether a batch is free at a grid cell
// @Tags Availability
// @Produce json
// @Param id path string true "Batch ID"
// @Param day query int true "Day index"
// @Param slot query int true "Slot index"
// @Success 200 {object} response.Envelope
// @Router /batches/{id}/availability/check [get]
func (h *AvailabilityHandler) CheckBatch(c *gin.Context) {
	query, err := slotQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	available, err := h.service.IsBatchAvailable(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"available": available}, nil)
}

func slotQuery(c *gin.Context) (service.SlotQuery, error) {
	day, err := strconv.Atoi(c.Query("day"))
	if err != nil {
		return service.SlotQuery{}, appErrors.Clone(appErrors.ErrValidation, "day must be an integer")
	}
	slot, err := strconv.Atoi(c.Query("slot"))
	if err != nil {
		return service.SlotQuery{}, appErrors.Clone(appErrors.ErrValidation, "slot must be an integer")
	}
	return service.SlotQuery{Day: day, Slot: slot}, nil
}
