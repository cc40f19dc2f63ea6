package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tabula-api/internal/models"
	"github.com/noah-isme/tabula-api/internal/service"
	appErrors "github.com/noah-isme/tabula-api/pkg/errors"
	"github.com/noah-isme/tabula-api/pkg/response"
)

// ImportHandler accepts bulk snapshots for canonicalisation and load.
type ImportHandler struct {
	service *service.ImportService
}

// NewImportHandler constructs handler.
func NewImportHandler(svc *service.ImportService) *ImportHandler {
	return &ImportHandler{service: svc}
}

// Import godoc
// @Summary Import a bulk snapshot, canonicalising identifiers
// @Tags Import
// @Accept json
// @Produce json
// @Param payload body models.Snapshot true "Snapshot payload"
// @Success 200 {object} response.Envelope
// @Router /import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	var snapshot models.Snapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid snapshot payload"))
		return
	}
	canonical, err := h.service.ImportSnapshot(c.Request.Context(), snapshot)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, canonical, nil)
}

// Preview godoc
// @Summary Canonicalise a snapshot without persisting it
// @Tags Import
// @Accept json
// @Produce json
// @Param payload body models.Snapshot true "Snapshot payload"
// @Success 200 {object} response.Envelope
// @Router /import/preview [post]
func (h *ImportHandler) Preview(c *gin.Context) {
	var snapshot models.Snapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid snapshot payload"))
		return
	}
	response.JSON(c, http.StatusOK, h.service.Canonicalize(snapshot), nil)
}
