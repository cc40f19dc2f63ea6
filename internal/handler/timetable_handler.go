package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tabula-api/internal/service"
	appErrors "github.com/noah-isme/tabula-api/pkg/errors"
	"github.com/noah-isme/tabula-api/pkg/export"
	"github.com/noah-isme/tabula-api/pkg/response"
)

// TimetableHandler serves resolved timetable views, single-assignment
// mutations, and CSV/PDF exports.
type TimetableHandler struct {
	timetables *service.TimetableService
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(timetables *service.TimetableService, csv *export.CSVExporter, pdf *export.PDFExporter) *TimetableHandler {
	return &TimetableHandler{timetables: timetables, csv: csv, pdf: pdf}
}

// Master godoc
// @Summary Get the master timetable across all batches
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) Master(c *gin.Context) {
	view, err := h.timetables.MasterView(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// ByBatch godoc
// @Summary Get the timetable of one batch
// @Tags Timetable
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /batches/{id}/timetable [get]
func (h *TimetableHandler) ByBatch(c *gin.Context) {
	view, err := h.timetables.BatchView(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// ByFaculty godoc
// @Summary Get the timetable of one faculty member
// @Tags Timetable
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/timetable [get]
func (h *TimetableHandler) ByFaculty(c *gin.Context) {
	view, err := h.timetables.FacultyView(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// ExportBatch godoc
// @Summary Export the timetable of one batch as CSV or PDF
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Batch ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /batches/{id}/timetable/export [get]
func (h *TimetableHandler) ExportBatch(c *gin.Context) {
	view, err := h.timetables.BatchView(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	grid, err := h.timetables.ExportGrid(view, c.Query("title"))
	if err != nil {
		response.Error(c, err)
		return
	}

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		payload, err := h.csv.Render(grid)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=timetable-%s.csv", c.Param("id")))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(grid)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=timetable-%s.pdf", c.Param("id")))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

// Move godoc
// @Summary Move one assignment to another grid cell
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body service.MoveAssignmentRequest true "Target cell"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/move [patch]
func (h *TimetableHandler) Move(c *gin.Context) {
	var req service.MoveAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.timetables.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.timetables.Move(c.Request.Context(), assignment, req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Remove godoc
// @Summary Delete one assignment
// @Tags Timetable
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *TimetableHandler) Remove(c *gin.Context) {
	if err := h.timetables.Remove(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
