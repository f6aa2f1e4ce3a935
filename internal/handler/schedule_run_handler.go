package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eduplan/scheduler-core/internal/dto"
	"github.com/eduplan/scheduler-core/internal/engine"
	"github.com/eduplan/scheduler-core/internal/models"
	"github.com/eduplan/scheduler-core/internal/service"
	appErrors "github.com/eduplan/scheduler-core/pkg/errors"
	"github.com/eduplan/scheduler-core/pkg/response"
)

const defaultRunListLimit = 50

type runGenerator interface {
	Generate(ctx context.Context, req dto.CreateRunRequest) (*dto.RunResponse, error)
	Get(ctx context.Context, id string) (*dto.RunResponse, error)
	List(ctx context.Context, limit int) ([]models.ScheduleRunSummary, error)
	Delete(ctx context.Context, id string) error
	Statistics(ctx context.Context, id string) (engine.Statistics, error)
}

// ScheduleRunHandler exposes the scheduling run endpoints.
type ScheduleRunHandler struct {
	runs    runGenerator
	exports *service.ExportService
}

// NewScheduleRunHandler constructs the handler.
func NewScheduleRunHandler(runs *service.RunService, exports *service.ExportService) *ScheduleRunHandler {
	return &ScheduleRunHandler{runs: runs, exports: exports}
}

// Create godoc
// @Summary Run the scheduling pipeline over a stream list and configuration
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.CreateRunRequest true "Streams and configuration"
// @Success 200 {object} response.Envelope
// @Router /schedule/runs [post]
func (h *ScheduleRunHandler) Create(c *gin.Context) {
	var req dto.CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule run payload"))
		return
	}
	result, err := h.runs.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Get godoc
// @Summary Fetch a stored schedule run
// @Tags Scheduler
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /schedule/runs/{id} [get]
func (h *ScheduleRunHandler) Get(c *gin.Context) {
	result, err := h.runs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List recent schedule runs
// @Tags Scheduler
// @Produce json
// @Param limit query int false "Max results"
// @Success 200 {object} response.Envelope
// @Router /schedule/runs [get]
func (h *ScheduleRunHandler) List(c *gin.Context) {
	limit := defaultRunListLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	result, err := h.runs.List(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete a stored schedule run
// @Tags Scheduler
// @Param id path string true "Run ID"
// @Success 204
// @Router /schedule/runs/{id} [delete]
func (h *ScheduleRunHandler) Delete(c *gin.Context) {
	if err := h.runs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ReportCSV godoc
// @Summary Render a run's statistics report as CSV
// @Tags Scheduler
// @Produce text/csv
// @Param id path string true "Run ID"
// @Success 200
// @Router /schedule/runs/{id}/report.csv [get]
func (h *ScheduleRunHandler) ReportCSV(c *gin.Context) {
	h.renderReport(c, service.ReportFormatCSV, "text/csv")
}

// ReportPDF godoc
// @Summary Render a run's statistics report as PDF
// @Tags Scheduler
// @Produce application/pdf
// @Param id path string true "Run ID"
// @Success 200
// @Router /schedule/runs/{id}/report.pdf [get]
func (h *ScheduleRunHandler) ReportPDF(c *gin.Context) {
	h.renderReport(c, service.ReportFormatPDF, "application/pdf")
}

func (h *ScheduleRunHandler) renderReport(c *gin.Context, format service.ReportFormat, contentType string) {
	id := c.Param("id")
	stats, err := h.runs.Statistics(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.GenerateRunReport(id, stats, format)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to render report"))
		return
	}
	file, err := h.exports.Open(result.RelativePath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to open rendered report"))
		return
	}
	defer file.Close() //nolint:errcheck
	c.DataFromReader(http.StatusOK, -1, contentType, file, nil)
}
