package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/planbook/planbook-api/internal/models"
	"github.com/planbook/planbook-api/internal/service"
	appErrors "github.com/planbook/planbook-api/pkg/errors"
	"github.com/planbook/planbook-api/pkg/response"
)

// ScheduleHandler manages schedule generation and event endpoints.
type ScheduleHandler struct {
	generator *service.ScheduleGeneratorService
	events    *service.ScheduleEventService
	exports   *service.ExportService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(generator *service.ScheduleGeneratorService, events *service.ScheduleEventService, exports *service.ExportService) *ScheduleHandler {
	return &ScheduleHandler{generator: generator, events: events, exports: exports}
}

// continueRequest wraps a schedule config with the cut date for a partial
// regeneration.
type continueRequest struct {
	Config    models.ScheduleConfig `json:"config"`
	AfterDate string                `json:"afterDate"`
}

// Events godoc
// @Summary List schedule events
// @Tags Schedule
// @Produce json
// @Param scheduleId query int true "Schedule ID"
// @Param courseId query int false "Filter by course"
// @Param period query int false "Filter by period"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedule/events [get]
func (h *ScheduleHandler) Events(c *gin.Context) {
	scheduleID, err := strconv.ParseInt(c.Query("scheduleId"), 10, 64)
	if err != nil || scheduleID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "scheduleId must be a positive integer"))
		return
	}

	filter := models.ScheduleEventFilter{ScheduleID: scheduleID}
	if courseID, err := strconv.ParseInt(c.Query("courseId"), 10, 64); err == nil {
		filter.CourseID = courseID
	}
	if period, err := strconv.Atoi(c.Query("period")); err == nil {
		filter.Period = period
	}
	if from, ok := parseDateQuery(c, "from"); ok {
		filter.From = &from
	}
	if to, ok := parseDateQuery(c, "to"); ok {
		filter.To = &to
	}

	events, err := h.events.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// Generate godoc
// @Summary Generate a schedule's events from its configuration
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body models.ScheduleConfig true "Schedule configuration"
// @Success 200 {object} response.Envelope
// @Router /schedule/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var cfg models.ScheduleConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule configuration"))
		return
	}
	events, err := h.generator.Generate(c.Request.Context(), cfg)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil, map[string]interface{}{"generated": len(events)})
}

// Continue godoc
// @Summary Partially regenerate a schedule after a cut date
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body continueRequest true "Configuration and cut date"
// @Success 200 {object} response.Envelope
// @Router /schedule/continue [post]
func (h *ScheduleHandler) Continue(c *gin.Context) {
	var req continueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid continuation payload"))
		return
	}
	afterDate, err := time.Parse("2006-01-02", req.AfterDate)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "afterDate must be formatted YYYY-MM-DD"))
		return
	}
	events, err := h.generator.Continue(c.Request.Context(), req.Config, afterDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil, map[string]interface{}{"generated": len(events)})
}

// Export godoc
// @Summary Export a schedule as CSV or PDF
// @Tags Schedule
// @Produce text/csv
// @Produce application/pdf
// @Param scheduleId query int true "Schedule ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	scheduleID, err := strconv.ParseInt(c.Query("scheduleId"), 10, 64)
	if err != nil || scheduleID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "scheduleId must be a positive integer"))
		return
	}

	result, err := h.exports.Export(c.Request.Context(), scheduleID, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

func parseDateQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
