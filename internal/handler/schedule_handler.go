package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nurse-roster-api/internal/dto"
	"github.com/noah-isme/nurse-roster-api/internal/middleware"
	"github.com/noah-isme/nurse-roster-api/internal/models"
	"github.com/noah-isme/nurse-roster-api/internal/service"
	"github.com/noah-isme/nurse-roster-api/pkg/response"
)

type scheduleService interface {
	NurseSchedule(ctx context.Context, nurseID string, query dto.ScheduleQuery) (*models.ScheduleView, bool, error)
	Export(ctx context.Context, nurseID string, query dto.ScheduleExportQuery) (*service.ExportResult, error)
}

// ScheduleHandler serves per-nurse schedule views.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(service scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// NurseSchedule godoc
// @Summary Nurse schedule for a date range
// @Tags Schedules
// @Produce json
// @Param id path string true "Nurse ID"
// @Param start_date query string true "First day (YYYY-MM-DD)"
// @Param end_date query string true "Last day (YYYY-MM-DD)"
// @Param status query string false "assigned, completed or on_leave"
// @Success 200 {object} response.Envelope
// @Router /nurses/{id}/schedule [get]
func (h *ScheduleHandler) NurseSchedule(c *gin.Context) {
	var query dto.ScheduleQuery
	if !bindQuery(c, &query) {
		return
	}
	view, cacheHit, err := h.service.NurseSchedule(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, view, middleware.ResponseMeta(c))
}

// Export godoc
// @Summary Download a nurse schedule
// @Tags Schedules
// @Produce octet-stream
// @Param id path string true "Nurse ID"
// @Param start_date query string true "First day (YYYY-MM-DD)"
// @Param end_date query string true "Last day (YYYY-MM-DD)"
// @Param format query string false "csv (default), pdf or xlsx"
// @Success 200 {file} file
// @Router /nurses/{id}/schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	var query dto.ScheduleExportQuery
	if !bindQuery(c, &query) {
		return
	}
	result, err := h.service.Export(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, result.Body)
}
