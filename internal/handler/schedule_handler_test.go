package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/nurse-roster-api/internal/dto"
	"github.com/noah-isme/nurse-roster-api/internal/middleware"
	"github.com/noah-isme/nurse-roster-api/internal/models"
	"github.com/noah-isme/nurse-roster-api/internal/service"
	appErrors "github.com/noah-isme/nurse-roster-api/pkg/errors"
)

type fakeScheduleSrv struct {
	view        *models.ScheduleView
	hit         bool
	err         error
	lastNurse   string
	lastQuery   dto.ScheduleQuery
	lastExport  dto.ScheduleExportQuery
	exportValue *service.ExportResult
}

func (f *fakeScheduleSrv) NurseSchedule(_ context.Context, nurseID string, query dto.ScheduleQuery) (*models.ScheduleView, bool, error) {
	f.lastNurse, f.lastQuery = nurseID, query
	return f.view, f.hit, f.err
}

func (f *fakeScheduleSrv) Export(_ context.Context, nurseID string, query dto.ScheduleExportQuery) (*service.ExportResult, error) {
	f.lastNurse, f.lastExport = nurseID, query
	return f.exportValue, f.err
}

func TestScheduleHandlerReportsCacheHit(t *testing.T) {
	srv := &fakeScheduleSrv{
		view: &models.ScheduleView{Summary: models.ScheduleSummary{Total: 3, StartDate: "2024-01-01", EndDate: "2024-01-31"}},
		hit:  true,
	}
	h := NewScheduleHandler(srv)

	c, rec := newContext(http.MethodGet, "/nurses/n-1/schedule?start_date=2024-01-01&end_date=2024-01-31&status=assigned", nil, nurseClaims("n-1"))
	c.Params = gin.Params{{Key: "id", Value: "n-1"}}
	middleware.WithResponseMeta()(c)
	h.NurseSchedule(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "n-1", srv.lastNurse)
	assert.Equal(t, "assigned", srv.lastQuery.Status)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
}

func TestScheduleHandlerValidationError(t *testing.T) {
	h := NewScheduleHandler(&fakeScheduleSrv{err: appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")})

	c, rec := newContext(http.MethodGet, "/nurses/n-1/schedule?start_date=2024-02-01&end_date=2024-01-01", nil, nurseClaims("n-1"))
	c.Params = gin.Params{{Key: "id", Value: "n-1"}}
	h.NurseSchedule(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Error.Code)
}

func TestScheduleHandlerExportStreamsAttachment(t *testing.T) {
	srv := &fakeScheduleSrv{exportValue: &service.ExportResult{
		Filename:    "schedule_n-1_2024-01-01_2024-01-31.csv",
		ContentType: "text/csv",
		Body:        []byte("Date,Start\n2024-01-15,07:00\n"),
	}}
	h := NewScheduleHandler(srv)

	c, rec := newContext(http.MethodGet, "/nurses/n-1/schedule/export?start_date=2024-01-01&end_date=2024-01-31&format=csv", nil, headNurseClaims())
	c.Params = gin.Params{{Key: "id", Value: "n-1"}}
	h.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", srv.lastExport.Format)
	assert.Equal(t, "2024-01-01", srv.lastExport.StartDate)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "schedule_n-1_2024-01-01_2024-01-31.csv")
	assert.Contains(t, rec.Body.String(), "2024-01-15,07:00")
}
