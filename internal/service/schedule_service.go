package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/nurse-roster-api/internal/dto"
	"github.com/noah-isme/nurse-roster-api/internal/models"
	"github.com/noah-isme/nurse-roster-api/internal/roster"
	appErrors "github.com/noah-isme/nurse-roster-api/pkg/errors"
	"github.com/noah-isme/nurse-roster-api/pkg/export"
	"github.com/noah-isme/nurse-roster-api/pkg/validation"
)

const maxScheduleDays = 366

func scheduleCacheKey(nurseID string, q dto.ScheduleQuery) string {
	return fmt.Sprintf("schedule:%s:%s:%s:%s", nurseID, q.StartDate, q.EndDate, q.Status)
}

func scheduleCachePattern(nurseID string) string {
	return "schedule:" + nurseID + ":*"
}

// ExportResult is a rendered schedule document.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ScheduleService builds nurse schedule views.
type ScheduleService struct {
	assignments assignmentStore
	users       userReader
	cache       *CacheService
	exporters   export.Registry
	validator   payloadValidator
	logger      *zap.Logger
}

// NewScheduleService constructs the service.
func NewScheduleService(assignments assignmentStore, users userReader, cache *CacheService, exporters export.Registry, validate payloadValidator, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.MustNew()
	}
	if exporters == nil {
		exporters = export.NewRegistry()
	}
	return &ScheduleService{
		assignments: assignments,
		users:       users,
		cache:       cache,
		exporters:   exporters,
		validator:   validate,
		logger:      logger,
	}
}

// NurseSchedule returns the nurse's assignments in [start_date, end_date], optionally filtered by status.
// The boolean reports whether the view was served from cache.
func (s *ScheduleService) NurseSchedule(ctx context.Context, nurseID string, query dto.ScheduleQuery) (*models.ScheduleView, bool, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, false, err
	}
	key := scheduleCacheKey(nurseID, query)
	var cached models.ScheduleView
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	view, err := s.build(ctx, nurseID, query)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, view, 0)
	return view, false, nil
}

func (s *ScheduleService) build(ctx context.Context, nurseID string, query dto.ScheduleQuery) (*models.ScheduleView, error) {
	from, err := models.ParseDate(query.StartDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	to, err := models.ParseDate(query.EndDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}
	if to.Sub(from).Hours()/24 >= maxScheduleDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("schedule range is limited to %d days", maxScheduleDays))
	}

	if _, err := s.users.FindByID(ctx, nurseID); err != nil {
		return nil, storeError(err, "nurse not found", "load nurse")
	}
	items, err := s.assignments.ListDetailsByNurse(ctx, nurseID, from, to)
	if err != nil {
		return nil, storeError(err, "nurse not found", "list nurse assignments")
	}
	roster.SortDetails(items)
	view := roster.BuildSchedule(items, from, to, models.AssignmentStatus(query.Status))
	return &view, nil
}

// Export renders the schedule view in the requested format.
func (s *ScheduleService) Export(ctx context.Context, nurseID string, query dto.ScheduleExportQuery) (*ExportResult, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(query.Format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "format must be csv, pdf or xlsx")
	}
	exporter, err := s.exporters.Get(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "format must be csv, pdf or xlsx")
	}

	view, _, err := s.NurseSchedule(ctx, nurseID, query.ScheduleQuery)
	if err != nil {
		return nil, err
	}
	body, err := exporter.Render(scheduleDataset(nurseID, *view))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to render schedule")
	}
	s.logger.Info("schedule exported", zap.String("nurse_id", nurseID), zap.String("format", string(format)), zap.Int("rows", len(view.Items)))
	return &ExportResult{
		Filename:    fmt.Sprintf("schedule_%s_%s_%s.%s", nurseID, view.Summary.StartDate, view.Summary.EndDate, exporter.Extension()),
		ContentType: exporter.ContentType(),
		Body:        body,
	}, nil
}

func scheduleDataset(nurseID string, view models.ScheduleView) export.Dataset {
	headers := []string{"Date", "Start", "End", "Hours", "Type", "Department", "Status", "Notes"}
	rows := make([]map[string]string, 0, len(view.Items))
	name := nurseID
	for _, item := range view.Items {
		if item.NurseName != nil && strings.TrimSpace(*item.NurseName) != "" {
			name = *item.NurseName
		}
		notes := ""
		if item.Notes != nil {
			notes = *item.Notes
		}
		rows = append(rows, map[string]string{
			"Date":       models.DateKey(item.ShiftDate),
			"Start":      item.StartTime.String(),
			"End":        item.EndTime.String(),
			"Hours":      fmt.Sprintf("%.1f", roster.Duration(item.StartTime, item.EndTime)),
			"Type":       string(item.ShiftType),
			"Department": item.Department,
			"Status":     string(item.Status),
			"Notes":      notes,
		})
	}
	return export.Dataset{
		Title: fmt.Sprintf("Schedule for %s (%s to %s) - %d total, %d upcoming, %d completed, %d on leave",
			name, view.Summary.StartDate, view.Summary.EndDate,
			view.Summary.Total, view.Summary.Upcoming, view.Summary.Completed, view.Summary.OnLeave),
		Headers: headers,
		Rows:    rows,
	}
}
