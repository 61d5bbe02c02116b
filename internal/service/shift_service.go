package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/nurse-roster-api/internal/dto"
	"github.com/noah-isme/nurse-roster-api/internal/models"
	"github.com/noah-isme/nurse-roster-api/internal/roster"
	appErrors "github.com/noah-isme/nurse-roster-api/pkg/errors"
	"github.com/noah-isme/nurse-roster-api/pkg/validation"
)

// ShiftService manages shifts and their capacity view.
type ShiftService struct {
	tx          txRunner
	shifts      shiftStore
	assignments assignmentStore
	cache       *CacheService
	validator   payloadValidator
	audit       auditTrail
	logger      *zap.Logger
}

// NewShiftService constructs the service.
func NewShiftService(tx txRunner, shifts shiftStore, assignments assignmentStore, cache *CacheService, audit auditLogger, validate payloadValidator, logger *zap.Logger) *ShiftService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.MustNew()
	}
	return &ShiftService{
		tx:          tx,
		shifts:      shifts,
		assignments: assignments,
		cache:       cache,
		validator:   validate,
		audit:       auditTrail{writer: audit, logger: logger, source: "shift-service"},
		logger:      logger,
	}
}

// Create stores a new shift owned by actor.
func (s *ShiftService) Create(ctx context.Context, actor models.Actor, req dto.CreateShiftRequest) (*models.ShiftCapacity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	day, err := models.ParseDate(req.ShiftDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "shift_date must be YYYY-MM-DD")
	}
	start, end, err := parseShiftTimes(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	shift := &models.Shift{
		ShiftDate:      day,
		StartTime:      start,
		EndTime:        end,
		ShiftType:      models.ShiftType(req.ShiftType),
		RequiredNurses: req.RequiredNurses,
		Department:     strings.TrimSpace(req.Department),
		CreatedBy:      actor.ID,
	}
	if err := s.shifts.Create(ctx, shift); err != nil {
		return nil, storeError(err, "shift not found", "create shift")
	}
	s.logger.Info("shift created", zap.String("shift_id", shift.ID), zap.String("date", models.DateKey(shift.ShiftDate)))
	s.audit.record(ctx, actor, models.AuditActionShiftCreate, "shift", shift.ID, nil, shift)

	view := roster.Capacity(*shift, nil)
	return &view, nil
}

// Update changes shift attributes. Capacity may not drop below the active assignment count and
// a reschedule may not create overlaps for nurses already on the shift.
func (s *ShiftService) Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateShiftRequest) (*models.ShiftCapacity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var (
		before  models.Shift
		updated *models.Shift
		current []models.Assignment
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		shift, err := s.shifts.LockByID(ctx, id)
		if err != nil {
			return storeError(err, "shift not found", "load shift")
		}
		before = *shift
		if err := applyShiftChanges(shift, req); err != nil {
			return err
		}

		current, err = s.assignments.ListByShift(ctx, id)
		if err != nil {
			return storeError(err, "shift not found", "list shift assignments")
		}
		if active := roster.ActiveCount(current); shift.RequiredNurses < active {
			return appErrors.Clone(appErrors.ErrCapacityBelowAssigned, "")
		}
		if rescheduled(before, *shift) {
			if err := s.ensureNoOverlaps(ctx, *shift, current); err != nil {
				return err
			}
		}
		if err := s.shifts.Update(ctx, shift); err != nil {
			return storeError(err, "shift not found", "update shift")
		}
		updated = shift
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, a := range current {
		s.cache.Invalidate(ctx, scheduleCachePattern(a.NurseID))
	}
	s.logger.Info("shift updated", zap.String("shift_id", id))
	s.audit.record(ctx, actor, models.AuditActionShiftUpdate, "shift", id, before, updated)

	view := roster.Capacity(*updated, current)
	return &view, nil
}

func (s *ShiftService) ensureNoOverlaps(ctx context.Context, shift models.Shift, current []models.Assignment) error {
	for _, a := range current {
		if !a.Active() {
			continue
		}
		others, err := s.assignments.ListDetailsByNurseOnDate(ctx, a.NurseID, shift.ShiftDate)
		if err != nil {
			return storeError(err, "nurse not found", "load nurse assignments")
		}
		if clash := roster.FindOverlap(shift, others); clash != nil {
			return appErrors.Clone(appErrors.ErrScheduleConflict,
				"rescheduling would overlap another shift of nurse "+a.NurseID)
		}
	}
	return nil
}

// Get returns a shift with its capacity figures.
func (s *ShiftService) Get(ctx context.Context, id string) (*models.ShiftCapacity, error) {
	shift, err := s.shifts.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "shift not found", "load shift")
	}
	assignments, err := s.assignments.ListByShift(ctx, id)
	if err != nil {
		return nil, storeError(err, "shift not found", "list shift assignments")
	}
	view := roster.Capacity(*shift, assignments)
	return &view, nil
}

// List returns shifts matching the query.
func (s *ShiftService) List(ctx context.Context, query dto.ShiftQuery) ([]models.Shift, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}
	filter := models.ShiftFilter{
		Department: strings.TrimSpace(query.Department),
		ShiftType:  models.ShiftType(query.ShiftType),
		Limit:      query.Limit,
		Offset:     query.Offset,
	}
	if query.From != "" {
		from, _ := models.ParseDate(query.From)
		filter.From = &from
	}
	if query.To != "" {
		to, _ := models.ParseDate(query.To)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	shifts, err := s.shifts.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "shift not found", "list shifts")
	}
	return shifts, nil
}

// ListAssignments returns the roster of a shift.
func (s *ShiftService) ListAssignments(ctx context.Context, id string) ([]models.AssignmentDetail, error) {
	if _, err := s.shifts.FindByID(ctx, id); err != nil {
		return nil, storeError(err, "shift not found", "load shift")
	}
	details, err := s.assignments.ListDetailsByShift(ctx, id)
	if err != nil {
		return nil, storeError(err, "shift not found", "list shift assignments")
	}
	return details, nil
}

func parseShiftTimes(rawStart, rawEnd string) (models.TimeOfDay, models.TimeOfDay, error) {
	start, err := models.ParseTimeOfDay(rawStart)
	if err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrValidation, "start_time must be HH:MM")
	}
	end, err := models.ParseTimeOfDay(rawEnd)
	if err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrValidation, "end_time must be HH:MM")
	}
	if start == end {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "start_time and end_time must differ")
	}
	return start, end, nil
}

func applyShiftChanges(shift *models.Shift, req dto.UpdateShiftRequest) error {
	if req.ShiftDate != nil {
		day, err := models.ParseDate(*req.ShiftDate)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation, "shift_date must be YYYY-MM-DD")
		}
		shift.ShiftDate = day
	}
	rawStart, rawEnd := shift.StartTime.String(), shift.EndTime.String()
	if req.StartTime != nil {
		rawStart = *req.StartTime
	}
	if req.EndTime != nil {
		rawEnd = *req.EndTime
	}
	start, end, err := parseShiftTimes(rawStart, rawEnd)
	if err != nil {
		return err
	}
	shift.StartTime, shift.EndTime = start, end
	if req.ShiftType != nil {
		shift.ShiftType = models.ShiftType(*req.ShiftType)
	}
	if req.RequiredNurses != nil {
		shift.RequiredNurses = *req.RequiredNurses
	}
	if req.Department != nil {
		shift.Department = strings.TrimSpace(*req.Department)
	}
	return nil
}

func rescheduled(before, after models.Shift) bool {
	return !before.ShiftDate.Equal(after.ShiftDate) || before.StartTime != after.StartTime || before.EndTime != after.EndTime
}
