package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/nurse-roster-api/internal/dto"
	"github.com/noah-isme/nurse-roster-api/internal/models"
	"github.com/noah-isme/nurse-roster-api/internal/roster"
	"github.com/noah-isme/nurse-roster-api/pkg/database"
	appErrors "github.com/noah-isme/nurse-roster-api/pkg/errors"
	"github.com/noah-isme/nurse-roster-api/pkg/validation"
)

type leaveNotifier interface {
	LeaveResolved(ctx context.Context, request models.LeaveRequest, assignment models.Assignment)
}

// LeaveRequestService drives the leave request workflow.
type LeaveRequestService struct {
	tx          txRunner
	shifts      shiftStore
	assignments assignmentStore
	leaves      leaveStore
	cache       *CacheService
	metrics     *MetricsService
	notifier    leaveNotifier
	validator   payloadValidator
	audit       auditTrail
	clock       Clock
	location    *time.Location
	logger      *zap.Logger
}

// LeaveRequestServiceOption configures the service.
type LeaveRequestServiceOption func(*LeaveRequestService)

// WithLeaveClock overrides the time source.
func WithLeaveClock(clock Clock) LeaveRequestServiceOption {
	return func(s *LeaveRequestService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLeaveLocation sets the zone in which "today" is evaluated.
func WithLeaveLocation(loc *time.Location) LeaveRequestServiceOption {
	return func(s *LeaveRequestService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLeaveNotifier publishes decisions.
func WithLeaveNotifier(notifier leaveNotifier) LeaveRequestServiceOption {
	return func(s *LeaveRequestService) { s.notifier = notifier }
}

// WithLeaveCache invalidates nurse schedules on approval.
func WithLeaveCache(cache *CacheService) LeaveRequestServiceOption {
	return func(s *LeaveRequestService) { s.cache = cache }
}

// WithLeaveMetrics counts decisions.
func WithLeaveMetrics(metrics *MetricsService) LeaveRequestServiceOption {
	return func(s *LeaveRequestService) { s.metrics = metrics }
}

// WithLeaveAudit records writes in the audit log.
func WithLeaveAudit(audit auditLogger) LeaveRequestServiceOption {
	return func(s *LeaveRequestService) { s.audit.writer = audit }
}

// NewLeaveRequestService constructs the service.
func NewLeaveRequestService(tx txRunner, shifts shiftStore, assignments assignmentStore, leaves leaveStore, validate payloadValidator, logger *zap.Logger, opts ...LeaveRequestServiceOption) *LeaveRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.MustNew()
	}
	svc := &LeaveRequestService{
		tx:          tx,
		shifts:      shifts,
		assignments: assignments,
		leaves:      leaves,
		validator:   validate,
		audit:       auditTrail{logger: logger, source: "leave-request-service"},
		clock:       time.Now,
		location:    time.UTC,
		logger:      logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

func (s *LeaveRequestService) today() time.Time {
	return models.CalendarDay(s.clock().In(s.location))
}

// Submit files a pending leave request for one of the actor's own future assignments.
func (s *LeaveRequestService) Submit(ctx context.Context, actor models.Actor, req dto.SubmitLeaveRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var created *models.LeaveRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		assignment, err := s.assignments.LockByID(ctx, req.AssignmentID)
		if err != nil {
			return storeError(err, "assignment not found", "lock assignment")
		}
		shift, err := s.shifts.FindByID(ctx, assignment.ShiftID)
		if err != nil {
			return storeError(err, "shift not found", "load shift")
		}
		existing, err := s.leaves.ListByAssignment(ctx, assignment.ID)
		if err != nil {
			return storeError(err, "assignment not found", "list leave requests")
		}
		request, err := roster.SubmitLeave(*assignment, *shift, actor.ID, req.Reason, s.today(), existing)
		if err != nil {
			return err
		}
		if err := s.leaves.Create(ctx, request); err != nil {
			if database.IsUniqueViolation(err, constraintActiveLeave) {
				return appErrors.Clone(appErrors.ErrDuplicateActiveRequest, "")
			}
			return storeError(err, "assignment not found", "create leave request")
		}
		created = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("leave requested", zap.String("leave_request_id", created.ID), zap.String("assignment_id", created.AssignmentID))
	s.audit.record(ctx, actor, models.AuditActionLeaveSubmit, "leave_request", created.ID, nil, created)
	return created, nil
}

// Resolve approves or rejects a pending request. Approval moves the assignment to on_leave in the
// same transaction, so either both rows change or neither does.
func (s *LeaveRequestService) Resolve(ctx context.Context, actor models.Actor, id string, req dto.ResolveLeaveRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var (
		resolution *roster.Resolution
		assignment *models.Assignment
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		request, err := s.leaves.LockByID(ctx, id)
		if err != nil {
			return storeError(err, "leave request not found", "lock leave request")
		}
		assignment, err = s.assignments.LockByID(ctx, request.AssignmentID)
		if err != nil {
			return storeError(err, "assignment not found", "lock assignment")
		}
		resolution, err = roster.ResolveLeave(*request, *assignment, actor.ID, models.LeaveStatus(req.Status), trimmedOrNil(req.AdminNotes), s.clock())
		if err != nil {
			return err
		}
		if err := s.leaves.UpdateResolution(ctx, &resolution.Request); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrAlreadyProcessed, "")
			}
			return storeError(err, "leave request not found", "store leave decision")
		}
		if resolution.Assignment != nil {
			if err := s.assignments.UpdateStatus(ctx, assignment.ID, resolution.Assignment.Status); err != nil {
				return storeError(err, "assignment not found", "mark assignment on leave")
			}
			assignment = resolution.Assignment
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resolved := resolution.Request
	s.cache.Invalidate(ctx, scheduleCachePattern(assignment.NurseID))
	s.metrics.RecordLeaveDecision(string(resolved.Status))
	s.logger.Info("leave resolved",
		zap.String("leave_request_id", resolved.ID), zap.String("decision", string(resolved.Status)), zap.String("approver", actor.ID))
	s.audit.record(ctx, actor, models.AuditActionLeaveResolve, "leave_request", resolved.ID, nil, resolved)
	if s.notifier != nil {
		s.notifier.LeaveResolved(ctx, resolved, *assignment)
	}
	return &resolved, nil
}

// Cancel withdraws a pending request. Head nurses may cancel any request.
func (s *LeaveRequestService) Cancel(ctx context.Context, actor models.Actor, id string) error {
	var cancelled *models.LeaveRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		request, err := s.leaves.LockByID(ctx, id)
		if err != nil {
			return storeError(err, "leave request not found", "lock leave request")
		}
		if err := roster.CancelLeave(*request, actor); err != nil {
			return err
		}
		if err := s.leaves.Delete(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrAlreadyProcessed, "")
			}
			return storeError(err, "leave request not found", "delete leave request")
		}
		cancelled = request
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("leave cancelled", zap.String("leave_request_id", id))
	s.audit.record(ctx, actor, models.AuditActionLeaveCancel, "leave_request", id, cancelled, nil)
	return nil
}

// Edit replaces the reason of the actor's own pending request.
func (s *LeaveRequestService) Edit(ctx context.Context, actor models.Actor, id string, req dto.EditLeaveRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	var before, edited *models.LeaveRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		request, err := s.leaves.LockByID(ctx, id)
		if err != nil {
			return storeError(err, "leave request not found", "lock leave request")
		}
		next, err := roster.EditLeave(*request, actor, req.Reason)
		if err != nil {
			return err
		}
		if err := s.leaves.UpdateReason(ctx, id, next.Reason); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrAlreadyProcessed, "")
			}
			return storeError(err, "leave request not found", "update leave request")
		}
		before, edited = request, next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, actor, models.AuditActionLeaveEdit, "leave_request", id, before, edited)
	return edited, nil
}

// Get returns a leave request. Nurses only see their own.
func (s *LeaveRequestService) Get(ctx context.Context, actor models.Actor, id string) (*models.LeaveRequest, error) {
	request, err := s.leaves.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "leave request not found", "load leave request")
	}
	if !actor.IsHeadNurse() && request.RequestedBy != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "leave request not found")
	}
	return request, nil
}

// List returns leave requests. Nurses are scoped to their own requests.
func (s *LeaveRequestService) List(ctx context.Context, actor models.Actor, query dto.LeaveRequestQuery) ([]models.LeaveRequest, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}
	filter := models.LeaveRequestFilter{
		AssignmentID: query.AssignmentID,
		Limit:        query.Limit,
		Offset:       query.Offset,
	}
	if query.Status != "" {
		filter.Status = []models.LeaveStatus{models.LeaveStatus(query.Status)}
	}
	if !actor.IsHeadNurse() {
		filter.RequestedBy = actor.ID
	}
	requests, err := s.leaves.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "leave request not found", "list leave requests")
	}
	return requests, nil
}
