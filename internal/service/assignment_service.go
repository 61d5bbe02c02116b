package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/nurse-roster-api/internal/dto"
	"github.com/noah-isme/nurse-roster-api/internal/models"
	"github.com/noah-isme/nurse-roster-api/internal/roster"
	"github.com/noah-isme/nurse-roster-api/pkg/database"
	appErrors "github.com/noah-isme/nurse-roster-api/pkg/errors"
	"github.com/noah-isme/nurse-roster-api/pkg/validation"
)

// AssignmentService owns the assignment write path.
type AssignmentService struct {
	tx          txRunner
	shifts      shiftStore
	assignments assignmentStore
	leaves      leaveStore
	users       userReader
	cache       *CacheService
	metrics     *MetricsService
	validator   payloadValidator
	audit       auditTrail
	logger      *zap.Logger
}

// AssignmentServiceOption configures the service.
type AssignmentServiceOption func(*AssignmentService)

// WithAssignmentCache invalidates nurse schedules on writes.
func WithAssignmentCache(cache *CacheService) AssignmentServiceOption {
	return func(s *AssignmentService) { s.cache = cache }
}

// WithAssignmentMetrics counts proposal outcomes.
func WithAssignmentMetrics(metrics *MetricsService) AssignmentServiceOption {
	return func(s *AssignmentService) { s.metrics = metrics }
}

// WithAssignmentAudit records writes in the audit log.
func WithAssignmentAudit(audit auditLogger) AssignmentServiceOption {
	return func(s *AssignmentService) { s.audit.writer = audit }
}

// NewAssignmentService constructs the service.
func NewAssignmentService(tx txRunner, shifts shiftStore, assignments assignmentStore, leaves leaveStore, users userReader, validate payloadValidator, logger *zap.Logger, opts ...AssignmentServiceOption) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.MustNew()
	}
	svc := &AssignmentService{
		tx:          tx,
		shifts:      shifts,
		assignments: assignments,
		leaves:      leaves,
		users:       users,
		validator:   validate,
		audit:       auditTrail{logger: logger, source: "assignment-service"},
		logger:      logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Propose assigns a nurse to a shift. The shift row is locked for the duration of the checks so
// concurrent proposals against the same shift serialise.
func (s *AssignmentService) Propose(ctx context.Context, actor models.Actor, req dto.ProposeAssignmentRequest) (assignment *models.Assignment, err error) {
	defer func() { s.metrics.RecordProposal(err) }()

	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		nurse, err := s.users.FindByID(ctx, req.NurseID)
		if err != nil {
			return storeError(err, "nurse not found", "load nurse")
		}
		shift, err := s.shifts.LockByID(ctx, req.ShiftID)
		if err != nil {
			return storeError(err, "shift not found", "lock shift")
		}
		forShift, err := s.assignments.ListByShift(ctx, shift.ID)
		if err != nil {
			return storeError(err, "shift not found", "list shift assignments")
		}
		forNurse, err := s.assignments.ListDetailsByNurseOnDate(ctx, nurse.ID, shift.ShiftDate)
		if err != nil {
			return storeError(err, "nurse not found", "list nurse assignments")
		}

		created, err := roster.ProposeAssignment(roster.Proposal{
			Nurse:    nurse,
			Shift:    *shift,
			ForShift: forShift,
			ForNurse: forNurse,
			ActorID:  actor.ID,
			Notes:    trimmedOrNil(req.Notes),
		})
		if err != nil {
			return err
		}
		if err := s.assignments.Create(ctx, created); err != nil {
			if database.IsUniqueViolation(err, constraintAssignmentPair) {
				return appErrors.Clone(appErrors.ErrDuplicateAssignment, "")
			}
			return storeError(err, "shift not found", "create assignment")
		}
		assignment = created
		return nil
	})
	if err != nil {
		s.logger.Info("assignment rejected",
			zap.String("shift_id", req.ShiftID), zap.String("nurse_id", req.NurseID), zap.Error(err))
		return nil, err
	}

	s.cache.Invalidate(ctx, scheduleCachePattern(assignment.NurseID))
	s.logger.Info("assignment created",
		zap.String("assignment_id", assignment.ID), zap.String("shift_id", assignment.ShiftID), zap.String("nurse_id", assignment.NurseID))
	s.audit.record(ctx, actor, models.AuditActionAssignmentCreate, "assignment", assignment.ID, nil, assignment)
	return assignment, nil
}

// UpdateStatus applies a manual transition. Only completed is accepted; on_leave follows leave approval.
func (s *AssignmentService) UpdateStatus(ctx context.Context, actor models.Actor, id string, req dto.UpdateAssignmentStatusRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var before, after *models.Assignment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.assignments.LockByID(ctx, id)
		if err != nil {
			return storeError(err, "assignment not found", "lock assignment")
		}
		next, err := roster.TransitionAssignment(*current, models.AssignmentStatus(req.Status))
		if err != nil {
			return err
		}
		if err := s.assignments.UpdateStatus(ctx, id, next.Status); err != nil {
			return storeError(err, "assignment not found", "update assignment status")
		}
		before, after = current, next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, scheduleCachePattern(after.NurseID))
	s.logger.Info("assignment status changed", zap.String("assignment_id", id), zap.String("status", string(after.Status)))
	s.audit.record(ctx, actor, models.AuditActionAssignmentStatus, "assignment", id, before, after)
	return after, nil
}

// Get returns an assignment with its shift. Nurses may only read their own.
func (s *AssignmentService) Get(ctx context.Context, actor models.Actor, id string) (*models.AssignmentDetail, error) {
	detail, err := s.assignments.FindDetailByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "assignment not found", "load assignment")
	}
	if !actor.IsHeadNurse() && detail.NurseID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return detail, nil
}

// Remove deletes an assignment that is still assigned and has no active leave request.
func (s *AssignmentService) Remove(ctx context.Context, actor models.Actor, id string) error {
	var removed *models.Assignment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.assignments.LockByID(ctx, id)
		if err != nil {
			return storeError(err, "assignment not found", "lock assignment")
		}
		if current.Status != models.AssignmentAssigned {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "only assigned assignments can be removed")
		}
		history, err := s.leaves.ListByAssignment(ctx, id)
		if err != nil {
			return storeError(err, "assignment not found", "list leave requests")
		}
		for _, r := range history {
			if r.Active() {
				return appErrors.Clone(appErrors.ErrDuplicateActiveRequest, "assignment has an active leave request")
			}
		}
		if err := s.assignments.Delete(ctx, id); err != nil {
			return storeError(err, "assignment not found", "delete assignment")
		}
		removed = current
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, scheduleCachePattern(removed.NurseID))
	s.logger.Info("assignment removed", zap.String("assignment_id", id))
	s.audit.record(ctx, actor, models.AuditActionAssignmentDelete, "assignment", id, removed, nil)
	return nil
}
