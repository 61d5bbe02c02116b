package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/nurse-roster-api/internal/models"
	"github.com/noah-isme/nurse-roster-api/pkg/database"
	appErrors "github.com/noah-isme/nurse-roster-api/pkg/errors"
)

type txRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type shiftStore interface {
	Create(ctx context.Context, shift *models.Shift) error
	Update(ctx context.Context, shift *models.Shift) error
	FindByID(ctx context.Context, id string) (*models.Shift, error)
	LockByID(ctx context.Context, id string) (*models.Shift, error)
	List(ctx context.Context, filter models.ShiftFilter) ([]models.Shift, error)
}

type assignmentStore interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	LockByID(ctx context.Context, id string) (*models.Assignment, error)
	FindDetailByID(ctx context.Context, id string) (*models.AssignmentDetail, error)
	ListByShift(ctx context.Context, shiftID string) ([]models.Assignment, error)
	ListDetailsByShift(ctx context.Context, shiftID string) ([]models.AssignmentDetail, error)
	ListDetailsByNurseOnDate(ctx context.Context, nurseID string, day time.Time) ([]models.AssignmentDetail, error)
	ListDetailsByNurse(ctx context.Context, nurseID string, from, to time.Time) ([]models.AssignmentDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.AssignmentStatus) error
	Delete(ctx context.Context, id string) error
}

type leaveStore interface {
	Create(ctx context.Context, request *models.LeaveRequest) error
	FindByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	LockByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.LeaveRequest, error)
	List(ctx context.Context, filter models.LeaveRequestFilter) ([]models.LeaveRequest, error)
	UpdateResolution(ctx context.Context, request *models.LeaveRequest) error
	UpdateReason(ctx context.Context, id, reason string) error
	Delete(ctx context.Context, id string) error
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type payloadValidator interface {
	Struct(s interface{}) error
}

// Clock returns the current instant.
type Clock func() time.Time

// Unique constraints the schema declares; see migrations/0001_init.sql.
const (
	constraintAssignmentPair = "shift_assignments_shift_id_nurse_id_key"
	constraintActiveLeave    = "leave_requests_one_active_idx"
)

// storeError translates repository failures into typed errors. Typed errors pass through.
func storeError(err error, notFound string, op string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	case database.IsTransient(err):
		return appErrors.Wrap(err, appErrors.ErrTransient, "")
	case database.IsForeignKeyViolation(err):
		return appErrors.Wrap(err, appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal, "failed to "+op)
}

// auditTrail writes best-effort audit rows outside the business transaction.
type auditTrail struct {
	writer auditLogger
	logger *zap.Logger
	source string
}

func (a auditTrail) record(ctx context.Context, actor models.Actor, action, resource, resourceID string, before, after interface{}) {
	if a.writer == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		IPAddress:  "system",
		UserAgent:  a.source,
		OldValues:  marshalAudit(before),
		NewValues:  marshalAudit(after),
	}
	if actor.ID != "" {
		id := actor.ID
		entry.UserID = &id
	}
	if err := a.writer.CreateAuditLog(ctx, entry); err != nil {
		a.logger.Warn("failed to persist audit log", zap.String("action", action), zap.Error(err))
	}
}

func marshalAudit(v interface{}) []byte {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
