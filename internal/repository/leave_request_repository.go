package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/nurse-roster-api/internal/models"
	"github.com/noah-isme/nurse-roster-api/pkg/database"
)

const leaveRequestColumns = `id, assignment_id, requested_by, reason, status, approved_by, resolved_at, admin_notes, created_at, updated_at`

// LeaveRequestRepository persists leave requests.
type LeaveRequestRepository struct {
	db *sqlx.DB
}

// NewLeaveRequestRepository constructs the repository.
func NewLeaveRequestRepository(db *sqlx.DB) *LeaveRequestRepository {
	return &LeaveRequestRepository{db: db}
}

// Create inserts a pending leave request. A partial unique index keeps one active request per assignment.
func (r *LeaveRequestRepository) Create(ctx context.Context, request *models.LeaveRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.LeavePending
	}
	now := time.Now().UTC()
	request.CreatedAt = now
	request.UpdatedAt = now

	const query = `INSERT INTO leave_requests (` + leaveRequestColumns + `)
	VALUES (:id, :assignment_id, :requested_by, :reason, :status, :approved_by, :resolved_at, :admin_notes, :created_at, :updated_at)`
	if _, err := database.Conn(ctx, r.db).NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create leave request: %w", err)
	}
	return nil
}

// FindByID returns a leave request by identifier.
func (r *LeaveRequestRepository) FindByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	return r.get(ctx, `SELECT `+leaveRequestColumns+` FROM leave_requests WHERE id = $1`, id)
}

// LockByID loads a leave request with a row lock.
func (r *LeaveRequestRepository) LockByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	return r.get(ctx, `SELECT `+leaveRequestColumns+` FROM leave_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *LeaveRequestRepository) get(ctx context.Context, query, id string) (*models.LeaveRequest, error) {
	var request models.LeaveRequest
	if err := database.Conn(ctx, r.db).GetContext(ctx, &request, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get leave request: %w", err)
	}
	return &request, nil
}

// ListByAssignment returns the request history of an assignment, newest first.
func (r *LeaveRequestRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.LeaveRequest, error) {
	const query = `SELECT ` + leaveRequestColumns + ` FROM leave_requests WHERE assignment_id = $1 ORDER BY created_at DESC`
	var requests []models.LeaveRequest
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &requests, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list leave requests by assignment: %w", err)
	}
	return requests, nil
}

// List returns leave requests matching the filter, newest first.
func (r *LeaveRequestRepository) List(ctx context.Context, filter models.LeaveRequestFilter) ([]models.LeaveRequest, error) {
	var (
		builder    strings.Builder
		args       []interface{}
		conditions []string
	)
	builder.WriteString(`SELECT ` + leaveRequestColumns + ` FROM leave_requests`)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.AssignmentID != "" {
		args = append(args, filter.AssignmentID)
		conditions = append(conditions, fmt.Sprintf("assignment_id = $%d", len(args)))
	}
	if filter.RequestedBy != "" {
		args = append(args, filter.RequestedBy)
		conditions = append(conditions, fmt.Sprintf("requested_by = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")
	builder.WriteString(pageClause(filter.Limit, filter.Offset))

	var requests []models.LeaveRequest
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list leave requests: %w", err)
	}
	return requests, nil
}

// UpdateResolution stores the decision. It only touches pending rows and reports
// sql.ErrNoRows when the request was already resolved.
func (r *LeaveRequestRepository) UpdateResolution(ctx context.Context, request *models.LeaveRequest) error {
	request.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`UPDATE leave_requests SET status = :status, approved_by = :approved_by, resolved_at = :resolved_at,
	admin_notes = :admin_notes, updated_at = :updated_at WHERE id = :id AND status = '%s'`, models.LeavePending)
	res, err := database.Conn(ctx, r.db).NamedExecContext(ctx, query, request)
	if err != nil {
		return fmt.Errorf("update leave resolution: %w", err)
	}
	return affectedOne(res, "leave resolution")
}

// UpdateReason replaces the reason of a pending request.
func (r *LeaveRequestRepository) UpdateReason(ctx context.Context, id, reason string) error {
	query := fmt.Sprintf(`UPDATE leave_requests SET reason = $2, updated_at = $3 WHERE id = $1 AND status = '%s'`, models.LeavePending)
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, query, id, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update leave reason: %w", err)
	}
	return affectedOne(res, "leave reason")
}

// Delete removes a pending request.
func (r *LeaveRequestRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM leave_requests WHERE id = $1 AND status = '%s'`, models.LeavePending)
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete leave request: %w", err)
	}
	return affectedOne(res, "leave delete")
}
