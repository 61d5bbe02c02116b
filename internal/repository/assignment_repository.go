package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/nurse-roster-api/internal/models"
	"github.com/noah-isme/nurse-roster-api/pkg/database"
)

const assignmentColumns = `id, shift_id, nurse_id, status, assigned_by, notes, created_at, updated_at`

const assignmentDetailSelect = `SELECT a.id, a.shift_id, a.nurse_id, a.status, a.assigned_by, a.notes, a.created_at, a.updated_at,
	s.shift_date, s.start_time, s.end_time, s.shift_type, s.department, u.full_name AS nurse_name
	FROM shift_assignments a
	JOIN shifts s ON s.id = a.shift_id
	LEFT JOIN users u ON u.id = a.nurse_id`

// AssignmentRepository persists nurse to shift assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts an assignment. The (shift_id, nurse_id) unique constraint rejects duplicates.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.Status == "" {
		assignment.Status = models.AssignmentAssigned
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	const query = `INSERT INTO shift_assignments (` + assignmentColumns + `)
	VALUES (:id, :shift_id, :nurse_id, :status, :assigned_by, :notes, :created_at, :updated_at)`
	if _, err := database.Conn(ctx, r.db).NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// FindByID returns an assignment by identifier.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	return r.get(ctx, `SELECT `+assignmentColumns+` FROM shift_assignments WHERE id = $1`, id)
}

// LockByID loads an assignment with a row lock.
func (r *AssignmentRepository) LockByID(ctx context.Context, id string) (*models.Assignment, error) {
	return r.get(ctx, `SELECT `+assignmentColumns+` FROM shift_assignments WHERE id = $1 FOR UPDATE`, id)
}

func (r *AssignmentRepository) get(ctx context.Context, query, id string) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := database.Conn(ctx, r.db).GetContext(ctx, &assignment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return &assignment, nil
}

// FindDetailByID returns an assignment joined with its shift.
func (r *AssignmentRepository) FindDetailByID(ctx context.Context, id string) (*models.AssignmentDetail, error) {
	var detail models.AssignmentDetail
	if err := database.Conn(ctx, r.db).GetContext(ctx, &detail, assignmentDetailSelect+` WHERE a.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get assignment detail: %w", err)
	}
	detail.ShiftDate = models.CalendarDay(detail.ShiftDate)
	return &detail, nil
}

// ListByShift returns every assignment on the shift, including on_leave rows.
func (r *AssignmentRepository) ListByShift(ctx context.Context, shiftID string) ([]models.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM shift_assignments WHERE shift_id = $1 ORDER BY created_at`
	var assignments []models.Assignment
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &assignments, query, shiftID); err != nil {
		return nil, fmt.Errorf("list assignments by shift: %w", err)
	}
	return assignments, nil
}

// ListDetailsByNurseOnDate returns the nurse's assignments whose shift falls on day.
func (r *AssignmentRepository) ListDetailsByNurseOnDate(ctx context.Context, nurseID string, day time.Time) ([]models.AssignmentDetail, error) {
	return r.listDetails(ctx, assignmentDetailSelect+` WHERE a.nurse_id = $1 AND s.shift_date = $2 ORDER BY s.start_time`,
		nurseID, models.CalendarDay(day))
}

// ListDetailsByNurse returns the nurse's assignments with shift dates in [from, to].
func (r *AssignmentRepository) ListDetailsByNurse(ctx context.Context, nurseID string, from, to time.Time) ([]models.AssignmentDetail, error) {
	return r.listDetails(ctx, assignmentDetailSelect+` WHERE a.nurse_id = $1 AND s.shift_date BETWEEN $2 AND $3 ORDER BY s.shift_date, s.start_time`,
		nurseID, models.CalendarDay(from), models.CalendarDay(to))
}

// ListDetailsByShift returns the shift roster with nurse names.
func (r *AssignmentRepository) ListDetailsByShift(ctx context.Context, shiftID string) ([]models.AssignmentDetail, error) {
	return r.listDetails(ctx, assignmentDetailSelect+` WHERE a.shift_id = $1 ORDER BY a.created_at`, shiftID)
}

func (r *AssignmentRepository) listDetails(ctx context.Context, query string, args ...interface{}) ([]models.AssignmentDetail, error) {
	var details []models.AssignmentDetail
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("list assignment details: %w", err)
	}
	for i := range details {
		details[i].ShiftDate = models.CalendarDay(details[i].ShiftDate)
	}
	return details, nil
}

// UpdateStatus sets the assignment status.
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, id string, status models.AssignmentStatus) error {
	const query = `UPDATE shift_assignments SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update assignment status: %w", err)
	}
	return affectedOne(res, "assignment status")
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM shift_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return affectedOne(res, "assignment delete")
}

func affectedOne(res sql.Result, what string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", what, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
