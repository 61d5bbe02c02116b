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

const shiftColumns = `id, shift_date, start_time, end_time, shift_type, required_nurses, department, created_by, created_at, updated_at`

// ShiftRepository persists shifts.
type ShiftRepository struct {
	db *sqlx.DB
}

// NewShiftRepository constructs the repository.
func NewShiftRepository(db *sqlx.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// Create inserts a shift, assigning identifiers and timestamps when missing.
func (r *ShiftRepository) Create(ctx context.Context, shift *models.Shift) error {
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if shift.CreatedAt.IsZero() {
		shift.CreatedAt = now
	}
	shift.UpdatedAt = now
	shift.ShiftDate = models.CalendarDay(shift.ShiftDate)

	const query = `INSERT INTO shifts (` + shiftColumns + `)
	VALUES (:id, :shift_date, :start_time, :end_time, :shift_type, :required_nurses, :department, :created_by, :created_at, :updated_at)`
	if _, err := database.Conn(ctx, r.db).NamedExecContext(ctx, query, shift); err != nil {
		return fmt.Errorf("create shift: %w", err)
	}
	return nil
}

// Update persists the mutable shift attributes.
func (r *ShiftRepository) Update(ctx context.Context, shift *models.Shift) error {
	shift.UpdatedAt = time.Now().UTC()
	shift.ShiftDate = models.CalendarDay(shift.ShiftDate)
	const query = `UPDATE shifts SET shift_date = :shift_date, start_time = :start_time, end_time = :end_time,
	shift_type = :shift_type, required_nurses = :required_nurses, department = :department, updated_at = :updated_at
	WHERE id = :id`
	res, err := database.Conn(ctx, r.db).NamedExecContext(ctx, query, shift)
	if err != nil {
		return fmt.Errorf("update shift: %w", err)
	}
	return affectedOne(res, "shift update")
}

// FindByID returns a shift by identifier.
func (r *ShiftRepository) FindByID(ctx context.Context, id string) (*models.Shift, error) {
	return r.get(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, id)
}

// LockByID loads a shift and holds its row lock until the surrounding transaction ends.
func (r *ShiftRepository) LockByID(ctx context.Context, id string) (*models.Shift, error) {
	return r.get(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1 FOR UPDATE`, id)
}

func (r *ShiftRepository) get(ctx context.Context, query, id string) (*models.Shift, error) {
	var shift models.Shift
	if err := database.Conn(ctx, r.db).GetContext(ctx, &shift, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get shift: %w", err)
	}
	shift.ShiftDate = models.CalendarDay(shift.ShiftDate)
	return &shift, nil
}

// List returns shifts matching the filter ordered by date and start time.
func (r *ShiftRepository) List(ctx context.Context, filter models.ShiftFilter) ([]models.Shift, error) {
	var (
		builder    strings.Builder
		args       []interface{}
		conditions []string
	)
	builder.WriteString(`SELECT ` + shiftColumns + ` FROM shifts`)
	if filter.From != nil {
		args = append(args, models.CalendarDay(*filter.From))
		conditions = append(conditions, fmt.Sprintf("shift_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, models.CalendarDay(*filter.To))
		conditions = append(conditions, fmt.Sprintf("shift_date <= $%d", len(args)))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.ShiftType != "" {
		args = append(args, filter.ShiftType)
		conditions = append(conditions, fmt.Sprintf("shift_type = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY shift_date, start_time")
	builder.WriteString(pageClause(filter.Limit, filter.Offset))

	var shifts []models.Shift
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &shifts, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	for i := range shifts {
		shifts[i].ShiftDate = models.CalendarDay(shifts[i].ShiftDate)
	}
	return shifts, nil
}

func pageClause(limit, offset int) string {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}
