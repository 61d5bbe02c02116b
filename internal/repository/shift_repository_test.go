package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nurse-roster-api/internal/models"
)

var shiftCols = []string{"id", "shift_date", "start_time", "end_time", "shift_type", "required_nurses", "department", "created_by", "created_at", "updated_at"}

func TestShiftRepositoryCreate(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewShiftRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shifts")).WillReturnResult(sqlmock.NewResult(1, 1))

	shift := &models.Shift{
		ShiftDate:      time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC),
		StartTime:      models.NewTimeOfDay(8, 0),
		EndTime:        models.NewTimeOfDay(16, 0),
		ShiftType:      models.ShiftMorning,
		RequiredNurses: 2,
		Department:     "ICU",
		CreatedBy:      "head-1",
	}
	require.NoError(t, repo.Create(context.Background(), shift))
	assert.NotEmpty(t, shift.ID)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), shift.ShiftDate)
	assert.False(t, shift.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryLockByID(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewShiftRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(shiftCols).
		AddRow("shift-1", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "22:00:00", "06:00:00", "night", 3, "ER", "head-1", now, now)
	mock.ExpectQuery(`SELECT .* FROM shifts WHERE id = \$1 FOR UPDATE`).WithArgs("shift-1").WillReturnRows(rows)

	shift, err := repo.LockByID(context.Background(), "shift-1")
	require.NoError(t, err)
	assert.Equal(t, "22:00", shift.StartTime.String())
	assert.Equal(t, "06:00", shift.EndTime.String())
	assert.Equal(t, models.ShiftNight, shift.ShiftType)
	assert.Equal(t, 3, shift.RequiredNurses)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryFindByIDNotFound(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewShiftRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, shift_date")).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestShiftRepositoryListFilters(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewShiftRepository(db)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(shiftCols).
		AddRow("shift-1", from, "08:00:00", "16:00:00", "morning", 2, "ICU", "head-1", from, from)
	mock.ExpectQuery(`SELECT .* FROM shifts WHERE shift_date >= \$1 AND shift_date <= \$2 AND department = \$3 ORDER BY shift_date, start_time LIMIT 50 OFFSET 0`).
		WithArgs(from, to, "ICU").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.ShiftFilter{From: &from, To: &to, Department: "ICU"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "shift-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryUpdateMissingRow(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewShiftRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE shifts SET")).WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Update(context.Background(), &models.Shift{ID: "shift-1", RequiredNurses: 1})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
