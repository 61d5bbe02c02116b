package models

import "time"

// AssignmentStatus captures the lifecycle of an assignment.
type AssignmentStatus string

const (
	AssignmentAssigned  AssignmentStatus = "assigned"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentOnLeave   AssignmentStatus = "on_leave"
)

// Valid reports whether s is a known status.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentAssigned, AssignmentCompleted, AssignmentOnLeave:
		return true
	}
	return false
}

// Assignment binds one nurse to one shift.
type Assignment struct {
	ID         string           `db:"id" json:"id"`
	ShiftID    string           `db:"shift_id" json:"shift_id"`
	NurseID    string           `db:"nurse_id" json:"nurse_id"`
	Status     AssignmentStatus `db:"status" json:"status"`
	AssignedBy string           `db:"assigned_by" json:"assigned_by"`
	Notes      *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// Active reports whether the assignment counts toward capacity and overlap checks.
func (a Assignment) Active() bool {
	return a.Status != AssignmentOnLeave
}

// AssignmentDetail enriches an assignment with the shift it points at.
type AssignmentDetail struct {
	Assignment
	ShiftDate  time.Time `db:"shift_date" json:"shift_date"`
	StartTime  TimeOfDay `db:"start_time" json:"start_time"`
	EndTime    TimeOfDay `db:"end_time" json:"end_time"`
	ShiftType  ShiftType `db:"shift_type" json:"shift_type"`
	Department string    `db:"department" json:"department"`
	NurseName  *string   `db:"nurse_name" json:"nurse_name,omitempty"`
}
