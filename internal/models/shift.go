package models

import "time"

// ShiftType labels a shift. It is informational and never derived from the times.
type ShiftType string

const (
	ShiftMorning   ShiftType = "morning"
	ShiftAfternoon ShiftType = "afternoon"
	ShiftNight     ShiftType = "night"
)

// Shift is a scheduled block of work. EndTime before StartTime denotes an overnight shift.
type Shift struct {
	ID             string    `db:"id" json:"id"`
	ShiftDate      time.Time `db:"shift_date" json:"shift_date"`
	StartTime      TimeOfDay `db:"start_time" json:"start_time"`
	EndTime        TimeOfDay `db:"end_time" json:"end_time"`
	ShiftType      ShiftType `db:"shift_type" json:"shift_type"`
	RequiredNurses int       `db:"required_nurses" json:"required_nurses"`
	Department     string    `db:"department" json:"department"`
	CreatedBy      string    `db:"created_by" json:"created_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ShiftFilter constrains shift listings.
type ShiftFilter struct {
	From       *time.Time
	To         *time.Time
	Department string
	ShiftType  ShiftType
	Limit      int
	Offset     int
}

// ShiftCapacity is the read model returned for a single shift.
type ShiftCapacity struct {
	Shift
	DurationHours  float64 `json:"duration_hours"`
	AssignedCount  int     `json:"assigned_count"`
	RemainingSlots int     `json:"remaining_slots"`
	IsFull         bool    `json:"is_full"`
}
