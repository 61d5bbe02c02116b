package dto

// CreateShiftRequest captures a new shift.
type CreateShiftRequest struct {
	ShiftDate      string `json:"shift_date" validate:"required,datetime=2006-01-02"`
	StartTime      string `json:"start_time" validate:"required,timeofday"`
	EndTime        string `json:"end_time" validate:"required,timeofday"`
	ShiftType      string `json:"shift_type" validate:"required,oneof=morning afternoon night"`
	RequiredNurses int    `json:"required_nurses" validate:"required,min=1"`
	Department     string `json:"department" validate:"required,max=100"`
}

// UpdateShiftRequest replaces the mutable shift attributes. Omitted fields are kept.
type UpdateShiftRequest struct {
	ShiftDate      *string `json:"shift_date" validate:"omitempty,datetime=2006-01-02"`
	StartTime      *string `json:"start_time" validate:"omitempty,timeofday"`
	EndTime        *string `json:"end_time" validate:"omitempty,timeofday"`
	ShiftType      *string `json:"shift_type" validate:"omitempty,oneof=morning afternoon night"`
	RequiredNurses *int    `json:"required_nurses" validate:"omitempty,min=1"`
	Department     *string `json:"department" validate:"omitempty,max=100"`
}

// ShiftQuery mirrors the list filters.
type ShiftQuery struct {
	From       string `form:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To         string `form:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Department string `form:"department" json:"department"`
	ShiftType  string `form:"shift_type" json:"shift_type" validate:"omitempty,oneof=morning afternoon night"`
	Limit      int    `form:"limit" json:"limit" validate:"omitempty,min=1,max=200"`
	Offset     int    `form:"offset" json:"offset" validate:"omitempty,min=0"`
}
