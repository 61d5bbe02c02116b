package dto

// ScheduleQuery selects a nurse's schedule window.
type ScheduleQuery struct {
	StartDate string `form:"start_date" json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `form:"end_date" json:"end_date" validate:"required,datetime=2006-01-02"`
	Status    string `form:"status" json:"status" validate:"omitempty,oneof=assigned completed on_leave"`
}

// ScheduleExportQuery extends ScheduleQuery with an output format.
type ScheduleExportQuery struct {
	ScheduleQuery
	Format string `form:"format" json:"format" validate:"omitempty,oneof=csv pdf xlsx"`
}
