package models

// ScheduleSummary counts the items of a schedule view.
type ScheduleSummary struct {
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Upcoming  int    `json:"upcoming"`
	OnLeave   int    `json:"on_leave"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ScheduleView is a nurse's assignments over a date range.
type ScheduleView struct {
	Items         []AssignmentDetail            `json:"items"`
	GroupedByDate map[string][]AssignmentDetail `json:"grouped_by_date"`
	Summary       ScheduleSummary               `json:"summary"`
}
