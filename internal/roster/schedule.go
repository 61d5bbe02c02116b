package roster

import (
	"sort"
	"time"

	"github.com/noah-isme/nurse-roster-api/internal/models"
)

// SortDetails orders assignments by shift date then start time.
func SortDetails(items []models.AssignmentDetail) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := models.CalendarDay(items[i].ShiftDate), models.CalendarDay(items[j].ShiftDate)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return items[i].StartTime < items[j].StartTime
	})
}

// BuildSchedule filters assignments to [start, end] by shift date, then by status when given,
// and summarises the result. Input order is preserved.
func BuildSchedule(assignments []models.AssignmentDetail, start, end time.Time, status models.AssignmentStatus) models.ScheduleView {
	from, to := models.CalendarDay(start), models.CalendarDay(end)
	view := models.ScheduleView{
		Items:         make([]models.AssignmentDetail, 0, len(assignments)),
		GroupedByDate: make(map[string][]models.AssignmentDetail),
		Summary: models.ScheduleSummary{
			StartDate: from.Format(models.DateLayout),
			EndDate:   to.Format(models.DateLayout),
		},
	}
	for _, a := range assignments {
		day := models.CalendarDay(a.ShiftDate)
		if day.Before(from) || day.After(to) {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		view.Items = append(view.Items, a)
		key := day.Format(models.DateLayout)
		view.GroupedByDate[key] = append(view.GroupedByDate[key], a)

		switch a.Status {
		case models.AssignmentCompleted:
			view.Summary.Completed++
		case models.AssignmentAssigned:
			view.Summary.Upcoming++
		case models.AssignmentOnLeave:
			view.Summary.OnLeave++
		}
	}
	view.Summary.Total = len(view.Items)
	return view
}
