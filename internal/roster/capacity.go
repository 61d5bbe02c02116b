package roster

import "github.com/noah-isme/nurse-roster-api/internal/models"

// ActiveCount counts assignments that occupy a slot.
func ActiveCount(assignments []models.Assignment) int {
	count := 0
	for _, a := range assignments {
		if a.Active() {
			count++
		}
	}
	return count
}

// RemainingSlots returns the open slots left on shift given a snapshot of its assignments.
func RemainingSlots(shift models.Shift, assignments []models.Assignment) int {
	remaining := shift.RequiredNurses - ActiveCount(assignments)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsFull reports whether the shift has no open slot.
func IsFull(shift models.Shift, assignments []models.Assignment) bool {
	return RemainingSlots(shift, assignments) == 0
}

// Capacity builds the capacity read model for a shift.
func Capacity(shift models.Shift, assignments []models.Assignment) models.ShiftCapacity {
	remaining := RemainingSlots(shift, assignments)
	return models.ShiftCapacity{
		Shift:          shift,
		DurationHours:  Duration(shift.StartTime, shift.EndTime),
		AssignedCount:  ActiveCount(assignments),
		RemainingSlots: remaining,
		IsFull:         remaining == 0,
	}
}
