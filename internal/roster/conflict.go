package roster

import (
	"github.com/noah-isme/nurse-roster-api/internal/models"
	appErrors "github.com/noah-isme/nurse-roster-api/pkg/errors"
)

// Proposal gathers a consistent snapshot for one assignment attempt.
type Proposal struct {
	Nurse    *models.User
	Shift    models.Shift
	ForShift []models.Assignment
	ForNurse []models.AssignmentDetail
	ActorID  string
	Notes    *string
}

// ProposeAssignment validates the pairing and returns the assignment to persist.
// Checks run in a fixed order: inactive nurse, duplicate, capacity, overlap.
func ProposeAssignment(p Proposal) (*models.Assignment, error) {
	if !p.Nurse.Assignable() {
		return nil, appErrors.Clone(appErrors.ErrInactiveNurse, "")
	}
	for _, a := range p.ForShift {
		if a.NurseID == p.Nurse.ID {
			return nil, appErrors.Clone(appErrors.ErrDuplicateAssignment, "")
		}
	}
	if IsFull(p.Shift, p.ForShift) {
		return nil, appErrors.Clone(appErrors.ErrShiftFull, "")
	}
	if clash := FindOverlap(p.Shift, p.ForNurse); clash != nil {
		return nil, appErrors.Clone(appErrors.ErrScheduleConflict,
			"nurse has an overlapping shift on "+models.DateKey(clash.ShiftDate)+" ("+clash.StartTime.String()+"-"+clash.EndTime.String()+")")
	}
	return &models.Assignment{
		ShiftID:    p.Shift.ID,
		NurseID:    p.Nurse.ID,
		Status:     models.AssignmentAssigned,
		AssignedBy: p.ActorID,
		Notes:      p.Notes,
	}, nil
}

// FindOverlap returns the first active assignment on the shift's date whose range overlaps it.
// A record for the shift itself is ignored.
func FindOverlap(shift models.Shift, others []models.AssignmentDetail) *models.AssignmentDetail {
	day := models.DateKey(shift.ShiftDate)
	for i := range others {
		other := others[i]
		if other.ShiftID == shift.ID || !other.Active() {
			continue
		}
		if models.DateKey(other.ShiftDate) != day {
			continue
		}
		if Overlaps(shift.StartTime, shift.EndTime, other.StartTime, other.EndTime) {
			return &others[i]
		}
	}
	return nil
}

// TransitionAssignment applies a manual status change. Only assigned to completed is allowed;
// on_leave is reachable through leave approval alone.
func TransitionAssignment(current models.Assignment, target models.AssignmentStatus) (*models.Assignment, error) {
	switch target {
	case models.AssignmentCompleted:
	case models.AssignmentOnLeave:
		return nil, appErrors.Clone(appErrors.ErrValidation, "on_leave is set by approving a leave request")
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be completed")
	}
	if current.Status != models.AssignmentAssigned {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			"cannot move assignment from "+string(current.Status)+" to "+string(target))
	}
	next := current
	next.Status = target
	return &next, nil
}
