package roster

import (
	"strings"
	"time"

	"github.com/noah-isme/nurse-roster-api/internal/models"
	appErrors "github.com/noah-isme/nurse-roster-api/pkg/errors"
)

// Resolution is the outcome of deciding a leave request.
type Resolution struct {
	Request models.LeaveRequest
	// Assignment is non-nil when the decision moves the linked assignment to on_leave.
	Assignment *models.Assignment
}

// SubmitLeave validates a new leave request. today is the requester's calendar day.
func SubmitLeave(assignment models.Assignment, shift models.Shift, requesterID, reason string, today time.Time, existing []models.LeaveRequest) (*models.LeaveRequest, error) {
	if assignment.NurseID != requesterID {
		return nil, appErrors.Clone(appErrors.ErrNotOwner, "leave can only be requested for your own assignment")
	}
	if !models.CalendarDay(shift.ShiftDate).After(models.CalendarDay(today)) {
		return nil, appErrors.Clone(appErrors.ErrShiftNotFuture, "")
	}
	for _, r := range existing {
		if r.AssignmentID == assignment.ID && r.Active() {
			return nil, appErrors.Clone(appErrors.ErrDuplicateActiveRequest, "")
		}
	}
	return &models.LeaveRequest{
		AssignmentID: assignment.ID,
		RequestedBy:  requesterID,
		Reason:       strings.TrimSpace(reason),
		Status:       models.LeavePending,
	}, nil
}

// ResolveLeave decides a pending request. Approval also returns the assignment moved to on_leave;
// both must be persisted together.
func ResolveLeave(request models.LeaveRequest, assignment models.Assignment, approverID string, decision models.LeaveStatus, notes *string, now time.Time) (*Resolution, error) {
	if request.Status != models.LeavePending {
		return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, "")
	}
	if decision != models.LeaveApproved && decision != models.LeaveRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be approved or rejected")
	}

	resolved := request
	resolved.Status = decision
	resolved.ApprovedBy = &approverID
	resolvedAt := now.UTC()
	resolved.ResolvedAt = &resolvedAt
	resolved.AdminNotes = notes

	out := &Resolution{Request: resolved}
	if decision == models.LeaveApproved {
		if assignment.Status != models.AssignmentAssigned {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
				"cannot move assignment from "+string(assignment.Status)+" to "+string(models.AssignmentOnLeave))
		}
		next := assignment
		next.Status = models.AssignmentOnLeave
		out.Assignment = &next
	}
	return out, nil
}

// CancelLeave checks that actor may withdraw the request. Head nurses bypass ownership.
func CancelLeave(request models.LeaveRequest, actor models.Actor) error {
	return guardPending(request, actor, true)
}

// EditLeave returns the request with its reason replaced. Only the requester may edit.
func EditLeave(request models.LeaveRequest, actor models.Actor, reason string) (*models.LeaveRequest, error) {
	if err := guardPending(request, actor, false); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reason is required")
	}
	edited := request
	edited.Reason = reason
	return &edited, nil
}

func guardPending(request models.LeaveRequest, actor models.Actor, privilegedBypass bool) error {
	if request.RequestedBy != actor.ID && !(privilegedBypass && actor.IsHeadNurse()) {
		return appErrors.Clone(appErrors.ErrNotOwner, "")
	}
	if request.Status != models.LeavePending {
		return appErrors.Clone(appErrors.ErrAlreadyProcessed, "only pending requests can be changed")
	}
	return nil
}
