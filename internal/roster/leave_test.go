package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nurse-roster-api/internal/models"
	appErrors "github.com/noah-isme/nurse-roster-api/pkg/errors"
)

func leaveFixture() (models.Assignment, models.Shift) {
	shift := shiftAt("s1", jan15, "08:00", "16:00", 1)
	return models.Assignment{ID: "a1", ShiftID: "s1", NurseID: "n1", Status: models.AssignmentAssigned}, shift
}

func TestSubmitLeave(t *testing.T) {
	assignment, shift := leaveFixture()
	today := jan15.AddDate(0, 0, -1)

	req, err := SubmitLeave(assignment, shift, "n1", "  family event ", today, nil)
	require.NoError(t, err)
	assert.Equal(t, models.LeavePending, req.Status)
	assert.Equal(t, "a1", req.AssignmentID)
	assert.Equal(t, "n1", req.RequestedBy)
	assert.Equal(t, "family event", req.Reason)
}

func TestSubmitLeaveGuards(t *testing.T) {
	assignment, shift := leaveFixture()
	yesterday := jan15.AddDate(0, 0, -1)

	_, err := SubmitLeave(assignment, shift, "n2", "x", yesterday, nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotOwner))

	// same day is not in the future, regardless of the clock time
	_, err = SubmitLeave(assignment, shift, "n1", "x", jan15.Add(time.Minute), nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrShiftNotFuture))

	_, err = SubmitLeave(assignment, shift, "n1", "x", jan15.AddDate(0, 0, 3), nil)
	assert.True(t, appErrors.Is(err, appErrors.ErrShiftNotFuture))

	pending := models.LeaveRequest{ID: "l1", AssignmentID: "a1", Status: models.LeavePending}
	_, err = SubmitLeave(assignment, shift, "n1", "x", yesterday, []models.LeaveRequest{pending})
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateActiveRequest))

	approved := models.LeaveRequest{ID: "l1", AssignmentID: "a1", Status: models.LeaveApproved}
	_, err = SubmitLeave(assignment, shift, "n1", "x", yesterday, []models.LeaveRequest{approved})
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateActiveRequest))

	rejected := []models.LeaveRequest{
		{ID: "l1", AssignmentID: "a1", Status: models.LeaveRejected},
		{ID: "l2", AssignmentID: "a1", Status: models.LeaveRejected},
	}
	_, err = SubmitLeave(assignment, shift, "n1", "x", yesterday, rejected)
	assert.NoError(t, err)
}

func TestResolveLeaveApproveMovesAssignmentOnLeave(t *testing.T) {
	assignment, _ := leaveFixture()
	notes := "covered by float"
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	request := models.LeaveRequest{ID: "l1", AssignmentID: "a1", RequestedBy: "n1", Status: models.LeavePending}

	res, err := ResolveLeave(request, assignment, "head", models.LeaveApproved, &notes, now)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveApproved, res.Request.Status)
	require.NotNil(t, res.Request.ApprovedBy)
	assert.Equal(t, "head", *res.Request.ApprovedBy)
	require.NotNil(t, res.Request.ResolvedAt)
	assert.True(t, now.Equal(*res.Request.ResolvedAt))
	assert.Equal(t, &notes, res.Request.AdminNotes)
	require.NotNil(t, res.Assignment)
	assert.Equal(t, models.AssignmentOnLeave, res.Assignment.Status)
	assert.Equal(t, models.LeavePending, request.Status, "input untouched")
}

func TestResolveLeaveRejectLeavesAssignment(t *testing.T) {
	assignment, _ := leaveFixture()
	request := models.LeaveRequest{ID: "l1", AssignmentID: "a1", Status: models.LeavePending}

	res, err := ResolveLeave(request, assignment, "head", models.LeaveRejected, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.LeaveRejected, res.Request.Status)
	assert.Nil(t, res.Assignment)
	assert.Equal(t, models.AssignmentAssigned, assignment.Status)
}

func TestResolveLeaveApprovalNeedsAssignedAssignment(t *testing.T) {
	assignment, _ := leaveFixture()
	request := models.LeaveRequest{ID: "l1", AssignmentID: "a1", RequestedBy: "n1", Status: models.LeavePending}

	for _, status := range []models.AssignmentStatus{models.AssignmentCompleted, models.AssignmentOnLeave} {
		assignment.Status = status
		res, err := ResolveLeave(request, assignment, "head", models.LeaveApproved, nil, time.Now())
		assert.Nil(t, res)
		assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition), string(status))
	}

	assignment.Status = models.AssignmentCompleted
	res, err := ResolveLeave(request, assignment, "head", models.LeaveRejected, nil, time.Now())
	require.NoError(t, err)
	assert.Nil(t, res.Assignment)
}

func TestResolveLeaveIsNotRepeatable(t *testing.T) {
	assignment, _ := leaveFixture()
	for _, status := range []models.LeaveStatus{models.LeaveApproved, models.LeaveRejected} {
		request := models.LeaveRequest{ID: "l1", Status: status}
		for _, decision := range []models.LeaveStatus{models.LeaveApproved, models.LeaveRejected, "bogus"} {
			res, err := ResolveLeave(request, assignment, "head", decision, nil, time.Now())
			assert.Nil(t, res)
			assert.True(t, appErrors.Is(err, appErrors.ErrAlreadyProcessed), "%s -> %s", status, decision)
		}
	}
}

func TestResolveLeaveRejectsUnknownDecision(t *testing.T) {
	assignment, _ := leaveFixture()
	_, err := ResolveLeave(models.LeaveRequest{Status: models.LeavePending}, assignment, "head", models.LeavePending, nil, time.Now())
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestCancelLeave(t *testing.T) {
	request := models.LeaveRequest{ID: "l1", RequestedBy: "n1", Status: models.LeavePending}

	assert.NoError(t, CancelLeave(request, models.Actor{ID: "n1", Role: models.RoleNurse}))
	assert.NoError(t, CancelLeave(request, models.Actor{ID: "head", Role: models.RoleHeadNurse}))
	assert.True(t, appErrors.Is(CancelLeave(request, models.Actor{ID: "n2", Role: models.RoleNurse}), appErrors.ErrNotOwner))

	request.Status = models.LeaveRejected
	assert.True(t, appErrors.Is(CancelLeave(request, models.Actor{ID: "n1", Role: models.RoleNurse}), appErrors.ErrAlreadyProcessed))
	assert.True(t, appErrors.Is(CancelLeave(request, models.Actor{ID: "head", Role: models.RoleHeadNurse}), appErrors.ErrAlreadyProcessed))
}

func TestEditLeave(t *testing.T) {
	request := models.LeaveRequest{ID: "l1", RequestedBy: "n1", Reason: "old", Status: models.LeavePending}

	edited, err := EditLeave(request, models.Actor{ID: "n1", Role: models.RoleNurse}, "new reason")
	require.NoError(t, err)
	assert.Equal(t, "new reason", edited.Reason)
	assert.Equal(t, models.LeavePending, edited.Status)

	_, err = EditLeave(request, models.Actor{ID: "head", Role: models.RoleHeadNurse}, "new")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotOwner))

	_, err = EditLeave(request, models.Actor{ID: "n1", Role: models.RoleNurse}, "   ")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	request.Status = models.LeaveApproved
	_, err = EditLeave(request, models.Actor{ID: "n1", Role: models.RoleNurse}, "new")
	assert.True(t, appErrors.Is(err, appErrors.ErrAlreadyProcessed))
}
