package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nurse-roster-api/internal/dto"
	"github.com/noah-isme/nurse-roster-api/internal/models"
	appErrors "github.com/noah-isme/nurse-roster-api/pkg/errors"
)

var nurseOne = models.Actor{ID: "n-1", Role: models.RoleNurse}

type leaveFixture struct {
	world    *memWorld
	notifier *recordingNotifier
	metrics  *MetricsService
	svc      *LeaveRequestService
}

// newLeaveFixture pins "today" to 2024-01-10 in UTC+7.
func newLeaveFixture(t *testing.T) *leaveFixture {
	t.Helper()
	loc := time.FixedZone("WIB", 7*60*60)
	w := newMemWorld()
	w.addNurse("n-1", true)
	w.addShift("s-past", "2024-01-09", "07:00", "15:00", 2)
	w.addShift("s-today", "2024-01-10", "07:00", "15:00", 2)
	w.addShift("s-next", "2024-01-11", "07:00", "15:00", 2)
	w.addAssignment("a-past", "s-past", "n-1", models.AssignmentCompleted)
	w.addAssignment("a-today", "s-today", "n-1", models.AssignmentAssigned)
	w.addAssignment("a-next", "s-next", "n-1", models.AssignmentAssigned)

	notifier := &recordingNotifier{}
	metrics := NewMetricsService()
	// 2024-01-09 20:00 UTC is already 2024-01-10 03:00 at the facility
	clock := func() time.Time { return time.Date(2024, 1, 9, 20, 0, 0, 0, time.UTC) }
	svc := NewLeaveRequestService(&fakeTx{world: w}, memShifts{w}, memAssignments{w}, memLeaves{w}, nil, nil,
		WithLeaveClock(clock), WithLeaveLocation(loc), WithLeaveNotifier(notifier),
		WithLeaveMetrics(metrics), WithLeaveAudit(memUsers{w}))
	return &leaveFixture{world: w, notifier: notifier, metrics: metrics, svc: svc}
}

func (f *leaveFixture) pending(t *testing.T) *models.LeaveRequest {
	t.Helper()
	req, err := f.svc.Submit(context.Background(), nurseOne, dto.SubmitLeaveRequest{AssignmentID: "a-next", Reason: "  family event "})
	require.NoError(t, err)
	return req
}

func TestLeaveRequestServiceSubmit(t *testing.T) {
	f := newLeaveFixture(t)

	req := f.pending(t)
	assert.Equal(t, models.LeavePending, req.Status)
	assert.Equal(t, "family event", req.Reason)
	assert.Equal(t, "n-1", req.RequestedBy)
	assert.Len(t, f.world.leaves, 1)
}

func TestLeaveRequestServiceSubmitGuards(t *testing.T) {
	cases := []struct {
		name       string
		actor      models.Actor
		assignment string
		want       *appErrors.Error
	}{
		{"shift already started today in facility zone", nurseOne, "a-today", appErrors.ErrShiftNotFuture},
		{"past shift", nurseOne, "a-past", appErrors.ErrShiftNotFuture},
		{"someone else's assignment", models.Actor{ID: "n-2", Role: models.RoleNurse}, "a-next", appErrors.ErrNotOwner},
		{"unknown assignment", nurseOne, "a-missing", appErrors.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newLeaveFixture(t)
			_, err := f.svc.Submit(context.Background(), tc.actor, dto.SubmitLeaveRequest{AssignmentID: tc.assignment, Reason: "x"})
			assert.True(t, appErrors.Is(err, tc.want), "got %v", err)
			assert.Empty(t, f.world.leaves)
		})
	}
}

func TestLeaveRequestServiceRejectsSecondActiveRequest(t *testing.T) {
	f := newLeaveFixture(t)
	f.pending(t)

	_, err := f.svc.Submit(context.Background(), nurseOne, dto.SubmitLeaveRequest{AssignmentID: "a-next", Reason: "again"})
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateActiveRequest))

	f2 := newLeaveFixture(t)
	f2.world.failures["leave.create"] = &pq.Error{Code: "23505", Constraint: "leave_requests_one_active_idx"}
	_, err = f2.svc.Submit(context.Background(), nurseOne, dto.SubmitLeaveRequest{AssignmentID: "a-next", Reason: "race"})
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateActiveRequest))
}

func TestLeaveRequestServiceApproveMovesAssignmentOnLeave(t *testing.T) {
	f := newLeaveFixture(t)
	req := f.pending(t)

	notes := "covered by float pool"
	resolved, err := f.svc.Resolve(context.Background(), headNurse, req.ID, dto.ResolveLeaveRequest{Status: "approved", AdminNotes: &notes})
	require.NoError(t, err)

	assert.Equal(t, models.LeaveApproved, resolved.Status)
	require.NotNil(t, resolved.ApprovedBy)
	assert.Equal(t, "head-1", *resolved.ApprovedBy)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, models.AssignmentOnLeave, f.world.assignments["a-next"].Status)
	assert.Equal(t, models.LeaveApproved, f.world.leaves[req.ID].Status)

	require.Len(t, f.notifier.requests, 1)
	assert.Equal(t, models.AssignmentOnLeave, f.notifier.assignments[0].Status)
	assert.Equal(t, 1.0, counterValue(t, f.metrics, "roster_leave_decisions_total", "approved"))
}

func TestLeaveRequestServiceRejectLeavesAssignmentUntouched(t *testing.T) {
	f := newLeaveFixture(t)
	req := f.pending(t)

	resolved, err := f.svc.Resolve(context.Background(), headNurse, req.ID, dto.ResolveLeaveRequest{Status: "rejected"})
	require.NoError(t, err)

	assert.Equal(t, models.LeaveRejected, resolved.Status)
	assert.Equal(t, models.AssignmentAssigned, f.world.assignments["a-next"].Status)

	// a rejected request no longer blocks a fresh one
	_, err = f.svc.Submit(context.Background(), nurseOne, dto.SubmitLeaveRequest{AssignmentID: "a-next", Reason: "second try"})
	assert.NoError(t, err)
}

func TestLeaveRequestServiceResolveIsIdempotent(t *testing.T) {
	f := newLeaveFixture(t)
	req := f.pending(t)

	_, err := f.svc.Resolve(context.Background(), headNurse, req.ID, dto.ResolveLeaveRequest{Status: "approved"})
	require.NoError(t, err)
	snapshot := f.world.leaves[req.ID]

	for _, decision := range []string{"approved", "rejected"} {
		_, err := f.svc.Resolve(context.Background(), headNurse, req.ID, dto.ResolveLeaveRequest{Status: decision})
		assert.True(t, appErrors.Is(err, appErrors.ErrAlreadyProcessed))
	}
	assert.Equal(t, snapshot, f.world.leaves[req.ID])
	assert.Len(t, f.notifier.requests, 1)
}

func TestLeaveRequestServiceApproveRefusesCompletedAssignment(t *testing.T) {
	f := newLeaveFixture(t)
	req := f.pending(t)

	assignments := NewAssignmentService(&fakeTx{world: f.world}, memShifts{f.world}, memAssignments{f.world}, memLeaves{f.world}, memUsers{f.world}, nil, nil)
	_, err := assignments.UpdateStatus(context.Background(), headNurse, "a-next", dto.UpdateAssignmentStatusRequest{Status: "completed"})
	require.NoError(t, err)

	_, err = f.svc.Resolve(context.Background(), headNurse, req.ID, dto.ResolveLeaveRequest{Status: "approved"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
	assert.Equal(t, models.AssignmentCompleted, f.world.assignments["a-next"].Status)
	assert.Equal(t, models.LeavePending, f.world.leaves[req.ID].Status)
	assert.Empty(t, f.notifier.requests)
}

func TestLeaveRequestServiceResolveRollsBackOnFailure(t *testing.T) {
	f := newLeaveFixture(t)
	req := f.pending(t)
	f.world.failures["assignment.update_status"] = errors.New("disk full")

	_, err := f.svc.Resolve(context.Background(), headNurse, req.ID, dto.ResolveLeaveRequest{Status: "approved"})
	require.Error(t, err)

	assert.Equal(t, models.LeavePending, f.world.leaves[req.ID].Status)
	assert.Equal(t, models.AssignmentAssigned, f.world.assignments["a-next"].Status)
	assert.Empty(t, f.notifier.requests)
}

func TestLeaveRequestServiceCancelAndEdit(t *testing.T) {
	f := newLeaveFixture(t)
	req := f.pending(t)
	other := models.Actor{ID: "n-2", Role: models.RoleNurse}

	_, err := f.svc.Edit(context.Background(), other, req.ID, dto.EditLeaveRequest{Reason: "hijack"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotOwner))

	edited, err := f.svc.Edit(context.Background(), nurseOne, req.ID, dto.EditLeaveRequest{Reason: "wedding"})
	require.NoError(t, err)
	assert.Equal(t, "wedding", edited.Reason)
	assert.Equal(t, "wedding", f.world.leaves[req.ID].Reason)

	assert.True(t, appErrors.Is(f.svc.Cancel(context.Background(), other, req.ID), appErrors.ErrNotOwner))
	require.NoError(t, f.svc.Cancel(context.Background(), headNurse, req.ID))
	assert.Empty(t, f.world.leaves)

	assert.True(t, appErrors.Is(f.svc.Cancel(context.Background(), nurseOne, req.ID), appErrors.ErrNotFound))
}

func TestLeaveRequestServiceCancelResolvedRequest(t *testing.T) {
	f := newLeaveFixture(t)
	req := f.pending(t)
	_, err := f.svc.Resolve(context.Background(), headNurse, req.ID, dto.ResolveLeaveRequest{Status: "rejected"})
	require.NoError(t, err)

	assert.True(t, appErrors.Is(f.svc.Cancel(context.Background(), nurseOne, req.ID), appErrors.ErrAlreadyProcessed))
}

func TestLeaveRequestServiceVisibility(t *testing.T) {
	f := newLeaveFixture(t)
	req := f.pending(t)
	f.world.leaves["l-other"] = models.LeaveRequest{ID: "l-other", AssignmentID: "a-x", RequestedBy: "n-2", Status: models.LeavePending}

	_, err := f.svc.Get(context.Background(), models.Actor{ID: "n-2", Role: models.RoleNurse}, req.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	mine, err := f.svc.List(context.Background(), nurseOne, dto.LeaveRequestQuery{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, req.ID, mine[0].ID)

	all, err := f.svc.List(context.Background(), headNurse, dto.LeaveRequestQuery{Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
