package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/nurse-roster-api/internal/models"
)

// memWorld is an in-memory stand-in for the roster tables. fakeTx snapshots it so failed units
// of work roll back like a database transaction would.
type memWorld struct {
	mu          sync.Mutex
	seq         int
	users       map[string]models.User
	shifts      map[string]models.Shift
	assignments map[string]models.Assignment
	leaves      map[string]models.LeaveRequest
	audits      []models.AuditLog

	// failures injected per operation name
	failures map[string]error
}

func newMemWorld() *memWorld {
	return &memWorld{
		users:       map[string]models.User{},
		shifts:      map[string]models.Shift{},
		assignments: map[string]models.Assignment{},
		leaves:      map[string]models.LeaveRequest{},
		failures:    map[string]error{},
	}
}

func (w *memWorld) nextID(prefix string) string {
	w.seq++
	return fmt.Sprintf("%s-%d", prefix, w.seq)
}

func (w *memWorld) fail(op string) error {
	return w.failures[op]
}

func (w *memWorld) addNurse(id string, active bool) {
	w.users[id] = models.User{ID: id, FullName: "Nurse " + id, Role: models.RoleNurse, Active: active}
}

func (w *memWorld) addShift(id, day, start, end string, required int) models.Shift {
	date, _ := models.ParseDate(day)
	shift := models.Shift{
		ID:             id,
		ShiftDate:      date,
		StartTime:      models.MustParseTimeOfDay(start),
		EndTime:        models.MustParseTimeOfDay(end),
		ShiftType:      models.ShiftMorning,
		RequiredNurses: required,
		Department:     "ICU",
	}
	w.shifts[id] = shift
	return shift
}

func (w *memWorld) addAssignment(id, shiftID, nurseID string, status models.AssignmentStatus) {
	w.assignments[id] = models.Assignment{ID: id, ShiftID: shiftID, NurseID: nurseID, Status: status}
}

func (w *memWorld) detail(a models.Assignment) models.AssignmentDetail {
	shift := w.shifts[a.ShiftID]
	d := models.AssignmentDetail{
		Assignment: a,
		ShiftDate:  shift.ShiftDate,
		StartTime:  shift.StartTime,
		EndTime:    shift.EndTime,
		ShiftType:  shift.ShiftType,
		Department: shift.Department,
	}
	if u, ok := w.users[a.NurseID]; ok {
		name := u.FullName
		d.NurseName = &name
	}
	return d
}

type worldSnapshot struct {
	shifts      map[string]models.Shift
	assignments map[string]models.Assignment
	leaves      map[string]models.LeaveRequest
}

func (w *memWorld) snapshot() worldSnapshot {
	s := worldSnapshot{
		shifts:      make(map[string]models.Shift, len(w.shifts)),
		assignments: make(map[string]models.Assignment, len(w.assignments)),
		leaves:      make(map[string]models.LeaveRequest, len(w.leaves)),
	}
	for k, v := range w.shifts {
		s.shifts[k] = v
	}
	for k, v := range w.assignments {
		s.assignments[k] = v
	}
	for k, v := range w.leaves {
		s.leaves[k] = v
	}
	return s
}

func (w *memWorld) restore(s worldSnapshot) {
	w.shifts, w.assignments, w.leaves = s.shifts, s.assignments, s.leaves
}

type fakeTx struct {
	world *memWorld
	calls int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	f.world.mu.Lock()
	snap := f.world.snapshot()
	f.world.mu.Unlock()
	if err := fn(ctx); err != nil {
		f.world.mu.Lock()
		f.world.restore(snap)
		f.world.mu.Unlock()
		return err
	}
	return nil
}

type memShifts struct{ w *memWorld }

func (m memShifts) Create(_ context.Context, shift *models.Shift) error {
	if err := m.w.fail("shift.create"); err != nil {
		return err
	}
	shift.ID = m.w.nextID("shift")
	m.w.shifts[shift.ID] = *shift
	return nil
}

func (m memShifts) Update(_ context.Context, shift *models.Shift) error {
	if _, ok := m.w.shifts[shift.ID]; !ok {
		return sql.ErrNoRows
	}
	m.w.shifts[shift.ID] = *shift
	return nil
}

func (m memShifts) FindByID(_ context.Context, id string) (*models.Shift, error) {
	shift, ok := m.w.shifts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &shift, nil
}

func (m memShifts) LockByID(ctx context.Context, id string) (*models.Shift, error) {
	if err := m.w.fail("shift.lock"); err != nil {
		return nil, err
	}
	return m.FindByID(ctx, id)
}

func (m memShifts) List(_ context.Context, filter models.ShiftFilter) ([]models.Shift, error) {
	out := []models.Shift{}
	for _, s := range m.w.shifts {
		if filter.Department != "" && s.Department != filter.Department {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memAssignments struct{ w *memWorld }

func (m memAssignments) Create(_ context.Context, a *models.Assignment) error {
	if err := m.w.fail("assignment.create"); err != nil {
		return err
	}
	a.ID = m.w.nextID("assignment")
	a.CreatedAt = time.Now().UTC()
	m.w.assignments[a.ID] = *a
	return nil
}

func (m memAssignments) FindByID(_ context.Context, id string) (*models.Assignment, error) {
	a, ok := m.w.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (m memAssignments) LockByID(ctx context.Context, id string) (*models.Assignment, error) {
	return m.FindByID(ctx, id)
}

func (m memAssignments) FindDetailByID(_ context.Context, id string) (*models.AssignmentDetail, error) {
	a, ok := m.w.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	d := m.w.detail(a)
	return &d, nil
}

func (m memAssignments) ListByShift(_ context.Context, shiftID string) ([]models.Assignment, error) {
	out := []models.Assignment{}
	for _, a := range m.w.assignments {
		if a.ShiftID == shiftID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memAssignments) ListDetailsByShift(ctx context.Context, shiftID string) ([]models.AssignmentDetail, error) {
	list, _ := m.ListByShift(ctx, shiftID)
	out := make([]models.AssignmentDetail, 0, len(list))
	for _, a := range list {
		out = append(out, m.w.detail(a))
	}
	return out, nil
}

func (m memAssignments) ListDetailsByNurseOnDate(ctx context.Context, nurseID string, day time.Time) ([]models.AssignmentDetail, error) {
	return m.ListDetailsByNurse(ctx, nurseID, day, day)
}

func (m memAssignments) ListDetailsByNurse(_ context.Context, nurseID string, from, to time.Time) ([]models.AssignmentDetail, error) {
	if err := m.w.fail("assignment.list_nurse"); err != nil {
		return nil, err
	}
	out := []models.AssignmentDetail{}
	for _, a := range m.w.assignments {
		if a.NurseID != nurseID {
			continue
		}
		d := m.w.detail(a)
		if d.ShiftDate.Before(from) || d.ShiftDate.After(to) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memAssignments) UpdateStatus(_ context.Context, id string, status models.AssignmentStatus) error {
	if err := m.w.fail("assignment.update_status"); err != nil {
		return err
	}
	a, ok := m.w.assignments[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.Status = status
	m.w.assignments[id] = a
	return nil
}

func (m memAssignments) Delete(_ context.Context, id string) error {
	if _, ok := m.w.assignments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.w.assignments, id)
	return nil
}

type memLeaves struct{ w *memWorld }

func (m memLeaves) Create(_ context.Context, r *models.LeaveRequest) error {
	if err := m.w.fail("leave.create"); err != nil {
		return err
	}
	r.ID = m.w.nextID("leave")
	m.w.leaves[r.ID] = *r
	return nil
}

func (m memLeaves) FindByID(_ context.Context, id string) (*models.LeaveRequest, error) {
	r, ok := m.w.leaves[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (m memLeaves) LockByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	return m.FindByID(ctx, id)
}

func (m memLeaves) ListByAssignment(_ context.Context, assignmentID string) ([]models.LeaveRequest, error) {
	out := []models.LeaveRequest{}
	for _, r := range m.w.leaves {
		if r.AssignmentID == assignmentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m memLeaves) List(_ context.Context, filter models.LeaveRequestFilter) ([]models.LeaveRequest, error) {
	out := []models.LeaveRequest{}
	for _, r := range m.w.leaves {
		if filter.RequestedBy != "" && r.RequestedBy != filter.RequestedBy {
			continue
		}
		if filter.AssignmentID != "" && r.AssignmentID != filter.AssignmentID {
			continue
		}
		if len(filter.Status) > 0 && r.Status != filter.Status[0] {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memLeaves) UpdateResolution(_ context.Context, r *models.LeaveRequest) error {
	current, ok := m.w.leaves[r.ID]
	if !ok || current.Status != models.LeavePending {
		return sql.ErrNoRows
	}
	m.w.leaves[r.ID] = *r
	return nil
}

func (m memLeaves) UpdateReason(_ context.Context, id, reason string) error {
	current, ok := m.w.leaves[id]
	if !ok || current.Status != models.LeavePending {
		return sql.ErrNoRows
	}
	current.Reason = reason
	m.w.leaves[id] = current
	return nil
}

func (m memLeaves) Delete(_ context.Context, id string) error {
	current, ok := m.w.leaves[id]
	if !ok || current.Status != models.LeavePending {
		return sql.ErrNoRows
	}
	delete(m.w.leaves, id)
	return nil
}

type memUsers struct{ w *memWorld }

func (m memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := m.w.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (m memUsers) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	if err := m.w.fail("audit"); err != nil {
		return err
	}
	m.w.audits = append(m.w.audits, *log)
	return nil
}

type recordingNotifier struct {
	requests    []models.LeaveRequest
	assignments []models.Assignment
}

func (r *recordingNotifier) LeaveResolved(_ context.Context, request models.LeaveRequest, assignment models.Assignment) {
	r.requests = append(r.requests, request)
	r.assignments = append(r.assignments, assignment)
}
