package models

import "time"

// LeaveStatus captures workflow states for leave requests.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

// LeaveRequest is a nurse's petition to be excused from an assignment.
type LeaveRequest struct {
	ID           string      `db:"id" json:"id"`
	AssignmentID string      `db:"assignment_id" json:"assignment_id"`
	RequestedBy  string      `db:"requested_by" json:"requested_by"`
	Reason       string      `db:"reason" json:"reason"`
	Status       LeaveStatus `db:"status" json:"status"`
	ApprovedBy   *string     `db:"approved_by" json:"approved_by,omitempty"`
	ResolvedAt   *time.Time  `db:"resolved_at" json:"resolved_at,omitempty"`
	AdminNotes   *string     `db:"admin_notes" json:"admin_notes,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// Active reports whether the request blocks another submission for the same assignment.
func (r LeaveRequest) Active() bool {
	return r.Status == LeavePending || r.Status == LeaveApproved
}

// LeaveRequestFilter constrains listing queries.
type LeaveRequestFilter struct {
	Status       []LeaveStatus
	AssignmentID string
	RequestedBy  string
	Limit        int
	Offset       int
}
