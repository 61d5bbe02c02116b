package models

import "time"

// Audit actions recorded by the write paths.
const (
	AuditActionShiftCreate      = "SHIFT_CREATE"
	AuditActionShiftUpdate      = "SHIFT_UPDATE"
	AuditActionAssignmentCreate = "ASSIGNMENT_CREATE"
	AuditActionAssignmentStatus = "ASSIGNMENT_STATUS"
	AuditActionAssignmentDelete = "ASSIGNMENT_DELETE"
	AuditActionLeaveSubmit      = "LEAVE_SUBMIT"
	AuditActionLeaveResolve     = "LEAVE_RESOLVE"
	AuditActionLeaveCancel      = "LEAVE_CANCEL"
	AuditActionLeaveEdit        = "LEAVE_EDIT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
