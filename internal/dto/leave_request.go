package dto

// SubmitLeaveRequest creates a leave request for an assignment.
type SubmitLeaveRequest struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	Reason       string `json:"reason" validate:"required,max=1000"`
}

// EditLeaveRequest replaces the reason of a pending request.
type EditLeaveRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// ResolveLeaveRequest records a head nurse decision.
type ResolveLeaveRequest struct {
	Status     string  `json:"status" validate:"required,oneof=approved rejected"`
	AdminNotes *string `json:"admin_notes" validate:"omitempty,max=1000"`
}

// LeaveRequestQuery mirrors listing filters.
type LeaveRequestQuery struct {
	Status       string `form:"status" json:"status" validate:"omitempty,oneof=pending approved rejected"`
	AssignmentID string `form:"assignment_id" json:"assignment_id"`
	Limit        int    `form:"limit" json:"limit" validate:"omitempty,min=1,max=200"`
	Offset       int    `form:"offset" json:"offset" validate:"omitempty,min=0"`
}
