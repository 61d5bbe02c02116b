package dto

// ProposeAssignmentRequest asks to put a nurse on a shift.
type ProposeAssignmentRequest struct {
	ShiftID string  `json:"shift_id" validate:"required"`
	NurseID string  `json:"nurse_id" validate:"required"`
	Notes   *string `json:"notes" validate:"omitempty,max=500"`
}

// UpdateAssignmentStatusRequest carries a manual status change.
type UpdateAssignmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=assigned completed on_leave"`
}
