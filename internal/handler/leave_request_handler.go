package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nurse-roster-api/internal/dto"
	"github.com/noah-isme/nurse-roster-api/internal/models"
	"github.com/noah-isme/nurse-roster-api/pkg/response"
)

type leaveRequestService interface {
	Submit(ctx context.Context, actor models.Actor, req dto.SubmitLeaveRequest) (*models.LeaveRequest, error)
	Resolve(ctx context.Context, actor models.Actor, id string, req dto.ResolveLeaveRequest) (*models.LeaveRequest, error)
	Cancel(ctx context.Context, actor models.Actor, id string) error
	Edit(ctx context.Context, actor models.Actor, id string, req dto.EditLeaveRequest) (*models.LeaveRequest, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.LeaveRequest, error)
	List(ctx context.Context, actor models.Actor, query dto.LeaveRequestQuery) ([]models.LeaveRequest, error)
}

// LeaveRequestHandler exposes the leave request workflow.
type LeaveRequestHandler struct {
	service leaveRequestService
}

// NewLeaveRequestHandler builds a new handler.
func NewLeaveRequestHandler(service leaveRequestService) *LeaveRequestHandler {
	return &LeaveRequestHandler{service: service}
}

// Submit godoc
// @Summary Request leave for an assignment
// @Tags LeaveRequests
// @Accept json
// @Produce json
// @Param payload body dto.SubmitLeaveRequest true "Leave payload"
// @Success 201 {object} response.Envelope
// @Router /leave-requests [post]
func (h *LeaveRequestHandler) Submit(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SubmitLeaveRequest
	if !bindJSON(c, &req, "leave request") {
		return
	}
	request, err := h.service.Submit(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// List godoc
// @Summary List leave requests
// @Tags LeaveRequests
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Param assignment_id query string false "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /leave-requests [get]
func (h *LeaveRequestHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var query dto.LeaveRequestQuery
	if !bindQuery(c, &query) {
		return
	}
	items, err := h.service.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// Get godoc
// @Summary Get a leave request
// @Tags LeaveRequests
// @Produce json
// @Param id path string true "Leave request ID"
// @Success 200 {object} response.Envelope
// @Router /leave-requests/{id} [get]
func (h *LeaveRequestHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	request, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request)
}

// Edit godoc
// @Summary Change the reason of a pending request
// @Tags LeaveRequests
// @Accept json
// @Produce json
// @Param id path string true "Leave request ID"
// @Param payload body dto.EditLeaveRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Router /leave-requests/{id} [put]
func (h *LeaveRequestHandler) Edit(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.EditLeaveRequest
	if !bindJSON(c, &req, "leave request") {
		return
	}
	request, err := h.service.Edit(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request)
}

// Cancel godoc
// @Summary Withdraw a pending request
// @Tags LeaveRequests
// @Param id path string true "Leave request ID"
// @Success 204
// @Router /leave-requests/{id} [delete]
func (h *LeaveRequestHandler) Cancel(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Cancel(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Resolve godoc
// @Summary Approve or reject a pending request
// @Description Approval moves the assignment to on_leave and frees a slot on the shift.
// @Tags LeaveRequests
// @Accept json
// @Produce json
// @Param id path string true "Leave request ID"
// @Param payload body dto.ResolveLeaveRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leave-requests/{id}/resolve [patch]
func (h *LeaveRequestHandler) Resolve(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ResolveLeaveRequest
	if !bindJSON(c, &req, "decision") {
		return
	}
	request, err := h.service.Resolve(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request)
}
