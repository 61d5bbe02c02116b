package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nurse-roster-api/internal/dto"
	"github.com/noah-isme/nurse-roster-api/internal/models"
	"github.com/noah-isme/nurse-roster-api/pkg/response"
)

type assignmentService interface {
	Propose(ctx context.Context, actor models.Actor, req dto.ProposeAssignmentRequest) (*models.Assignment, error)
	UpdateStatus(ctx context.Context, actor models.Actor, id string, req dto.UpdateAssignmentStatusRequest) (*models.Assignment, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.AssignmentDetail, error)
	Remove(ctx context.Context, actor models.Actor, id string) error
}

// AssignmentHandler exposes shift assignment endpoints.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler builds a new handler.
func NewAssignmentHandler(service assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

// Propose godoc
// @Summary Assign a nurse to a shift
// @Description Rejects inactive nurses, duplicates, full shifts and same-day overlaps.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.ProposeAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Propose(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.ProposeAssignmentRequest
	if !bindJSON(c, &req, "assignment") {
		return
	}
	assignment, err := h.service.Propose(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Get godoc
// @Summary Get an assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// UpdateStatus godoc
// @Summary Mark an assignment completed
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.UpdateAssignmentStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/status [patch]
func (h *AssignmentHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateAssignmentStatusRequest
	if !bindJSON(c, &req, "status") {
		return
	}
	assignment, err := h.service.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment)
}

// Remove godoc
// @Summary Remove an assignment
// @Tags Assignments
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Remove(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Remove(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
