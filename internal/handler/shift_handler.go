package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nurse-roster-api/internal/dto"
	"github.com/noah-isme/nurse-roster-api/internal/models"
	"github.com/noah-isme/nurse-roster-api/pkg/response"
)

type shiftService interface {
	Create(ctx context.Context, actor models.Actor, req dto.CreateShiftRequest) (*models.ShiftCapacity, error)
	Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateShiftRequest) (*models.ShiftCapacity, error)
	Get(ctx context.Context, id string) (*models.ShiftCapacity, error)
	List(ctx context.Context, query dto.ShiftQuery) ([]models.Shift, error)
	ListAssignments(ctx context.Context, id string) ([]models.AssignmentDetail, error)
}

// ShiftHandler exposes shift management endpoints.
type ShiftHandler struct {
	service shiftService
}

// NewShiftHandler builds a new handler.
func NewShiftHandler(service shiftService) *ShiftHandler {
	return &ShiftHandler{service: service}
}

// Create godoc
// @Summary Create a shift
// @Tags Shifts
// @Accept json
// @Produce json
// @Param payload body dto.CreateShiftRequest true "Shift payload"
// @Success 201 {object} response.Envelope
// @Router /shifts [post]
func (h *ShiftHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateShiftRequest
	if !bindJSON(c, &req, "shift") {
		return
	}
	shift, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, shift)
}

// Update godoc
// @Summary Update a shift
// @Tags Shifts
// @Accept json
// @Produce json
// @Param id path string true "Shift ID"
// @Param payload body dto.UpdateShiftRequest true "Shift changes"
// @Success 200 {object} response.Envelope
// @Router /shifts/{id} [put]
func (h *ShiftHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateShiftRequest
	if !bindJSON(c, &req, "shift") {
		return
	}
	shift, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shift)
}

// Get godoc
// @Summary Get a shift with its capacity
// @Tags Shifts
// @Produce json
// @Param id path string true "Shift ID"
// @Success 200 {object} response.Envelope
// @Router /shifts/{id} [get]
func (h *ShiftHandler) Get(c *gin.Context) {
	shift, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shift)
}

// List godoc
// @Summary List shifts
// @Tags Shifts
// @Produce json
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Param department query string false "Department"
// @Param shift_type query string false "morning, afternoon or night"
// @Success 200 {object} response.Envelope
// @Router /shifts [get]
func (h *ShiftHandler) List(c *gin.Context) {
	var query dto.ShiftQuery
	if !bindQuery(c, &query) {
		return
	}
	shifts, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shifts, map[string]interface{}{"count": len(shifts)})
}

// Assignments godoc
// @Summary List the nurses assigned to a shift
// @Tags Shifts
// @Produce json
// @Param id path string true "Shift ID"
// @Success 200 {object} response.Envelope
// @Router /shifts/{id}/assignments [get]
func (h *ShiftHandler) Assignments(c *gin.Context) {
	items, err := h.service.ListAssignments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}
