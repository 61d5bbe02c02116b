package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/nurse-roster-api/internal/middleware"
	"github.com/noah-isme/nurse-roster-api/internal/models"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes.
type Handlers struct {
	Shifts        *ShiftHandler
	Assignments   *AssignmentHandler
	LeaveRequests *LeaveRequestHandler
	Schedules     *ScheduleHandler
	Metrics       *MetricsHandler
}

// RegisterRoutes mounts public probes on r and the authenticated API under prefix.
func RegisterRoutes(r *gin.Engine, prefix string, tokens middleware.TokenValidator, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	headNurse := middleware.RequireRoles(models.RoleHeadNurse)

	api := r.Group(prefix, middleware.WithResponseMeta(), middleware.JWT(tokens))

	shifts := api.Group("/shifts")
	shifts.POST("", headNurse, h.Shifts.Create)
	shifts.GET("", h.Shifts.List)
	shifts.GET("/:id", h.Shifts.Get)
	shifts.PUT("/:id", headNurse, h.Shifts.Update)
	shifts.GET("/:id/assignments", h.Shifts.Assignments)

	assignments := api.Group("/assignments")
	assignments.POST("", headNurse, h.Assignments.Propose)
	assignments.GET("/:id", h.Assignments.Get)
	assignments.PATCH("/:id/status", headNurse, h.Assignments.UpdateStatus)
	assignments.DELETE("/:id", headNurse, h.Assignments.Remove)

	// ownership on edit and cancel is enforced by the service
	leaves := api.Group("/leave-requests")
	leaves.POST("", middleware.RequireRoles(models.RoleNurse), h.LeaveRequests.Submit)
	leaves.GET("", h.LeaveRequests.List)
	leaves.GET("/:id", h.LeaveRequests.Get)
	leaves.PUT("/:id", h.LeaveRequests.Edit)
	leaves.DELETE("/:id", h.LeaveRequests.Cancel)
	leaves.PATCH("/:id/resolve", headNurse, h.LeaveRequests.Resolve)

	nurses := api.Group("/nurses/:id", middleware.RBAC(string(models.RoleHeadNurse), middleware.Self))
	nurses.GET("/schedule", h.Schedules.NurseSchedule)
	nurses.GET("/schedule/export", h.Schedules.Export)
}
