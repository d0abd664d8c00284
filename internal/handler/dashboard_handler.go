package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/examportal-backend/internal/middleware"
	"github.com/stemsi/examportal-backend/internal/response"
	"github.com/stemsi/examportal-backend/internal/service"
)

// DashboardHandler serves the per-role overview pages.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Admin godoc
// GET /api/v1/admin/dashboard
// Returns collection counts and the teacher list.
func (h *DashboardHandler) Admin(c *gin.Context) {
	data, err := h.dashboardService.Admin(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, data)
}

// Teacher godoc
// GET /api/v1/teacher/dashboard
// Returns the caller's exams with result counts and the student list.
func (h *DashboardHandler) Teacher(c *gin.Context) {
	data, err := h.dashboardService.Teacher(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, data)
}

// Student godoc
// GET /api/v1/student/dashboard
// Returns the exams the caller may sit, each with its status.
func (h *DashboardHandler) Student(c *gin.Context) {
	data, err := h.dashboardService.Student(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, data)
}
