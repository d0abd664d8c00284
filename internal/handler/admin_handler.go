package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/response"
	"github.com/stemsi/examportal-backend/internal/service"
	"github.com/stemsi/examportal-backend/internal/validator"
)

// AdminHandler manages teacher accounts.
type AdminHandler struct {
	teacherService *service.TeacherService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(teacherService *service.TeacherService) *AdminHandler {
	return &AdminHandler{teacherService: teacherService}
}

// ListTeachers godoc
// GET /api/v1/admin/teachers
func (h *AdminHandler) ListTeachers(c *gin.Context) {
	teachers, err := h.teacherService.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"teachers": teachers})
}

// CreateTeacher godoc
// POST /api/v1/admin/teachers
func (h *AdminHandler) CreateTeacher(c *gin.Context) {
	var req model.CreateTeacherRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	teacher, err := h.teacherService.Create(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"teacher": teacher})
}

// DeleteTeacher godoc
// DELETE /api/v1/admin/teachers/:id
func (h *AdminHandler) DeleteTeacher(c *gin.Context) {
	if err := h.teacherService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
