package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/examportal-backend/internal/middleware"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/response"
	"github.com/stemsi/examportal-backend/internal/service"
	"github.com/stemsi/examportal-backend/internal/validator"
)

// ExamHandler handles exam authoring endpoints.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// ListExams godoc
// GET /api/v1/teacher/exams
// Admins see every exam; teachers see only their own.
func (h *ExamHandler) ListExams(c *gin.Context) {
	actor := middleware.GetActor(c)

	var (
		exams []model.ExamSummary
		err   error
	)
	if actor.Kind == model.ActorAdmin {
		exams, err = h.examService.List(c.Request.Context())
	} else {
		exams, err = h.examService.ListByAuthor(c.Request.Context(), actor.UID)
	}
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// CreateExam godoc
// POST /api/v1/teacher/exams
// Validates the draft and stores it. Nothing is written on a validation error.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// GetExam godoc
// GET /api/v1/teacher/exams/:id
// Returns the exam with its answer key.
func (h *ExamHandler) GetExam(c *gin.Context) {
	exam, ok := h.authorised(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/v1/teacher/exams/:id
// Removes the exam and every stored result.
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	exam, ok := h.authorised(c)
	if !ok {
		return
	}
	if err := h.examService.Delete(c.Request.Context(), exam.ID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// GetExamResults godoc
// GET /api/v1/teacher/exams/:id/results
// Lists per-student results for one exam.
func (h *ExamHandler) GetExamResults(c *gin.Context) {
	exam, ok := h.authorised(c)
	if !ok {
		return
	}
	results, err := h.examService.Results(c.Request.Context(), exam.ID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam.Summary(), "results": results})
}

// authorised loads the exam named in the path and checks that the caller is
// an admin or its author.
func (h *ExamHandler) authorised(c *gin.Context) (*model.Exam, bool) {
	exam, err := h.examService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return nil, false
	}
	actor := middleware.GetActor(c)
	if actor.Kind != model.ActorAdmin && exam.CreatedBy != actor.UID {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return nil, false
	}
	return exam, true
}
