package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/examportal-backend/internal/examsession"
	"github.com/stemsi/examportal-backend/internal/middleware"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/response"
	"github.com/stemsi/examportal-backend/internal/service"
	"github.com/stemsi/examportal-backend/internal/store"
	"github.com/stemsi/examportal-backend/internal/validator"
)

// StudentPortalHandler handles exam taking over plain HTTP.
type StudentPortalHandler struct {
	sessionService *service.ExamSessionService
	examService    *service.ExamService
	studentService *service.StudentService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(
	sessionService *service.ExamSessionService,
	examService *service.ExamService,
	studentService *service.StudentService,
) *StudentPortalHandler {
	return &StudentPortalHandler{
		sessionService: sessionService,
		examService:    examService,
		studentService: studentService,
	}
}

// EnterExam godoc
// POST /api/v1/student/exams/:id/enter
// Registers a fresh attempt and returns the terms gate, or the stored result
// when the student already finished. Any earlier attempt is discarded.
func (h *StudentPortalHandler) EnterExam(c *gin.Context) {
	examID := c.Param("id")
	actor := middleware.GetActor(c)

	if !h.eligible(c, examID, actor.UID) {
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
		return
	}

	view, err := h.sessionService.Enter(c.Request.Context(), examID, actor)
	if err != nil {
		fail(c, err)
		return
	}
	if view.State == examsession.StateBlocked {
		if err := view.Reason.Err(); err != nil {
			fail(c, err)
			return
		}
	}
	response.Success(c, http.StatusOK, view)
}

// eligible hides exams scoped to another branch or semester. Unknown exams
// pass through so the engine reports them.
func (h *StudentPortalHandler) eligible(c *gin.Context, examID, uid string) bool {
	exam, err := h.examService.Get(c.Request.Context(), examID)
	if err != nil {
		return true
	}
	student, err := h.studentService.Get(c.Request.Context(), uid)
	if err != nil {
		return errors.Is(err, store.ErrNotFound) && exam.BranchID == "" && exam.Semester == ""
	}
	return service.Eligible(exam, student)
}

// StartExam godoc
// POST /api/v1/student/exams/:id/start
// Accepts the terms and starts the countdown.
func (h *StudentPortalHandler) StartExam(c *gin.Context) {
	view, err := h.sessionService.Start(c.Request.Context(), c.Param("id"), middleware.GetActor(c).UID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// AnswerQuestion godoc
// PUT /api/v1/student/exams/:id/answers/:question_id
// Records the selected option; the latest choice wins.
func (h *StudentPortalHandler) AnswerQuestion(c *gin.Context) {
	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.sessionService.Answer(c.Request.Context(), c.Param("id"), middleware.GetActor(c).UID, c.Param("question_id"), req.Answer)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Navigate godoc
// POST /api/v1/student/exams/:id/navigate
func (h *StudentPortalHandler) Navigate(c *gin.Context) {
	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.sessionService.Navigate(c.Request.Context(), c.Param("id"), middleware.GetActor(c).UID, *req.Index)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// SubmitExam godoc
// POST /api/v1/student/exams/:id/submit
// Scores the attempt and stores the result. A storage failure answers 503
// with the attempt kept for /retry.
func (h *StudentPortalHandler) SubmitExam(c *gin.Context) {
	view, err := h.sessionService.Submit(c.Request.Context(), c.Param("id"), middleware.GetActor(c).UID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// RetrySubmit godoc
// POST /api/v1/student/exams/:id/retry
// Re-attempts a failed result write without re-scoring.
func (h *StudentPortalHandler) RetrySubmit(c *gin.Context) {
	view, err := h.sessionService.Retry(c.Request.Context(), c.Param("id"), middleware.GetActor(c).UID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// GetExamState godoc
// GET /api/v1/student/exams/:id/state
// Returns the current attempt view, used to recover after a page reload.
func (h *StudentPortalHandler) GetExamState(c *gin.Context) {
	view, err := h.sessionService.State(c.Request.Context(), c.Param("id"), middleware.GetActor(c).UID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}
