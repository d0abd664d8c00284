package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/examportal-backend/internal/examsession"
	"github.com/stemsi/examportal-backend/internal/identity"
	"github.com/stemsi/examportal-backend/internal/response"
	"github.com/stemsi/examportal-backend/internal/service"
	"github.com/stemsi/examportal-backend/internal/store"
)

// statusFor maps a domain error to its HTTP status and error code. Order
// matters: blocked-state reasons are checked before the generic transition
// error they are wrapped in.
func statusFor(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.ErrInvalidCredentials
	case errors.Is(err, identity.ErrInvalidSession):
		return http.StatusUnauthorized, response.ErrTokenInvalid
	case errors.Is(err, identity.ErrEmailTaken):
		return http.StatusConflict, response.ErrEmailTaken
	case errors.Is(err, service.ErrRegistrationTaken):
		return http.StatusConflict, response.ErrRegistrationTaken
	case errors.Is(err, service.ErrNoActiveAttempt):
		return http.StatusConflict, response.ErrNoActiveAttempt
	case errors.Is(err, service.ErrNotATeacher):
		return http.StatusNotFound, response.ErrNotFound

	case errors.Is(err, examsession.ErrExamNotFound):
		return http.StatusNotFound, response.ErrExamNotFound
	case errors.Is(err, examsession.ErrExamNotYetOpen):
		return http.StatusForbidden, response.ErrExamNotYetOpen
	case errors.Is(err, examsession.ErrExamClosed):
		return http.StatusForbidden, response.ErrExamClosed
	case errors.Is(err, examsession.ErrPersistenceFailure):
		return http.StatusServiceUnavailable, response.ErrPersistenceFailure
	case errors.Is(err, examsession.ErrSubmitInFlight):
		return http.StatusConflict, response.ErrSubmitInProgress
	case errors.Is(err, examsession.ErrInvalidTransition):
		return http.StatusConflict, response.ErrInvalidTransition
	case errors.Is(err, examsession.ErrUnknownQuestion):
		return http.StatusBadRequest, response.ErrUnknownQuestion
	case errors.Is(err, examsession.ErrInvalidLabel):
		return http.StatusBadRequest, response.ErrInvalidOption
	case errors.Is(err, examsession.ErrInvalidPosition):
		return http.StatusBadRequest, response.ErrInvalidPosition

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, response.ErrConflict
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// fail writes the error envelope for err. Validation failures carry the
// offending field; anything unmapped is logged and reported as internal.
func fail(c *gin.Context, err error) {
	var ve *examsession.ValidationError
	if errors.As(err, &ve) {
		code := response.ErrValidation
		if errors.Is(err, service.ErrSubjectNotFound) {
			code = response.ErrSubjectNotFound
		}
		response.FailWithFields(c, http.StatusBadRequest, code, map[string]string{ve.Field: ve.Message})
		return
	}
	if errors.Is(err, service.ErrBranchNotFound) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"branch_id": err.Error()})
		return
	}

	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	response.Fail(c, status, code)
}
