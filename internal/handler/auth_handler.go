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

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	resolver *service.SessionResolver
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(resolver *service.SessionResolver) *AuthHandler {
	return &AuthHandler{resolver: resolver}
}

// Login godoc
// POST /api/v1/auth/login
// Signs in an admin or teacher with email and password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.resolver.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// StudentLogin godoc
// POST /api/v1/auth/student/login
// Signs in a student with registration number and password.
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req model.StudentLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.resolver.SignInStudent(c.Request.Context(), req.RegistrationNumber, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Logout godoc
// POST /api/v1/auth/logout
// Ends the current session. Unknown or expired credentials are accepted.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.resolver.SignOut(c.Request.Context(), middleware.GetToken(c)); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the resolved caller.
func (h *AuthHandler) Me(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"actor": middleware.GetActor(c)})
}
