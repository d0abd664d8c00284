package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/response"
	"github.com/stemsi/examportal-backend/internal/service"
	"github.com/stemsi/examportal-backend/internal/validator"
)

// CatalogHandler manages branches and subjects.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListBranches godoc
// GET /api/v1/admin/branches
func (h *CatalogHandler) ListBranches(c *gin.Context) {
	branches, err := h.catalogService.ListBranches(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"branches": branches})
}

// CreateBranch godoc
// POST /api/v1/admin/branches
func (h *CatalogHandler) CreateBranch(c *gin.Context) {
	var req model.CreateBranchRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	branch, err := h.catalogService.CreateBranch(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"branch": branch})
}

// DeleteBranch godoc
// DELETE /api/v1/admin/branches/:id
func (h *CatalogHandler) DeleteBranch(c *gin.Context) {
	if err := h.catalogService.DeleteBranch(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ListSubjects godoc
// GET /api/v1/admin/subjects
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.catalogService.ListSubjects(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"subjects": subjects})
}

// CreateSubject godoc
// POST /api/v1/admin/subjects
func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	var req model.CreateSubjectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	subject, err := h.catalogService.CreateSubject(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"subject": subject})
}

// DeleteSubject godoc
// DELETE /api/v1/admin/subjects/:id
func (h *CatalogHandler) DeleteSubject(c *gin.Context) {
	if err := h.catalogService.DeleteSubject(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
