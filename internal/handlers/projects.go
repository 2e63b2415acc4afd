package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/middleware"
	"github.com/planvera/planvera/internal/services"
	appErrors "github.com/planvera/planvera/pkg/errors"
	"github.com/planvera/planvera/pkg/response"
)

type ProjectHandler struct {
	svc *services.ProjectService
}

func NewProjectHandler(db *gorm.DB) (*ProjectHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewProjectService(db, audit)
	if err != nil {
		return nil, err
	}
	return &ProjectHandler{svc: svc}, nil
}

type createProjectRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=128"`
	Description string `json:"description" validate:"omitempty,max=512"`
	IsDefault   bool   `json:"is_default"`
}

type updateProjectRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=3,max=128"`
	Description *string `json:"description" validate:"omitempty,max=512"`
}

// GET /api/programs/:programID/projects
func (h *ProjectHandler) List(c *gin.Context) {
	sc, ok := middleware.ScopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}
	projects, err := h.svc.List(requestContext(c), sc.ProgramID())
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, projects)
}

// POST /api/programs/:programID/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var body createProjectRequest
	if !bindAndValidate(c, &body) {
		return
	}

	sc, ok := middleware.ScopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	project, err := h.svc.Create(requestContext(c), sc, services.CreateProjectInput{
		Name:        body.Name,
		Description: body.Description,
		IsDefault:   body.IsDefault,
	})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusCreated, project)
}

// GET /api/programs/:programID/projects/:projectID
func (h *ProjectHandler) Get(c *gin.Context) {
	sc, ok := middleware.ScopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}
	project, err := h.svc.GetByID(requestContext(c), sc.ProgramID(), sc.ProjectID())
	if err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, project)
}

// PATCH /api/programs/:programID/projects/:projectID
func (h *ProjectHandler) Update(c *gin.Context) {
	var body updateProjectRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if body.Name == nil && body.Description == nil {
		response.Error(c, appErrors.NewBadRequest("no fields provided for update"))
		return
	}

	sc, ok := middleware.ScopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	project, err := h.svc.Update(requestContext(c), sc, services.UpdateProjectInput{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, project)
}

// POST /api/programs/:programID/projects/:projectID/default
func (h *ProjectHandler) SetDefault(c *gin.Context) {
	sc, ok := middleware.ScopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	project, err := h.svc.SetDefault(requestContext(c), sc)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, project)
}

// Workspace loads the project governing the current request. The route is
// the one legacy shape that may omit the project identifier; when the
// fallback flag is on, the resolution middleware already substituted the
// program's default project.
//
// GET /api/programs/:programID/workspace
func (h *ProjectHandler) Workspace(c *gin.Context) {
	sc, ok := middleware.ScopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	project, err := h.svc.GetByID(requestContext(c), sc.ProgramID(), sc.ProjectID())
	if err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"scope": gin.H{
			"tenant_id":  sc.TenantID(),
			"program_id": sc.ProgramID(),
			"project_id": sc.ProjectID(),
		},
		"project": project,
	})
}

// DELETE /api/programs/:programID/projects/:projectID
func (h *ProjectHandler) Delete(c *gin.Context) {
	sc, ok := middleware.ScopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	err := h.svc.Delete(requestContext(c), sc)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProjectNotFound):
			response.Error(c, appErrors.ErrNotFound)
		case errors.Is(err, services.ErrDefaultProjectProtected):
			response.Error(c, appErrors.NewBadRequest("promote another project before deleting the default"))
		default:
			response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
