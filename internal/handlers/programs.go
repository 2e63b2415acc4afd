package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/middleware"
	"github.com/planvera/planvera/internal/models"
	"github.com/planvera/planvera/internal/services"
	appErrors "github.com/planvera/planvera/pkg/errors"
	"github.com/planvera/planvera/pkg/response"
)

type ProgramHandler struct {
	svc *services.ProgramService
}

func NewProgramHandler(db *gorm.DB) (*ProgramHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewProgramService(db, audit)
	if err != nil {
		return nil, err
	}
	return &ProgramHandler{svc: svc}, nil
}

type createProgramRequest struct {
	Name             string `json:"name" validate:"required,min=3,max=128"`
	Code             string `json:"code" validate:"required,min=2,max=32"`
	Description      string `json:"description" validate:"omitempty,max=512"`
	BootstrapProject string `json:"bootstrap_project" validate:"omitempty,min=3,max=128"`
}

type updateProgramRequest struct {
	Name        *string               `json:"name" validate:"omitempty,min=3,max=128"`
	Description *string               `json:"description" validate:"omitempty,max=512"`
	Status      *models.ProgramStatus `json:"status" validate:"omitempty,oneof=planning active closed"`
}

// GET /api/programs
func (h *ProgramHandler) List(c *gin.Context) {
	tenantID := c.GetString(middleware.CtxTenantIDKey)
	programs, err := h.svc.List(requestContext(c), tenantID)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, programs)
}

// GET /api/programs/:programID
func (h *ProgramHandler) Get(c *gin.Context) {
	tenantID := c.GetString(middleware.CtxTenantIDKey)
	program, err := h.svc.GetByID(requestContext(c), tenantID, c.Param("programID"))
	if err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, program)
}

// POST /api/programs
func (h *ProgramHandler) Create(c *gin.Context) {
	var body createProgramRequest
	if !bindAndValidate(c, &body) {
		return
	}

	tenantID := c.GetString(middleware.CtxTenantIDKey)
	program, err := h.svc.Create(requestContext(c), tenantID, services.CreateProgramInput{
		Name:             body.Name,
		Code:             body.Code,
		Description:      body.Description,
		BootstrapProject: body.BootstrapProject,
	})
	if err != nil {
		if errors.Is(err, services.ErrProgramCodeTaken) {
			response.Error(c, appErrors.ErrConflict)
			return
		}
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusCreated, program)
}

// PATCH /api/programs/:programID
func (h *ProgramHandler) Update(c *gin.Context) {
	var body updateProgramRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if body.Name == nil && body.Description == nil && body.Status == nil {
		response.Error(c, appErrors.NewBadRequest("no fields provided for update"))
		return
	}

	tenantID := c.GetString(middleware.CtxTenantIDKey)
	program, err := h.svc.Update(requestContext(c), tenantID, c.Param("programID"), services.UpdateProgramInput{
		Name:        body.Name,
		Description: body.Description,
		Status:      body.Status,
	})
	if err != nil {
		if errors.Is(err, services.ErrProgramNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, program)
}

// DELETE /api/programs/:programID
func (h *ProgramHandler) Delete(c *gin.Context) {
	tenantID := c.GetString(middleware.CtxTenantIDKey)
	err := h.svc.Delete(requestContext(c), tenantID, c.Param("programID"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProgramNotFound):
			response.Error(c, appErrors.ErrNotFound)
		case errors.Is(err, services.ErrProgramHasProjects):
			response.Error(c, appErrors.NewBadRequest("program still has projects"))
		default:
			response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
