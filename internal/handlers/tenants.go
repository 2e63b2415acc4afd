package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/services"
	appErrors "github.com/planvera/planvera/pkg/errors"
	"github.com/planvera/planvera/pkg/response"
)

type TenantHandler struct {
	svc *services.TenantService
}

func NewTenantHandler(db *gorm.DB) (*TenantHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewTenantService(db, audit)
	if err != nil {
		return nil, err
	}
	return &TenantHandler{svc: svc}, nil
}

type createTenantRequest struct {
	Name     string         `json:"name" validate:"required,min=3,max=128"`
	Slug     string         `json:"slug" validate:"required,slug,min=2,max=64"`
	Settings map[string]any `json:"settings"`
}

type updateTenantRequest struct {
	Name     *string         `json:"name" validate:"omitempty,min=3,max=128"`
	Settings *map[string]any `json:"settings"`
}

// GET /api/tenants
func (h *TenantHandler) List(c *gin.Context) {
	tenants, err := h.svc.List(requestContext(c))
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, tenants)
}

// GET /api/tenants/:tenantID
func (h *TenantHandler) Get(c *gin.Context) {
	tenant, err := h.svc.GetByID(requestContext(c), c.Param("tenantID"))
	if err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, tenant)
}

// POST /api/tenants
func (h *TenantHandler) Create(c *gin.Context) {
	var body createTenantRequest
	if !bindAndValidate(c, &body) {
		return
	}

	tenant, err := h.svc.Create(requestContext(c), services.CreateTenantInput{
		Name:     strings.TrimSpace(body.Name),
		Slug:     strings.TrimSpace(body.Slug),
		Settings: body.Settings,
	})
	if err != nil {
		if errors.Is(err, services.ErrTenantSlugTaken) {
			response.Error(c, appErrors.ErrConflict)
			return
		}
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusCreated, tenant)
}

// PATCH /api/tenants/:tenantID
func (h *TenantHandler) Update(c *gin.Context) {
	var body updateTenantRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if body.Name == nil && body.Settings == nil {
		response.Error(c, appErrors.NewBadRequest("no fields provided for update"))
		return
	}

	input := services.UpdateTenantInput{Name: body.Name}
	if body.Settings != nil {
		input.Settings = *body.Settings
	}

	tenant, err := h.svc.Update(requestContext(c), c.Param("tenantID"), input)
	if err != nil {
		if errors.Is(err, services.ErrTenantNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, tenant)
}
