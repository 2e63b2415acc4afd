package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/middleware"
	"github.com/planvera/planvera/internal/models"
	"github.com/planvera/planvera/internal/scope"
	"github.com/planvera/planvera/internal/services"
	appErrors "github.com/planvera/planvera/pkg/errors"
	"github.com/planvera/planvera/pkg/response"
)

type AssignmentHandler struct {
	svc *services.AssignmentService
}

func NewAssignmentHandler(db *gorm.DB) (*AssignmentHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewAssignmentService(db, audit)
	if err != nil {
		return nil, err
	}
	return &AssignmentHandler{svc: svc}, nil
}

type grantRequest struct {
	SubjectID  string     `json:"subject_id" validate:"required,uuid4"`
	Role       string     `json:"role" validate:"required,oneof=platform_admin tenant_admin program_manager project_manager project_member readonly"`
	ProgramID  string     `json:"program_id" validate:"omitempty,uuid4"`
	ProjectID  string     `json:"project_id" validate:"omitempty,uuid4"`
	ValidFrom  *time.Time `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until"`
}

// POST /api/assignments
func (h *AssignmentHandler) Grant(c *gin.Context) {
	var body grantRequest
	if !bindAndValidate(c, &body) {
		return
	}

	tenantID := c.GetString(middleware.CtxTenantIDKey)
	granterID := c.GetString(middleware.CtxUserIDKey)

	assignment, err := h.svc.Grant(requestContext(c), services.GrantInput{
		SubjectID:  body.SubjectID,
		Role:       models.RoleKind(body.Role),
		TenantID:   tenantID,
		ProgramID:  body.ProgramID,
		ProjectID:  body.ProjectID,
		ValidFrom:  body.ValidFrom,
		ValidUntil: body.ValidUntil,
		GrantedBy:  granterID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRoleScope), errors.Is(err, services.ErrInvalidValidity):
			response.Error(c, appErrors.NewBadRequest(err.Error()))
		case errors.Is(err, services.ErrPlatformRoleRestricted):
			response.Error(c, appErrors.ErrForbidden.WithInternal(err))
		case errors.Is(err, scope.ErrScopeViolation):
			response.Error(c, middleware.ScopeError(err))
		default:
			response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		}
		return
	}
	response.Success(c, http.StatusCreated, assignment)
}

// DELETE /api/assignments/:assignmentID
func (h *AssignmentHandler) Revoke(c *gin.Context) {
	tenantID := c.GetString(middleware.CtxTenantIDKey)
	assignment, err := h.svc.Revoke(requestContext(c), tenantID, c.Param("assignmentID"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAssignmentNotFound):
			response.Error(c, appErrors.ErrNotFound)
		case errors.Is(err, services.ErrAssignmentRevoked):
			response.Error(c, appErrors.NewBadRequest("assignment already revoked"))
		default:
			response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		}
		return
	}
	response.Success(c, http.StatusOK, assignment)
}

type assignmentView struct {
	models.RoleAssignment
	Status models.AssignmentStatus `json:"status"`
}

// GET /api/subjects/:subjectID/assignments
func (h *AssignmentHandler) ListForSubject(c *gin.Context) {
	tenantID := c.GetString(middleware.CtxTenantIDKey)

	assignments, err := h.svc.ListForSubject(requestContext(c), tenantID, c.Param("subjectID"))
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	now := time.Now()
	views := make([]assignmentView, 0, len(assignments))
	for _, a := range assignments {
		views = append(views, assignmentView{RoleAssignment: a, Status: a.StatusAt(now)})
	}

	response.Success(c, http.StatusOK, views)
}
