package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/middleware"
	"github.com/planvera/planvera/internal/services"
	appErrors "github.com/planvera/planvera/pkg/errors"
	"github.com/planvera/planvera/pkg/response"
)

type AuditHandler struct {
	svc *services.AuditService
}

func NewAuditHandler(db *gorm.DB) (*AuditHandler, error) {
	svc, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	return &AuditHandler{svc: svc}, nil
}

// GET /api/audit
func (h *AuditHandler) List(c *gin.Context) {
	opts := services.AuditListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 50),
		Filters:  h.filtersFromQuery(c),
	}

	records, total, err := h.svc.List(requestContext(c), opts)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))

	response.SuccessWithMeta(c, http.StatusOK, records, &response.Meta{
		Page:       opts.Page,
		PerPage:    perPage,
		Total:      int(total),
		TotalPages: totalPages,
	})
}

// GET /api/audit/export
func (h *AuditHandler) Export(c *gin.Context) {
	records, err := h.svc.Export(requestContext(c), h.filtersFromQuery(c))
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, records)
}

// filtersFromQuery pins the tenant filter to the caller's tenant so the
// audit trail never leaks across the isolation boundary.
func (h *AuditHandler) filtersFromQuery(c *gin.Context) services.AuditFilters {
	filters := services.AuditFilters{
		TenantID:  c.GetString(middleware.CtxTenantIDKey),
		SubjectID: c.Query("subject_id"),
		Action:    c.Query("action"),
		Outcome:   c.Query("outcome"),
	}

	if since := c.Query("since"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			filters.Since = &t
		}
	}
	if until := c.Query("until"); until != "" {
		if t, err := time.Parse(time.RFC3339, until); err == nil {
			filters.Until = &t
		}
	}

	return filters
}
