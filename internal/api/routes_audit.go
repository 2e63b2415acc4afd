package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/authz"
	"github.com/planvera/planvera/internal/handlers"
	"github.com/planvera/planvera/internal/middleware"
)

func registerAuditRoutes(api *gin.RouterGroup, db *gorm.DB, evaluator *authz.Evaluator) error {
	handler, err := handlers.NewAuditHandler(db)
	if err != nil {
		return err
	}

	audit := api.Group("/audit", middleware.TenantScope(), middleware.RequireAction(evaluator, authz.ActionAuditView))
	{
		audit.GET("", handler.List)
		audit.GET("/export", handler.Export)
	}

	return nil
}
