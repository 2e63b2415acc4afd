package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/authz"
	"github.com/planvera/planvera/internal/handlers"
	"github.com/planvera/planvera/internal/middleware"
)

func registerTenantRoutes(api *gin.RouterGroup, db *gorm.DB, evaluator *authz.Evaluator) error {
	handler, err := handlers.NewTenantHandler(db)
	if err != nil {
		return err
	}

	tenants := api.Group("/tenants")
	{
		// Creation and platform-wide listing carry an action no role in the
		// capability table grants, so only platform operators pass.
		tenants.GET("", middleware.TenantScope(), middleware.RequireAction(evaluator, authz.ActionTenantCreate), handler.List)
		tenants.POST("", middleware.TenantScope(), middleware.RequireAction(evaluator, authz.ActionTenantCreate), handler.Create)

		tenants.GET("/:tenantID", middleware.TenantScope(), middleware.RequireAction(evaluator, authz.ActionTenantView), handler.Get)
		tenants.PATCH("/:tenantID", middleware.TenantScope(), middleware.RequireAction(evaluator, authz.ActionTenantManage), handler.Update)
	}

	return nil
}
