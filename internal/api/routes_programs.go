package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/authz"
	"github.com/planvera/planvera/internal/handlers"
	"github.com/planvera/planvera/internal/middleware"
	"github.com/planvera/planvera/internal/scope"
)

func registerProgramRoutes(api *gin.RouterGroup, db *gorm.DB, resolver *scope.Resolver, evaluator *authz.Evaluator) error {
	handler, err := handlers.NewProgramHandler(db)
	if err != nil {
		return err
	}

	programs := api.Group("/programs")
	{
		programs.GET("", middleware.TenantScope(), middleware.RequireAction(evaluator, authz.ActionProgramView), handler.List)
		programs.POST("", middleware.TenantScope(), middleware.RequireAction(evaluator, authz.ActionProgramCreate), handler.Create)

		programs.GET("/:programID", middleware.ResolveProgramScope(resolver), middleware.RequireAction(evaluator, authz.ActionProgramView), handler.Get)
		programs.PATCH("/:programID", middleware.ResolveProgramScope(resolver), middleware.RequireAction(evaluator, authz.ActionProgramUpdate), handler.Update)
		programs.DELETE("/:programID", middleware.ResolveProgramScope(resolver), middleware.RequireAction(evaluator, authz.ActionProgramDelete), handler.Delete)
	}

	return nil
}
