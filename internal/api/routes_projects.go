package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/authz"
	"github.com/planvera/planvera/internal/handlers"
	"github.com/planvera/planvera/internal/middleware"
	"github.com/planvera/planvera/internal/scope"
)

func registerProjectRoutes(api *gin.RouterGroup, db *gorm.DB, resolver *scope.Resolver, evaluator *authz.Evaluator, fallbackEnabled bool) error {
	handler, err := handlers.NewProjectHandler(db)
	if err != nil {
		return err
	}

	projects := api.Group("/programs/:programID/projects")
	{
		projects.GET("", middleware.ResolveProgramScope(resolver), middleware.RequireAction(evaluator, authz.ActionProjectRead), handler.List)
		projects.POST("", middleware.ResolveProgramScope(resolver), middleware.RequireAction(evaluator, authz.ActionProjectCreate), handler.Create)

		projects.GET("/:projectID", middleware.ResolveScope(resolver, fallbackEnabled), middleware.RequireAction(evaluator, authz.ActionProjectRead), handler.Get)
		projects.PATCH("/:projectID", middleware.ResolveScope(resolver, fallbackEnabled), middleware.RequireAction(evaluator, authz.ActionProjectUpdate), handler.Update)
		projects.POST("/:projectID/default", middleware.ResolveScope(resolver, fallbackEnabled), middleware.RequireAction(evaluator, authz.ActionProjectSetDefault), handler.SetDefault)
		projects.DELETE("/:projectID", middleware.ResolveScope(resolver, fallbackEnabled), middleware.RequireAction(evaluator, authz.ActionProjectDelete), handler.Delete)
	}

	// Legacy workspace shape: the project identifier may be omitted here.
	// With the fallback flag on, resolution substitutes the program's
	// default project; with it off the request fails with a scope error.
	api.GET("/programs/:programID/workspace",
		middleware.ResolveScope(resolver, fallbackEnabled),
		middleware.RequireAction(evaluator, authz.ActionProjectRead),
		handler.Workspace)

	return nil
}
