package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/authz"
	"github.com/planvera/planvera/internal/handlers"
	"github.com/planvera/planvera/internal/middleware"
)

func registerAssignmentRoutes(api *gin.RouterGroup, db *gorm.DB, evaluator *authz.Evaluator) error {
	handler, err := handlers.NewAssignmentHandler(db)
	if err != nil {
		return err
	}

	assignments := api.Group("/assignments", middleware.TenantScope())
	{
		assignments.POST("", middleware.RequireAction(evaluator, authz.ActionAssignmentGrant), handler.Grant)
		assignments.DELETE("/:assignmentID", middleware.RequireAction(evaluator, authz.ActionAssignmentRevoke), handler.Revoke)
	}

	api.GET("/subjects/:subjectID/assignments",
		middleware.TenantScope(),
		middleware.RequireAction(evaluator, authz.ActionAssignmentView),
		handler.ListForSubject)

	return nil
}
