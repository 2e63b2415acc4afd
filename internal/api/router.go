package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/app"
	iauth "github.com/planvera/planvera/internal/auth"
	"github.com/planvera/planvera/internal/authz"
	"github.com/planvera/planvera/internal/handlers"
	"github.com/planvera/planvera/internal/middleware"
	"github.com/planvera/planvera/internal/scope"
	"github.com/planvera/planvera/internal/services"
	"github.com/planvera/planvera/internal/store"
)

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(db))
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler, err := handlers.NewAuthHandler(db, jwt)
	if err != nil {
		return nil, err
	}

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	// Scope resolution and authorization pipeline: every protected
	// operation resolves its scope first, then evaluates the capability.
	st, err := store.New(db)
	if err != nil {
		return nil, err
	}
	resolver, err := scope.NewResolver(st)
	if err != nil {
		return nil, err
	}
	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	evaluator, err := authz.NewEvaluator(st, auditSvc)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))

	api.GET("/auth/me", authHandler.Me)

	fallbackEnabled := cfg.Features.ScopeFallback.Enabled

	if err := registerTenantRoutes(api, db, evaluator); err != nil {
		return nil, err
	}
	if err := registerProgramRoutes(api, db, resolver, evaluator); err != nil {
		return nil, err
	}
	if err := registerProjectRoutes(api, db, resolver, evaluator, fallbackEnabled); err != nil {
		return nil, err
	}
	if err := registerAssignmentRoutes(api, db, evaluator); err != nil {
		return nil, err
	}
	if err := registerAuditRoutes(api, db, evaluator); err != nil {
		return nil, err
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
