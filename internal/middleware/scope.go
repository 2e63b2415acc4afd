package middleware

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"github.com/planvera/planvera/internal/scope"
	"github.com/planvera/planvera/pkg/errors"
	"github.com/planvera/planvera/pkg/response"
)

// CtxScopeKey holds the resolved scope for the current request.
const CtxScopeKey = "resolvedScope"

// ResolveScope resolves a project-level scope from the route parameters and
// stores it in the request context. The tenant always comes from the
// authenticated claims; program and project identifiers come from the path
// and, for the transitional fallback shape, the project may be omitted.
func ResolveScope(resolver *scope.Resolver, fallbackEnabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetString(CtxTenantIDKey)
		if tenantID == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		projectID := c.Param("projectID")
		if projectID == "" {
			projectID = c.Query("project_id")
		}

		sc, err := resolver.Resolve(c.Request.Context(), scope.Input{
			TenantID:        tenantID,
			ProgramID:       c.Param("programID"),
			ProjectID:       projectID,
			FallbackEnabled: fallbackEnabled,
		})
		if err != nil {
			response.Error(c, ScopeError(err))
			c.Abort()
			return
		}

		c.Set(CtxScopeKey, sc)
		c.Next()
	}
}

// ResolveProgramScope resolves a program-level scope for aggregate views.
// This shape never falls back to a default project.
func ResolveProgramScope(resolver *scope.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetString(CtxTenantIDKey)
		if tenantID == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		sc, err := resolver.ResolveProgram(c.Request.Context(), tenantID, c.Param("programID"))
		if err != nil {
			response.Error(c, ScopeError(err))
			c.Abort()
			return
		}

		c.Set(CtxScopeKey, sc)
		c.Next()
	}
}

// TenantScope sets a tenant-level scope without store lookups. Routes that
// target a specific tenant carry it in the path; everything else operates on
// the caller's home tenant.
func TenantScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.Param("tenantID")
		if tenantID == "" {
			tenantID = c.GetString(CtxTenantIDKey)
		}
		if tenantID == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxScopeKey, scope.Tenant(tenantID))
		c.Next()
	}
}

// ScopeFromContext extracts the resolved scope set by one of the resolution
// middlewares.
func ScopeFromContext(c *gin.Context) (scope.Scope, bool) {
	v, ok := c.Get(CtxScopeKey)
	if !ok {
		return scope.Scope{}, false
	}
	sc, ok := v.(scope.Scope)
	return sc, ok && !sc.IsZero()
}

// ScopeError maps the scope error taxonomy onto API errors.
func ScopeError(err error) error {
	switch {
	case stderrors.Is(err, scope.ErrMissingScope):
		return errors.ErrMissingScope.WithInternal(err)
	case stderrors.Is(err, scope.ErrScopeViolation):
		return errors.ErrScopeViolation.WithInternal(err)
	case stderrors.Is(err, scope.ErrScopeIntegrity):
		return errors.ErrScopeIntegrity.WithInternal(err)
	case stderrors.Is(err, scope.ErrLookupTimeout):
		return errors.ErrLookupTimeout.WithInternal(err)
	default:
		return errors.ErrInternalServer.WithInternal(err)
	}
}
