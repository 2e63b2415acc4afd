package middleware

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"github.com/planvera/planvera/internal/authz"
	"github.com/planvera/planvera/internal/scope"
	"github.com/planvera/planvera/pkg/errors"
	"github.com/planvera/planvera/pkg/response"
)

// RequireAction authorizes the authenticated subject for the action within
// the scope resolved earlier in the chain. Resolution must have succeeded
// before evaluation begins; a missing scope is a programming error in the
// route wiring and fails closed.
func RequireAction(evaluator *authz.Evaluator, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(CtxUserIDKey)
		if userID == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		sc, ok := ScopeFromContext(c)
		if !ok {
			response.Error(c, errors.ErrInternalServer.WithInternal(
				stderrors.New("route registered without scope resolution")))
			c.Abort()
			return
		}

		decision, err := evaluator.Authorize(c.Request.Context(), userID, action, sc)
		if err != nil {
			if stderrors.Is(err, scope.ErrLookupTimeout) {
				response.Error(c, errors.ErrLookupTimeout.WithInternal(err))
			} else {
				response.Error(c, errors.ErrInternalServer.WithInternal(err))
			}
			c.Abort()
			return
		}
		if !decision.Allowed {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
