package middleware

import (
	"context"
	"net/http"

	"go-bizops/internal/domain"
	"go-bizops/internal/shared/contextutil"
	"go-bizops/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// Enforcer is the slice of the rbac service this middleware needs.
type Enforcer interface {
	Enforce(ctx context.Context, req domain.EnforceRequest) (bool, error)
}

// RBACAuthorize gates a route on a resource/action pair. It runs after
// AuthMiddleware, so the actor identity is already on the request context.
func RBACAuthorize(enforcer Enforcer, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		employeeID := contextutil.GetActorID(ctx)
		role := contextutil.GetActorRole(ctx)
		if employeeID == "" || role == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "actor identity missing", nil)
			c.Abort()
			return
		}

		allowed, err := enforcer.Enforce(ctx, domain.EnforceRequest{
			EmployeeID: employeeID,
			Role:       role,
			Resource:   resource,
			Action:     action,
		})
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "authorization check failed", nil)
			c.Abort()
			return
		}
		if !allowed {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "insufficient permission for this action", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
