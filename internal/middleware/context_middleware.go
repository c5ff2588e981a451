package middleware

import (
	"go-bizops/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextLogger attaches a request-scoped logger carrying the request id
// and actor fields so every downstream log line can be correlated.
func ContextLogger(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		fields := []zap.Field{
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
		}
		if actorID := contextutil.GetActorID(ctx); actorID != "" {
			fields = append(fields, zap.String("actor_id", actorID))
		}

		scoped := base.With(fields...)
		c.Request = c.Request.WithContext(contextutil.WithLogger(ctx, scoped))

		c.Next()
	}
}
