package leave

import (
	"go-bizops/internal/middleware"
	"go-bizops/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	leaves := r.Group("/leaves")
	{
		leaves.GET("", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetAll)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetById)
		leaves.POST("", middleware.RBACAuthorize(rbacService, "leave", "create"), handler.Submit)
		leaves.POST("/:id/act", middleware.RBACAuthorize(rbacService, "leave", "approve"), handler.Act)
	}
}
