package task

import (
	"go-bizops/internal/middleware"
	"go-bizops/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	tasks := r.Group("/tasks")
	{
		tasks.GET("", middleware.RBACAuthorize(rbacService, "task", "read"), handler.GetAll)
		tasks.GET("/:id", middleware.RBACAuthorize(rbacService, "task", "read"), handler.GetById)
		tasks.POST("", middleware.RBACAuthorize(rbacService, "task", "create"), handler.Create)
		tasks.POST("/:id/act", middleware.RBACAuthorize(rbacService, "task", "update"), handler.Act)
	}
}
