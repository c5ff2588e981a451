package payroll

import (
	"go-bizops/internal/middleware"
	"go-bizops/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	runs := r.Group("/payroll-runs")
	{
		runs.GET("", middleware.RBACAuthorize(rbacService, "payroll", "read"), handler.GetAll)
		runs.GET("/:id", middleware.RBACAuthorize(rbacService, "payroll", "read"), handler.GetById)
		runs.POST("", middleware.RBACAuthorize(rbacService, "payroll", "create"), handler.Run)
	}
}
