package attendance

import (
	"go-bizops/internal/middleware"
	"go-bizops/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	attendances := r.Group("/attendances")
	{
		attendances.GET("", middleware.RBACAuthorize(rbacService, "attendance", "read"), handler.GetAll)
		attendances.POST("/clock-in", middleware.RBACAuthorize(rbacService, "attendance", "create"), handler.ClockIn)
		attendances.POST("/clock-out", middleware.RBACAuthorize(rbacService, "attendance", "update"), handler.ClockOut)
	}
}
