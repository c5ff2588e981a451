package procurement

import (
	"go-bizops/internal/middleware"
	"go-bizops/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	orders := r.Group("/purchase-orders")
	{
		orders.GET("", middleware.RBACAuthorize(rbacService, "procurement", "read"), handler.GetAll)
		orders.GET("/:id", middleware.RBACAuthorize(rbacService, "procurement", "read"), handler.GetById)
		orders.POST("", middleware.RBACAuthorize(rbacService, "procurement", "create"), handler.Create)
		orders.POST("/:id/act", middleware.RBACAuthorize(rbacService, "procurement", "approve"), handler.Act)
		orders.POST("/:id/receive", middleware.RBACAuthorize(rbacService, "procurement", "receive"), handler.ReceiveGoods)
	}
}
