package supplychain

import (
	"go-bizops/internal/middleware"
	"go-bizops/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	requests := r.Group("/supply-requests")
	{
		requests.GET("", middleware.RBACAuthorize(rbacService, "supplychain", "read"), handler.GetAll)
		requests.GET("/:id", middleware.RBACAuthorize(rbacService, "supplychain", "read"), handler.GetById)
		requests.POST("", middleware.RBACAuthorize(rbacService, "supplychain", "create"), handler.Create)
		requests.POST("/:id/act", middleware.RBACAuthorize(rbacService, "supplychain", "approve"), handler.Act)
		requests.POST("/:id/forward", middleware.RBACAuthorize(rbacService, "supplychain", "approve"), handler.ForwardToPurchase)
		requests.POST("/:id/issue", middleware.RBACAuthorize(rbacService, "supplychain", "issue"), handler.Issue)
	}
}
