package rbac

import (
	"net/http"

	"go-bizops/internal/shared/apperror"
	"go-bizops/internal/shared/contextutil"
	"go-bizops/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("rbac.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.handler")
	}
	return &Handler{service: service, logger: l}
}

// AccessibleModules reports what the calling role may touch; the UI
// uses it to decide which console modules to render.
func (h *Handler) AccessibleModules(c *gin.Context) {
	role := contextutil.GetActorRole(c.Request.Context())
	if role == "" {
		httpErr := apperror.ToHTTP(apperror.ErrUnauthorized)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	modules, err := h.service.AccessibleModules(c.Request.Context(), role)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, modules, nil)
}
