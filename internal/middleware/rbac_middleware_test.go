package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-bizops/internal/domain"
	"go-bizops/internal/middleware"
	"go-bizops/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeEnforcer struct {
	enforceFn func(ctx context.Context, req domain.EnforceRequest) (bool, error)
}

func (f *fakeEnforcer) Enforce(ctx context.Context, req domain.EnforceRequest) (bool, error) {
	return f.enforceFn(ctx, req)
}

func newRBACRouter(t *testing.T, actorID, role string, enforcer *fakeEnforcer) (*gin.Engine, *int) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handlerCalls := 0
	router := gin.New()
	router.GET("/inventory",
		func(c *gin.Context) {
			if actorID != "" || role != "" {
				ctx := contextutil.WithActor(c.Request.Context(), actorID, role)
				c.Request = c.Request.WithContext(ctx)
			}
			c.Next()
		},
		middleware.RBACAuthorize(enforcer, "inventory", "read"),
		func(c *gin.Context) {
			handlerCalls++
			c.Status(http.StatusOK)
		},
	)

	return router, &handlerCalls
}

func TestRBACAuthorize_AllowsPermittedActor(t *testing.T) {
	var captured domain.EnforceRequest
	enforcer := &fakeEnforcer{
		enforceFn: func(ctx context.Context, req domain.EnforceRequest) (bool, error) {
			captured = req
			return true, nil
		},
	}
	router, handlerCalls := newRBACRouter(t, "emp-1", "STORE_MANAGER", enforcer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/inventory", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, *handlerCalls)
	assert.Equal(t, "emp-1", captured.EmployeeID)
	assert.Equal(t, "STORE_MANAGER", captured.Role)
	assert.Equal(t, "inventory", captured.Resource)
	assert.Equal(t, "read", captured.Action)
}

func TestRBACAuthorize_DeniesWithoutPermission(t *testing.T) {
	enforcer := &fakeEnforcer{
		enforceFn: func(ctx context.Context, req domain.EnforceRequest) (bool, error) {
			return false, nil
		},
	}
	router, handlerCalls := newRBACRouter(t, "emp-1", "EMPLOYEE", enforcer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/inventory", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, *handlerCalls)
}

func TestRBACAuthorize_RejectsMissingIdentity(t *testing.T) {
	enforcer := &fakeEnforcer{
		enforceFn: func(ctx context.Context, req domain.EnforceRequest) (bool, error) {
			t.Fatal("enforce should not be called without an actor")
			return false, nil
		},
	}
	router, handlerCalls := newRBACRouter(t, "", "", enforcer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/inventory", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, *handlerCalls)
}

func TestRBACAuthorize_SurfacesEnforcerError(t *testing.T) {
	enforcer := &fakeEnforcer{
		enforceFn: func(ctx context.Context, req domain.EnforceRequest) (bool, error) {
			return false, errors.New("policy load failed")
		},
	}
	router, handlerCalls := newRBACRouter(t, "emp-1", "EMPLOYEE", enforcer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/inventory", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 0, *handlerCalls)
}
