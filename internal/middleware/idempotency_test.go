package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-bizops/internal/middleware"
	"go-bizops/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func newIdempotencyRouter(t *testing.T, handler gin.HandlerFunc) (*gin.Engine, redismock.ClientMock, *int) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rdb, mock := redismock.NewClientMock()

	handlerCalls := 0
	router := gin.New()
	router.POST("/payments",
		func(c *gin.Context) {
			c.Set("employee_id", "emp-1")
			c.Next()
		},
		middleware.Idempotency(rdb),
		func(c *gin.Context) {
			handlerCalls++
			handler(c)
		},
	)

	return router, mock, &handlerCalls
}

func successHandler(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"order_number": "PO-000001"}, nil)
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	router, mock, handlerCalls := newIdempotencyRouter(t, successHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, *handlerCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_ReplaysCachedResponse(t *testing.T) {
	router, mock, handlerCalls := newIdempotencyRouter(t, successHandler)

	cacheKey := "idemp:/payments:emp-1:key-123"
	mock.ExpectGet(cacheKey).SetVal(`{"order_number":"PO-000001"}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments", nil)
	req.Header.Set("Idempotency-Key", "key-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "PO-000001")
	assert.Equal(t, 0, *handlerCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_RejectsConcurrentDuplicate(t *testing.T) {
	router, mock, handlerCalls := newIdempotencyRouter(t, successHandler)

	cacheKey := "idemp:/payments:emp-1:key-123"
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments", nil)
	req.Header.Set("Idempotency-Key", "key-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already being processed")
	assert.Equal(t, 0, *handlerCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_CachesResponseAndReleasesLock(t *testing.T) {
	router, mock, handlerCalls := newIdempotencyRouter(t, successHandler)

	cacheKey := "idemp:/payments:emp-1:key-123"
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(true)
	mock.ExpectSet(cacheKey, `{"order_number":"PO-000001"}`, 24*time.Hour).SetVal("OK")
	mock.ExpectDel(cacheKey + ":lock").SetVal(1)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments", nil)
	req.Header.Set("Idempotency-Key", "key-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, *handlerCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_FailureReleasesLockWithoutCaching(t *testing.T) {
	router, mock, handlerCalls := newIdempotencyRouter(t, func(c *gin.Context) {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "order creation failed", nil)
	})

	cacheKey := "idemp:/payments:emp-1:key-123"
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(true)
	mock.ExpectDel(cacheKey + ":lock").SetVal(1)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments", nil)
	req.Header.Set("Idempotency-Key", "key-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, *handlerCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}
