package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-bizops/internal/shared/apperror"
	"go-bizops/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyLockTTL  = 30 * time.Second
	idempotencyCacheTTL = 24 * time.Hour
)

// responseRecorder tees the response body so the middleware can cache it
// after the handler finishes.
type responseRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the cached response for a POST carrying an
// Idempotency-Key the caller already submitted, and rejects a concurrent
// duplicate while the first attempt is still in flight. On a successful
// first attempt the response payload is cached and the lock released; a
// failed attempt only releases the lock so the caller can retry. The lock
// expires on its own so a crashed worker never wedges the key.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		actorID := c.GetString("employee_id")
		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), actorID, idempKey)
		lockKey := cacheKey + ":lock"

		val, err := rdb.Get(c.Request.Context(), cacheKey).Result()
		if err == nil {
			var cached any
			if json.Unmarshal([]byte(val), &cached) == nil {
				response.Success(c, http.StatusOK, cached, nil)
				c.Abort()
				return
			}
		}

		isNew, _ := rdb.SetNX(c.Request.Context(), lockKey, "locked", idempotencyLockTTL).Result()
		if !isNew {
			response.Error(c, http.StatusConflict, apperror.CodeConflict,
				"a request with this idempotency key is already being processed", nil)
			c.Abort()
			return
		}

		recorder := &responseRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder

		c.Next()

		ctx := c.Request.Context()
		if recorder.Status() >= http.StatusOK && recorder.Status() < http.StatusMultipleChoices {
			// Cache only the payload; the replay branch rebuilds the envelope.
			var envelope struct {
				Ok   bool            `json:"ok"`
				Data json.RawMessage `json:"data"`
			}
			if json.Unmarshal(recorder.body.Bytes(), &envelope) == nil && envelope.Ok && len(envelope.Data) > 0 {
				_ = rdb.Set(ctx, cacheKey, string(envelope.Data), idempotencyCacheTTL).Err()
			}
		}
		_ = rdb.Del(ctx, lockKey).Err()
	}
}
