package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"proptoken-backend/internal/application/health"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const errorLogSize = 50

// HealthMarker records request stats in Redis (skips /health*, /metrics, favicon).
// 5xx responses are also pushed onto the bounded error log.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil {
			return c.Next()
		}
		path := c.Path()
		if strings.HasPrefix(path, "/health") || path == "/metrics" || path == "/reset" || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		start := time.Now()
		lastReq := map[string]interface{}{
			"time":   start,
			"ip":     c.IP(),
			"path":   c.OriginalURL(),
			"method": c.Method(),
		}
		b, _ := json.Marshal(lastReq)
		ctx := context.Background()
		_, _ = rdb.Set(ctx, health.KeyLastReq, b, 0).Result()
		_, _ = rdb.Incr(ctx, health.KeyReqTotal).Result()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = StatusFor(err)
		}
		ms := time.Since(start).Milliseconds()
		_, _ = rdb.Incr(ctx, health.KeyResCount).Result()
		_, _ = rdb.IncrByFloat(ctx, health.KeyResTime, float64(ms)).Result()
		if status >= 500 {
			_, _ = rdb.Incr(ctx, health.KeyReqErrors).Result()
			entry, _ := json.Marshal(map[string]interface{}{
				"time":     time.Now().UTC(),
				"path":     c.OriginalURL(),
				"method":   c.Method(),
				"status":   status,
				"trace_id": GetTraceID(c),
			})
			pipe := rdb.TxPipeline()
			pipe.LPush(ctx, health.KeyErrorLog, entry)
			pipe.LTrim(ctx, health.KeyErrorLog, 0, errorLogSize-1)
			_, _ = pipe.Exec(ctx)
		}
		return err
	}
}
