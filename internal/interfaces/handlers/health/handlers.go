package health

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	healthsvc "proptoken-backend/internal/application/health"
	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const serviceName = "proptoken-ledger-api"

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Rdb                *redis.Client
	DB                 healthsvc.DBPinger
	Store              *ledger.Store
	SettlementProvider string
	HealthAdminKey     string
}

// Reset clears health stats in Redis. Requires query key=HEALTH_ADMIN_KEY.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" || key != h.HealthAdminKey {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	if h.Rdb == nil {
		return response.Error(c, "Redis is not configured", fiber.StatusServiceUnavailable, nil)
	}
	ctx := context.Background()
	if err := h.Rdb.Del(ctx, healthsvc.AllKeys...).Err(); err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	if err := h.Rdb.Set(ctx, healthsvc.KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0).Err(); err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}

// JSON returns service status, runtime, traffic, ledger and dependency data.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	info := healthsvc.LedgerInfo{SettlementProvider: h.SettlementProvider}
	if h.Store != nil {
		info.GuardHeld = h.Store.Guard().Held()
	}
	result := healthsvc.CollectHealth(context.Background(), h.Rdb, h.DB, info)
	return c.JSON(fiber.Map{
		"service":      serviceName,
		"status":       result.Status,
		"runtime":      result.Runtime,
		"traffic":      result.Traffic,
		"ledger":       result.Ledger,
		"dependencies": result.Dependencies,
	})
}

// Errors returns the last 50 error log entries from Redis.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	if h.Rdb == nil {
		return c.JSON([]interface{}{})
	}
	entries, err := h.Rdb.LRange(context.Background(), healthsvc.KeyErrorLog, 0, 49).Result()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON([]interface{}{})
	}
	errors := make([]map[string]interface{}, 0, len(entries))
	for _, s := range entries {
		var m map[string]interface{}
		if _ = json.Unmarshal([]byte(s), &m); m != nil {
			errors = append(errors, m)
		}
	}
	return c.JSON(errors)
}
