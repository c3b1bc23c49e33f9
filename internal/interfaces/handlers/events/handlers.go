package events

import (
	"strconv"

	eventsvc "proptoken-backend/internal/application/events"
	"proptoken-backend/internal/middleware"
	"proptoken-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Log *eventsvc.Log
}

// List GET /api/v1/events?property_id=&type=&after=&limit=
func (h *Handlers) List(c *fiber.Ctx) error {
	q := eventsvc.Query{EventType: c.Query("type")}
	if raw := c.Query("property_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return response.Error(c, "Invalid property_id", fiber.StatusBadRequest, nil)
		}
		q.PropertyID = &id
	}
	if raw := c.Query("after"); raw != "" {
		after, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return response.Error(c, "Invalid after cursor", fiber.StatusBadRequest, nil)
		}
		q.After = after
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return response.Error(c, "Invalid limit", fiber.StatusBadRequest, nil)
		}
		q.Limit = limit
	}

	list, err := h.Log.List(c.UserContext(), q)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	var next uint64
	if len(list) > 0 {
		next = list[len(list)-1].Sequence
	}
	return response.Page(c, "Events fetched successfully", list, len(list), next)
}
