package admin

import (
	"proptoken-backend/internal/application/access"
	"proptoken-backend/internal/middleware"
	"proptoken-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the registry access-control routes.
type Handlers struct {
	Service *access.Service
}

// Pause POST /api/v1/admin/pause
func (h *Handlers) Pause(c *fiber.Ctx) error {
	if err := h.Service.Pause(c.UserContext(), middleware.GetCaller(c)); err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Registry paused", fiber.Map{"paused": true}, nil)
}

// Unpause POST /api/v1/admin/unpause
func (h *Handlers) Unpause(c *fiber.Ctx) error {
	if err := h.Service.Unpause(c.UserContext(), middleware.GetCaller(c)); err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Registry unpaused", fiber.Map{"paused": false}, nil)
}

// TransferAdministration POST /api/v1/admin/transfer-administration
func (h *Handlers) TransferAdministration(c *fiber.Ctx) error {
	var body struct {
		Administrator string `json:"administrator"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.TransferAdministration(c.UserContext(), middleware.GetCaller(c), body.Administrator); err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Administration transferred", fiber.Map{"administrator": body.Administrator}, nil)
}

// State GET /api/v1/admin/state
func (h *Handlers) State(c *fiber.Ctx) error {
	state, err := h.Service.State(c.UserContext())
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Registry state", state, nil)
}
