package properties

import (
	"strconv"

	"proptoken-backend/internal/application/registry"
	"proptoken-backend/internal/application/shares"
	"proptoken-backend/internal/middleware"
	"proptoken-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the property registry and share ledger routes.
type Handlers struct {
	Registry *registry.Service
	Shares   *shares.Service
}

func propertyID(c *fiber.Ctx) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func invalidID(c *fiber.Ctx) error {
	return response.Error(c, "Invalid property id", fiber.StatusBadRequest, nil)
}

type tokenizeRequest struct {
	Address     string `json:"address"`
	TotalValue  uint64 `json:"total_value"`
	TotalShares uint64 `json:"total_shares"`
	MetadataURI string `json:"metadata_uri"`
}

// TokenizeProperty POST /api/v1/properties
func (h *Handlers) TokenizeProperty(c *fiber.Ctx) error {
	var body tokenizeRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	p, err := h.Registry.TokenizeProperty(c.UserContext(), middleware.GetCaller(c), registry.TokenizeInput{
		Address:     body.Address,
		TotalValue:  body.TotalValue,
		TotalShares: body.TotalShares,
		MetadataURI: body.MetadataURI,
	})
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.SuccessCreated(c, "Property tokenized", p, nil)
}

// ListProperties GET /api/v1/properties?active=true
func (h *Handlers) ListProperties(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active", false)
	list, err := h.Registry.ListProperties(c.UserContext(), activeOnly)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Page(c, "Properties fetched successfully", list, len(list), 0)
}

// GetCurrentID GET /api/v1/properties/current-id
func (h *Handlers) GetCurrentID(c *fiber.Ctx) error {
	id, err := h.Registry.GetCurrentID(c.UserContext())
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Current property id", fiber.Map{"current_id": id}, nil)
}

// GetProperty GET /api/v1/properties/:id
func (h *Handlers) GetProperty(c *fiber.Ctx) error {
	id, ok := propertyID(c)
	if !ok {
		return invalidID(c)
	}
	p, err := h.Registry.GetProperty(c.UserContext(), id)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Property fetched successfully", p, nil)
}

// DeactivateProperty POST /api/v1/properties/:id/deactivate
func (h *Handlers) DeactivateProperty(c *fiber.Ctx) error {
	id, ok := propertyID(c)
	if !ok {
		return invalidID(c)
	}
	if err := h.Registry.DeactivateProperty(c.UserContext(), middleware.GetCaller(c), id); err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Property deactivated", fiber.Map{"property_id": id, "is_active": false}, nil)
}

// WithdrawUnsoldShares POST /api/v1/properties/:id/withdraw-unsold
func (h *Handlers) WithdrawUnsoldShares(c *fiber.Ctx) error {
	id, ok := propertyID(c)
	if !ok {
		return invalidID(c)
	}
	count, err := h.Registry.WithdrawUnsoldShares(c.UserContext(), middleware.GetCaller(c), id)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Unsold shares withdrawn", fiber.Map{"property_id": id, "withdrawn": count}, nil)
}

// UpdateMetadataURI PATCH /api/v1/properties/:id/metadata
func (h *Handlers) UpdateMetadataURI(c *fiber.Ctx) error {
	id, ok := propertyID(c)
	if !ok {
		return invalidID(c)
	}
	var body struct {
		MetadataURI *string `json:"metadata_uri"`
	}
	if err := c.BodyParser(&body); err != nil || body.MetadataURI == nil {
		return response.Error(c, "metadata_uri is required", fiber.StatusBadRequest, nil)
	}
	if err := h.Registry.UpdateMetadataURI(c.UserContext(), middleware.GetCaller(c), id, *body.MetadataURI); err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Metadata updated", fiber.Map{"property_id": id, "metadata_uri": *body.MetadataURI}, nil)
}
