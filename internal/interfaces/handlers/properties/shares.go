package properties

import (
	"proptoken-backend/internal/middleware"
	"proptoken-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type purchaseRequest struct {
	Shares        uint64 `json:"shares"`
	TenderedValue uint64 `json:"tendered_value"`
}

// PurchaseShares POST /api/v1/properties/:id/purchase
func (h *Handlers) PurchaseShares(c *fiber.Ctx) error {
	id, ok := propertyID(c)
	if !ok {
		return invalidID(c)
	}
	var body purchaseRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	result, err := h.Shares.PurchaseShares(c.UserContext(), middleware.GetCaller(c), id, body.Shares, body.TenderedValue)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Shares purchased", result, nil)
}

type transferRequest struct {
	To     string `json:"to"`
	Shares uint64 `json:"shares"`
}

// TransferShares POST /api/v1/properties/:id/transfer
func (h *Handlers) TransferShares(c *fiber.Ctx) error {
	id, ok := propertyID(c)
	if !ok {
		return invalidID(c)
	}
	var body transferRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	from := middleware.GetCaller(c)
	if err := h.Shares.TransferShares(c.UserContext(), from, id, body.To, body.Shares); err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Transfer successful", fiber.Map{
		"property_id": id,
		"from":        from,
		"to":          body.To,
		"shares":      body.Shares,
	}, nil)
}

// GetPropertyInvestors GET /api/v1/properties/:id/investors
func (h *Handlers) GetPropertyInvestors(c *fiber.Ctx) error {
	id, ok := propertyID(c)
	if !ok {
		return invalidID(c)
	}
	investors, err := h.Shares.GetPropertyInvestors(c.UserContext(), id)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Page(c, "Investors fetched successfully", investors, len(investors), 0)
}

// GetShareOwnership GET /api/v1/properties/:id/ownership/:investor
func (h *Handlers) GetShareOwnership(c *fiber.Ctx) error {
	id, ok := propertyID(c)
	if !ok {
		return invalidID(c)
	}
	own, err := h.Shares.GetShareOwnership(c.UserContext(), id, c.Params("investor"))
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Ownership fetched successfully", own, nil)
}

// GetInvestorShares GET /api/v1/properties/:id/shares/:investor
func (h *Handlers) GetInvestorShares(c *fiber.Ctx) error {
	id, ok := propertyID(c)
	if !ok {
		return invalidID(c)
	}
	investor := c.Params("investor")
	n, err := h.Shares.GetInvestorShares(c.UserContext(), id, investor)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Shares fetched successfully", fiber.Map{
		"property_id": id,
		"investor":    investor,
		"shares":      n,
	}, nil)
}

// GetInvestorPortfolio GET /api/v1/investors/:investor/portfolio
func (h *Handlers) GetInvestorPortfolio(c *fiber.Ctx) error {
	holdings, err := h.Shares.GetInvestorPortfolio(c.UserContext(), c.Params("investor"))
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Page(c, "Portfolio fetched successfully", holdings, len(holdings), 0)
}
