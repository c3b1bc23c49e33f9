package wallets

import (
	"proptoken-backend/internal/application/settlement"
	"proptoken-backend/internal/middleware"
	"proptoken-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *settlement.WalletService
}

type depositRequest struct {
	Identity string `json:"identity"`
	Amount   uint64 `json:"amount"`
}

// Deposit POST /api/v1/admin/wallets/deposit
func (h *Handlers) Deposit(c *fiber.Ctx) error {
	var body depositRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	balance, err := h.Service.Fund(c.UserContext(), middleware.GetCaller(c), body.Identity, body.Amount)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Wallet funded", fiber.Map{"identity": body.Identity, "balance": balance}, nil)
}

// Balance GET /api/v1/wallets/:identity
func (h *Handlers) Balance(c *fiber.Ctx) error {
	identity := c.Params("identity")
	balance, err := h.Service.Balance(c.UserContext(), identity)
	if err != nil {
		return middleware.RespondError(c, err)
	}
	return response.Success(c, "Wallet balance", fiber.Map{"identity": identity, "balance": balance}, nil)
}
