package middleware

import (
	"errors"

	"proptoken-backend/internal/application/ledger"
	"proptoken-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

var ledgerStatus = map[ledger.Kind]int{
	ledger.KindValidation:    fiber.StatusBadRequest,
	ledger.KindAuthorization: fiber.StatusForbidden,
	ledger.KindNotFound:      fiber.StatusNotFound,
	ledger.KindState:         fiber.StatusConflict,
	ledger.KindPayment:       fiber.StatusPaymentRequired,
	ledger.KindSettlement:    fiber.StatusBadGateway,
	ledger.KindReentrancy:    fiber.StatusConflict,
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	if kind, ok := ledger.KindOf(err); ok {
		if code, ok := ledgerStatus[kind]; ok {
			return code
		}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// RespondError writes err in the standard error format. Ledger errors keep their
// message and expose their kind; anything else is reported as a 500.
func RespondError(c *fiber.Ctx, err error) error {
	code := StatusFor(err)
	if kind, ok := ledger.KindOf(err); ok {
		return response.Error(c, err.Error(), code, map[string]interface{}{"kind": string(kind)})
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Message, fe.Code, nil)
	}
	log.Error().Err(err).Str("trace_id", GetTraceID(c)).Str("path", c.Path()).Msg("Unhandled error")
	return response.Error(c, "Internal Server Error", code, nil)
}

// ErrorHandler is the global error handler. Returns the standard error format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return RespondError(c, err)
}
