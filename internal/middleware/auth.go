package middleware

import (
	"strings"

	"proptoken-backend/internal/pkg/response"
	"proptoken-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// CallerHeader carries the identity of the principal making the call. The
// identity is trusted as given; authenticating it is the gateway's job.
const CallerHeader = "X-Caller-Identity"

const callerLocal = "caller"

// Identity copies the caller identity header into Locals.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := strings.TrimSpace(c.Get(CallerHeader))
		if caller != "" {
			c.Locals(callerLocal, caller)
		}
		return c.Next()
	}
}

// RequireCaller rejects requests without a well-formed caller identity.
func RequireCaller() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := GetCaller(c)
		if caller == "" {
			return response.Unauthorized(c, "Missing "+CallerHeader+" header")
		}
		if !validation.IsValidIdentity(caller) {
			return response.Error(c, "Invalid caller identity", fiber.StatusBadRequest, nil)
		}
		return c.Next()
	}
}

// GetCaller returns the caller identity ("" when absent).
func GetCaller(c *fiber.Ctx) string {
	caller, _ := c.Locals(callerLocal).(string)
	return caller
}
