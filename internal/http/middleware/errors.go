package middleware

import "github.com/gofiber/fiber/v2"

// ErrorPayload is the standardized error response body.
type ErrorPayload struct {
	RequestID string        `json:"request_id"`
	Error     ErrorEnvelope `json:"error"`
}

// ErrorEnvelope carries a stable machine-readable code and a safe message.
// Committed is set on TIMEOUT when the purchase transfer outcome is known.
type ErrorEnvelope struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Committed *bool  `json:"committed,omitempty"`
}

// WriteError writes a standardized JSON error response. message must not carry internal details.
func WriteError(c *fiber.Ctx, status int, code, message string) error {
	return WriteErrorEnvelope(c, status, ErrorEnvelope{Code: code, Message: message})
}

// WriteErrorEnvelope writes env as the error body of a standardized response.
func WriteErrorEnvelope(c *fiber.Ctx, status int, env ErrorEnvelope) error {
	return c.Status(status).JSON(ErrorPayload{
		RequestID: RequestIDFromCtx(c),
		Error:     env,
	})
}
