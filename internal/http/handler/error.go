package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docspot/internal/http/middleware"
	"docspot/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload = middleware.ErrorPayload

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_REQUEST", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return middleware.WriteError(c, status, code, message)
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var serviceErrors = []errorMapping{
	{service.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "resource not found"},
	{service.ErrInvalidRequest, fiber.StatusBadRequest, "INVALID_REQUEST", "invalid request"},
	{service.ErrInsufficientBalance, fiber.StatusPaymentRequired, "INSUFFICIENT_BALANCE", "insufficient balance"},
	{service.ErrMissingAsset, fiber.StatusInternalServerError, "MISSING_ASSET", "document file is unavailable"},
	{service.ErrAlreadyExists, fiber.StatusConflict, "ALREADY_EXISTS", "resource already exists"},
	{service.ErrUploadFailed, fiber.StatusBadGateway, "UPLOAD_FAILED", "file could not be stored"},
}

// respondError writes the response of a known service error kind. Anything else is returned
// to the global ErrorHandler, which logs it and answers INTERNAL_ERROR.
func respondError(c *fiber.Ctx, err error) error {
	var te *service.TimeoutError
	if errors.As(err, &te) {
		// committed is omitted when the transfer outcome could not be determined.
		env := middleware.ErrorEnvelope{Code: "TIMEOUT", Message: "store call timed out"}
		if te.Committed == nil {
			env.Message = "store call timed out; transfer outcome unknown, check the wallet before retrying"
		} else {
			committed := *te.Committed
			env.Committed = &committed
		}
		return middleware.WriteErrorEnvelope(c, fiber.StatusGatewayTimeout, env)
	}
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			message := m.message
			// Validation messages name the offending field and are safe to return.
			if m.target == service.ErrInvalidRequest || m.target == service.ErrInsufficientBalance {
				message = err.Error()
			}
			return writeError(c, m.status, m.code, message)
		}
	}
	return err
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "INVALID_REQUEST", "request body too large")
		default:
			log.Error("request_failed",
				zap.String("request_id", middleware.RequestIDFromCtx(c)),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
