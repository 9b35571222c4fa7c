package handler

import (
	"github.com/gofiber/fiber/v2"

	"docspot/internal/http/middleware"
	"docspot/internal/service"
)

// CreateWallet godoc
// @Summary Open the caller's wallet
// @Description Called once by the signup flow. The wallet starts with the configured balance.
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 201 {object} model.Wallet
// @Failure 409 {object} middleware.ErrorPayload
// @Router /wallet [post]
func CreateWallet(svc service.WalletService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		w, err := svc.Provision(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(w)
	}
}

// GetWallet godoc
// @Summary Get the caller's wallet with its transaction history
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Wallet
// @Failure 404 {object} middleware.ErrorPayload
// @Router /wallet [get]
func GetWallet(svc service.WalletService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		w, err := svc.Get(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(w)
	}
}
