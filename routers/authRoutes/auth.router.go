package authRoutes

import (
	authController "pgstay/controllers/auth"
	authValidator "pgstay/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(api fiber.Router, h *authController.Handler, jwt fiber.Handler) {
	authGroup := api.Group("/auth")

	authGroup.Post("/register", authValidator.Register(), h.Register)
	authGroup.Post("/login", authValidator.Login(), h.Login)
	authGroup.Post("/refresh", h.Refresh)
	authGroup.Post("/logout", h.Logout)
	authGroup.Get("/me", jwt, h.Me)
	authGroup.Patch("/me", authValidator.UpdateProfile(), jwt, h.UpdateMe)
	authGroup.Patch("/role", authValidator.SwitchRole(), jwt, h.SwitchRole)
}
