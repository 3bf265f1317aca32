package uploadRoutes

import (
	mediaController "pgstay/controllers/media"
	"pgstay/middleware"
	"pgstay/models"
	uploadValidator "pgstay/validators/upload"

	"github.com/gofiber/fiber/v2"
)

func SetupUploadRoutes(api fiber.Router, h *mediaController.Handler, jwt fiber.Handler) {
	uploadGroup := api.Group("/uploads")

	uploadGroup.Post("/images", uploadValidator.Images(), jwt, middleware.RequireRole(models.RoleOwner), h.UploadImages)
}
