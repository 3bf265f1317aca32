package ownerRoutes

import (
	listingController "pgstay/controllers/listing"
	ownerController "pgstay/controllers/owner"
	"pgstay/middleware"
	"pgstay/models"

	"github.com/gofiber/fiber/v2"
)

func SetupOwnerRoutes(api fiber.Router, h *ownerController.Handler, listings *listingController.Handler, jwt fiber.Handler) {
	ownerGroup := api.Group("/owners", jwt, middleware.RequireRole(models.RoleOwner))

	ownerGroup.Get("/dashboard/summary", h.DashboardSummary)
	ownerGroup.Get("/listings", listings.OwnerListings)
}
