package listingRoutes

import (
	listingController "pgstay/controllers/listing"
	"pgstay/middleware"
	"pgstay/models"
	listingValidator "pgstay/validators/listing"

	"github.com/gofiber/fiber/v2"
)

func SetupListingRoutes(api fiber.Router, h *listingController.Handler, jwt fiber.Handler) {
	listingGroup := api.Group("/listings")
	ownerOnly := middleware.RequireRole(models.RoleOwner)
	ownsListing := middleware.ListingOwnerMiddleware(h.DB)

	// Static paths first so they are not captured by /:id
	listingGroup.Get("/", listingValidator.ListListings(), h.ListListings)
	listingGroup.Get("/nearby", listingValidator.Nearby(), h.Nearby)
	listingGroup.Get("/favorites", jwt, h.ListFavorites)

	listingGroup.Post("/", listingValidator.CreateListing(), jwt, ownerOnly, h.CreateListing)
	listingGroup.Get("/:id", h.GetListing)
	listingGroup.Put("/:id", listingValidator.UpdateListing(), jwt, ownerOnly, ownsListing, h.UpdateListing)
	listingGroup.Patch("/:id", listingValidator.UpdateListing(), jwt, ownerOnly, ownsListing, h.UpdateListing)
	listingGroup.Delete("/:id", jwt, ownerOnly, ownsListing, h.DeleteListing)
	listingGroup.Post("/:id/favorite", jwt, h.ToggleFavorite)
}
