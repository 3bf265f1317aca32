package reviewRoutes

import (
	reviewController "pgstay/controllers/review"
	reviewValidator "pgstay/validators/review"

	"github.com/gofiber/fiber/v2"
)

func SetupReviewRoutes(api fiber.Router, h *reviewController.Handler, jwt fiber.Handler) {
	reviewGroup := api.Group("/reviews")

	reviewGroup.Post("/", reviewValidator.CreateReview(), jwt, h.CreateReview)
	reviewGroup.Get("/listing/:listingId", reviewValidator.ListReviews(), h.ListingReviews)
	reviewGroup.Delete("/:id", jwt, h.DeleteReview)
}
