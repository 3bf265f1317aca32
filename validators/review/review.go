package reviewValidator

import (
	"pgstay/middleware"
	"pgstay/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type CreateReviewRequest struct {
	ListingID uint   `json:"listingId" validate:"required"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

type ReviewListQuery struct {
	Page  int `query:"page" json:"page" validate:"gte=0,lte=100000"`
	Limit int `query:"limit" json:"limit" validate:"gte=0"`
}

// CreateReview validator middleware
func CreateReview() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateReviewRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Invalid request body!")
		}

		reqData.Comment = strings.TrimSpace(reqData.Comment)

		errors := validators.Check(reqData)
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedReview", reqData)
		return c.Next()
	}
}

// ListReviews validator middleware
func ListReviews() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ReviewListQuery)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Invalid query parameters!")
		}

		errors := validators.Check(reqData)
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedReviewQuery", reqData)
		return c.Next()
	}
}
