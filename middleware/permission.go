package middleware

import (
	"errors"
	"pgstay/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ListingOwnerMiddleware loads the listing named by :id and lets the request
// through only when the caller owns it. A listing owned by someone else is
// reported as missing. The loaded record is stored under "listing".
func ListingOwnerMiddleware(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get user ID from context (set by JWTMiddleware)
		userID := UserID(c)
		if userID == 0 {
			return MessageResponse(c, fiber.StatusUnauthorized, "Unauthorized: User ID not found")
		}

		listingID, err := c.ParamsInt("id")
		if err != nil || listingID < 1 {
			return MessageResponse(c, fiber.StatusNotFound, "Listing not found")
		}

		var listing models.Listing
		err = db.WithContext(c.UserContext()).
			Where("id = ? AND owner_id = ?", listingID, userID).
			First(&listing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MessageResponse(c, fiber.StatusNotFound, "Listing not found")
		}
		if err != nil {
			return err
		}

		c.Locals("listing", &listing)
		return c.Next()
	}
}
