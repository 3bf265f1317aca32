package listingController

import (
	"errors"
	"pgstay/middleware"
	"pgstay/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ToggleFavorite adds the listing to the caller's favorites, or removes it
// when it is already there.
func (h *Handler) ToggleFavorite(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "Listing not found")
	}
	db := h.DB.WithContext(c.UserContext())
	userID := middleware.UserID(c)

	var listing models.Listing
	err = db.Select("id").First(&listing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "Listing not found")
	}
	if err != nil {
		return err
	}

	var count int64
	err = db.Table("user_favorites").
		Where("user_id = ? AND listing_id = ?", userID, listing.ID).
		Count(&count).Error
	if err != nil {
		return err
	}

	user := models.User{Base: models.Base{ID: userID}}
	association := db.Model(&user).Omit("Favorites.*").Association("Favorites")
	favorited := count == 0
	if favorited {
		err = association.Append(&listing)
	} else {
		err = association.Delete(&listing)
	}
	if err != nil {
		return err
	}

	var ids []uint
	err = db.Table("user_favorites").
		Where("user_id = ?", userID).
		Order("listing_id").
		Pluck("listing_id", &ids).Error
	if err != nil {
		return err
	}
	if ids == nil {
		ids = []uint{}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{
		"favorited": favorited,
		"favorites": ids,
	})
}

func (h *Handler) ListFavorites(c *fiber.Ctx) error {
	listings := []models.Listing{}
	err := h.DB.WithContext(c.UserContext()).
		Joins("JOIN user_favorites ON user_favorites.listing_id = listings.id").
		Where("user_favorites.user_id = ?", middleware.UserID(c)).
		Order("listings.id DESC").
		Find(&listings).Error
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"items": listings})
}
