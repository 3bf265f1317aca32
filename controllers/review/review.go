package reviewController

import (
	"errors"
	"pgstay/middleware"
	"pgstay/models"
	"pgstay/utils"
	reviewValidator "pgstay/validators/review"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Handler struct {
	DB  *gorm.DB
	Log *logrus.Logger
}

// CreateReview stores the caller's single review of a listing and refreshes
// the listing's rating aggregate.
func (h *Handler) CreateReview(c *fiber.Ctx) error {
	reqData := c.Locals("validatedReview").(*reviewValidator.CreateReviewRequest)
	db := h.DB.WithContext(c.UserContext())
	userID := middleware.UserID(c)

	var listing models.Listing
	err := db.Select("id").First(&listing, reqData.ListingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "Listing not found")
	}
	if err != nil {
		return err
	}

	var count int64
	err = db.Model(&models.Review{}).
		Where("listing_id = ? AND user_id = ?", listing.ID, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return middleware.MessageResponse(c, fiber.StatusConflict, "You have already reviewed this listing")
	}

	review := models.Review{
		ListingID: listing.ID,
		UserID:    userID,
		Rating:    reqData.Rating,
		Comment:   reqData.Comment,
	}
	if err := db.Create(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.MessageResponse(c, fiber.StatusConflict, "You have already reviewed this listing")
		}
		return err
	}

	summary := h.recompute(c, listing.ID)
	return middleware.JsonResponse(c, fiber.StatusCreated, fiber.Map{
		"review":      review,
		"avgRating":   summary.AvgRating,
		"ratingCount": summary.RatingCount,
	})
}

func (h *Handler) ListingReviews(c *fiber.Ctx) error {
	q := c.Locals("validatedReviewQuery").(*reviewValidator.ReviewListQuery)
	listingID, err := c.ParamsInt("listingId")
	if err != nil || listingID < 1 {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "Listing not found")
	}
	page := utils.NewPage(q.Page, q.Limit, 10, 50)
	db := h.DB.WithContext(c.UserContext())

	var total int64
	if err := db.Model(&models.Review{}).Where("listing_id = ?", listingID).Count(&total).Error; err != nil {
		return err
	}

	reviews := []models.Review{}
	err = db.
		Where("listing_id = ?", listingID).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, avatar")
		}).
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&reviews).Error
	if err != nil {
		return err
	}

	return middleware.JsonResponse(c, fiber.StatusOK, utils.Paginated(reviews, total, page))
}

// DeleteReview removes one of the caller's reviews
func (h *Handler) DeleteReview(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "Review not found")
	}
	db := h.DB.WithContext(c.UserContext())

	var review models.Review
	err = db.Where("id = ? AND user_id = ?", id, middleware.UserID(c)).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "Review not found")
	}
	if err != nil {
		return err
	}

	if err := db.Delete(&review).Error; err != nil {
		return err
	}

	summary := h.recompute(c, review.ListingID)
	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{
		"message":     "Review deleted",
		"avgRating":   summary.AvgRating,
		"ratingCount": summary.RatingCount,
	})
}

// recompute refreshes the listing aggregate. A failure leaves the stored value
// stale until the next review write or the reconcile job.
func (h *Handler) recompute(c *fiber.Ctx, listingID uint) utils.RatingSummary {
	summary, err := utils.RecomputeListingRating(c.UserContext(), h.DB, listingID)
	if err != nil {
		h.Log.WithError(err).WithField("listingId", listingID).Error("rating recompute failed")
	}
	return summary
}
