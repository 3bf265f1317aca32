package ownerController

import (
	"database/sql"
	"math"
	"pgstay/middleware"
	"pgstay/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

type Handler struct {
	DB *gorm.DB
}

// DashboardSummary aggregates listings, inquiries, bookings and reviews over
// every listing the caller owns. approxRevenue sums listing rent over approved
// bookings and is not an accounting figure.
func (h *Handler) DashboardSummary(c *fiber.Ctx) error {
	ownerID := middleware.UserID(c)
	db := h.DB.WithContext(c.UserContext())

	owned := func(model interface{}) *gorm.DB {
		return db.Model(model).Where("listing_id IN (?)", db.Model(&models.Listing{}).Select("id").Where("owner_id = ?", ownerID))
	}

	var totalListings int64
	if err := db.Model(&models.Listing{}).Where("owner_id = ?", ownerID).Count(&totalListings).Error; err != nil {
		return err
	}

	// Inquiries
	var totalInquiries, openInquiries int64
	if err := owned(&models.Inquiry{}).Count(&totalInquiries).Error; err != nil {
		return err
	}
	if err := owned(&models.Inquiry{}).Where("status = ?", models.InquiryOpen).Count(&openInquiries).Error; err != nil {
		return err
	}

	// Bookings
	var totalBookings, approvedBookings, pendingBookings, bookingsThisMonth int64
	if err := owned(&models.Booking{}).Count(&totalBookings).Error; err != nil {
		return err
	}
	if err := owned(&models.Booking{}).Where("status = ?", models.BookingApproved).Count(&approvedBookings).Error; err != nil {
		return err
	}
	if err := owned(&models.Booking{}).Where("status = ?", models.BookingRequested).Count(&pendingBookings).Error; err != nil {
		return err
	}
	if err := owned(&models.Booking{}).Where("created_at >= ?", now.BeginningOfMonth()).Count(&bookingsThisMonth).Error; err != nil {
		return err
	}

	// Revenue
	var approxRevenue float64
	err := db.Model(&models.Booking{}).
		Joins("JOIN listings ON listings.id = bookings.listing_id").
		Where("listings.owner_id = ? AND bookings.status = ?", ownerID, models.BookingApproved).
		Select("COALESCE(SUM(listings.rent), 0)").
		Scan(&approxRevenue).Error
	if err != nil {
		return err
	}

	// Ratings
	var ratings struct {
		Avg   sql.NullFloat64
		Count int64
	}
	err = owned(&models.Review{}).Select("AVG(rating) AS avg, COUNT(*) AS count").Scan(&ratings).Error
	if err != nil {
		return err
	}
	avgRating := 0.0
	if ratings.Avg.Valid {
		avgRating = math.Round(ratings.Avg.Float64*10) / 10
	}

	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{
		"totalListings":     totalListings,
		"totalInquiries":    totalInquiries,
		"openInquiries":     openInquiries,
		"totalBookings":     totalBookings,
		"approvedBookings":  approvedBookings,
		"pendingBookings":   pendingBookings,
		"bookingsThisMonth": bookingsThisMonth,
		"approxRevenue":     approxRevenue,
		"avgRating":         avgRating,
		"ratingCount":       ratings.Count,
	})
}
