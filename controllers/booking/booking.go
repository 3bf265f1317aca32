package bookingController

import (
	"errors"
	"pgstay/middleware"
	"pgstay/models"
	"pgstay/utils"
	bookingValidator "pgstay/validators/booking"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Handler struct {
	DB       *gorm.DB
	Notifier *utils.Notifier
	Log      *logrus.Logger
}

// CreateBooking records a booking or visit request against a listing
func (h *Handler) CreateBooking(c *fiber.Ctx) error {
	reqData := c.Locals("validatedBooking").(*bookingValidator.CreateBookingRequest)
	db := h.DB.WithContext(c.UserContext())

	var listing models.Listing
	err := db.Preload("Owner").First(&listing, reqData.ListingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "Listing not found")
	}
	if err != nil {
		return err
	}

	booking := models.Booking{
		ListingID:      listing.ID,
		UserID:         middleware.UserID(c),
		StartDate:      reqData.Start,
		DurationMonths: reqData.DurationMonths,
		VisitOnly:      reqData.VisitOnly,
		Note:           reqData.Note,
		Status:         models.BookingRequested,
	}
	if err := db.Create(&booking).Error; err != nil {
		return err
	}

	if listing.Owner != nil {
		h.Notifier.NewBooking(*listing.Owner, listing, booking)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, fiber.Map{"booking": booking})
}

// MyBookings lists the caller's own requests, newest first
func (h *Handler) MyBookings(c *fiber.Ctx) error {
	bookings := []models.Booking{}
	err := h.DB.WithContext(c.UserContext()).
		Preload("Listing").
		Where("user_id = ?", middleware.UserID(c)).
		Order("created_at DESC, id DESC").
		Find(&bookings).Error
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"items": bookings})
}

// OwnerBookings lists requests made on any listing the caller owns
func (h *Handler) OwnerBookings(c *fiber.Ctx) error {
	q := c.Locals("validatedBookingQuery").(*bookingValidator.BookingListQuery)

	tx := h.DB.WithContext(c.UserContext()).
		Joins("JOIN listings ON listings.id = bookings.listing_id").
		Where("listings.owner_id = ?", middleware.UserID(c))
	if q.Status != "" {
		tx = tx.Where("bookings.status = ?", q.Status)
	}

	bookings := []models.Booking{}
	err := tx.
		Preload("Listing").
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, email, phone, avatar, role, created_at, updated_at")
		}).
		Order("bookings.created_at DESC, bookings.id DESC").
		Find(&bookings).Error
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"items": bookings})
}

// UpdateBookingStatus lets the listing's owner move a booking to any status.
// Bookings on listings the caller does not own are reported as missing.
func (h *Handler) UpdateBookingStatus(c *fiber.Ctx) error {
	reqData := c.Locals("validatedBookingStatus").(*bookingValidator.UpdateBookingStatusRequest)
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "Booking not found")
	}
	db := h.DB.WithContext(c.UserContext())

	var booking models.Booking
	err = db.
		Joins("JOIN listings ON listings.id = bookings.listing_id").
		Where("bookings.id = ? AND listings.owner_id = ?", id, middleware.UserID(c)).
		Preload("Listing").
		Preload("User").
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "Booking not found")
	}
	if err != nil {
		return err
	}

	if err := db.Model(&booking).Update("status", reqData.Status).Error; err != nil {
		return err
	}
	booking.Status = reqData.Status

	h.Log.WithFields(logrus.Fields{"bookingId": booking.ID, "status": booking.Status}).Info("booking status changed")
	if booking.User != nil && booking.Listing != nil {
		h.Notifier.BookingStatusChanged(*booking.User, *booking.Listing, booking)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"booking": booking})
}
