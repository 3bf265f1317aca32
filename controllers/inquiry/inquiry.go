package inquiryController

import (
	"errors"
	"pgstay/middleware"
	"pgstay/models"
	"pgstay/utils"
	inquiryValidator "pgstay/validators/inquiry"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Handler struct {
	DB       *gorm.DB
	Notifier *utils.Notifier
	Log      *logrus.Logger
}

// CreateInquiry sends a message to a listing's owner. Owners cannot ask about
// their own listing and a student keeps at most one open inquiry per listing.
func (h *Handler) CreateInquiry(c *fiber.Ctx) error {
	reqData := c.Locals("validatedInquiry").(*inquiryValidator.CreateInquiryRequest)
	db := h.DB.WithContext(c.UserContext())
	userID := middleware.UserID(c)

	var listing models.Listing
	err := db.Preload("Owner").First(&listing, reqData.ListingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "Listing not found")
	}
	if err != nil {
		return err
	}

	if listing.OwnerID == userID {
		return middleware.MessageResponse(c, fiber.StatusForbidden, "You cannot inquire about your own listing")
	}

	var open int64
	err = db.Model(&models.Inquiry{}).
		Where("listing_id = ? AND student_id = ? AND status = ?", listing.ID, userID, models.InquiryOpen).
		Count(&open).Error
	if err != nil {
		return err
	}
	if open > 0 {
		return middleware.MessageResponse(c, fiber.StatusConflict, "You already have an open inquiry for this listing")
	}

	inquiry := models.Inquiry{
		ListingID: listing.ID,
		StudentID: userID,
		OwnerID:   listing.OwnerID,
		Message:   reqData.Message,
		Contact:   reqData.Contact,
		Status:    models.InquiryOpen,
	}
	if err := db.Create(&inquiry).Error; err != nil {
		return err
	}

	if listing.Owner != nil {
		h.Notifier.NewInquiry(*listing.Owner, listing, inquiry)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, fiber.Map{"inquiry": inquiry})
}

func (h *Handler) OwnerInquiries(c *fiber.Ctx) error {
	q := c.Locals("validatedInquiryQuery").(*inquiryValidator.InquiryListQuery)

	tx := h.DB.WithContext(c.UserContext()).Where("owner_id = ?", middleware.UserID(c))
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}

	inquiries := []models.Inquiry{}
	err := tx.
		Preload("Listing", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, owner_id, title, city, rent, photos, created_at, updated_at")
		}).
		Preload("Student", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, email, phone, avatar, role, created_at, updated_at")
		}).
		Order("created_at DESC, id DESC").
		Find(&inquiries).Error
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"items": inquiries})
}

func (h *Handler) MyInquiries(c *fiber.Ctx) error {
	inquiries := []models.Inquiry{}
	err := h.DB.WithContext(c.UserContext()).
		Preload("Listing").
		Where("student_id = ?", middleware.UserID(c)).
		Order("created_at DESC, id DESC").
		Find(&inquiries).Error
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"items": inquiries})
}

// UpdateInquiryStatus opens or closes an inquiry addressed to the caller
func (h *Handler) UpdateInquiryStatus(c *fiber.Ctx) error {
	reqData := c.Locals("validatedInquiryStatus").(*inquiryValidator.UpdateInquiryStatusRequest)
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "Inquiry not found")
	}
	db := h.DB.WithContext(c.UserContext())

	var inquiry models.Inquiry
	err = db.Where("id = ? AND owner_id = ?", id, middleware.UserID(c)).First(&inquiry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.MessageResponse(c, fiber.StatusNotFound, "Inquiry not found")
	}
	if err != nil {
		return err
	}

	if err := db.Model(&inquiry).Update("status", reqData.Status).Error; err != nil {
		return err
	}
	inquiry.Status = reqData.Status

	h.Log.WithFields(logrus.Fields{"inquiryId": inquiry.ID, "status": inquiry.Status}).Info("inquiry status changed")
	return middleware.JsonResponse(c, fiber.StatusOK, fiber.Map{"inquiry": inquiry})
}
