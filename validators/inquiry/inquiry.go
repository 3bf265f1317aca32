package inquiryValidator

import (
	"pgstay/middleware"
	"pgstay/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type CreateInquiryRequest struct {
	ListingID uint   `json:"listingId" validate:"required"`
	Message   string `json:"message" validate:"required,min=5,max=2000"`
	Contact   string `json:"contact" validate:"max=120"`
}

type UpdateInquiryStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open closed"`
}

type InquiryListQuery struct {
	Status string `query:"status" json:"status" validate:"omitempty,oneof=open closed"`
}

// CreateInquiry validator middleware
func CreateInquiry() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateInquiryRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Invalid request body!")
		}

		reqData.Message = strings.TrimSpace(reqData.Message)
		reqData.Contact = strings.TrimSpace(reqData.Contact)

		errors := validators.Check(reqData)
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedInquiry", reqData)
		return c.Next()
	}
}

// UpdateInquiryStatus validator middleware
func UpdateInquiryStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateInquiryStatusRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Invalid request body!")
		}

		errors := validators.Check(reqData)
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedInquiryStatus", reqData)
		return c.Next()
	}
}

// ListInquiries validator middleware
func ListInquiries() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(InquiryListQuery)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Invalid query parameters!")
		}

		errors := validators.Check(reqData)
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedInquiryQuery", reqData)
		return c.Next()
	}
}
