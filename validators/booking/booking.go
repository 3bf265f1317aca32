package bookingValidator

import (
	"pgstay/middleware"
	"pgstay/validators"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
)

const dateLayout = "2006-01-02"

type CreateBookingRequest struct {
	ListingID      uint   `json:"listingId" validate:"required"`
	StartDate      string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	DurationMonths int    `json:"durationMonths" validate:"gte=0,lte=24"`
	VisitOnly      bool   `json:"visitOnly"`
	Note           string `json:"note" validate:"max=500"`

	Start *time.Time `json:"-"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=requested approved rejected cancelled visited"`
}

type BookingListQuery struct {
	Status string `query:"status" json:"status" validate:"omitempty,oneof=requested approved rejected cancelled visited"`
}

// CreateBooking validator middleware
func CreateBooking() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateBookingRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Invalid request body!")
		}

		errors := validators.Check(reqData)

		// A stay needs a start date and a duration; a visit needs neither.
		if !reqData.VisitOnly {
			if reqData.StartDate == "" {
				errors["startDate"] = "startDate is required unless visitOnly is set!"
			}
			if reqData.DurationMonths < 1 {
				if _, exists := errors["durationMonths"]; !exists {
					errors["durationMonths"] = "durationMonths must be between 1 and 24!"
				}
			}
		}

		if _, bad := errors["startDate"]; !bad && reqData.StartDate != "" {
			start, err := time.ParseInLocation(dateLayout, reqData.StartDate, time.Local)
			if err != nil {
				errors["startDate"] = "startDate must be a date in YYYY-MM-DD format!"
			} else if start.Before(now.BeginningOfDay()) {
				errors["startDate"] = "startDate cannot be in the past!"
			} else {
				reqData.Start = &start
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedBooking", reqData)
		return c.Next()
	}
}

// UpdateBookingStatus validator middleware
func UpdateBookingStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateBookingStatusRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Invalid request body!")
		}

		errors := validators.Check(reqData)
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedBookingStatus", reqData)
		return c.Next()
	}
}

// ListBookings validator middleware
func ListBookings() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(BookingListQuery)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Invalid query parameters!")
		}

		errors := validators.Check(reqData)
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedBookingQuery", reqData)
		return c.Next()
	}
}
