package bookingRoutes

import (
	bookingController "pgstay/controllers/booking"
	"pgstay/middleware"
	"pgstay/models"
	bookingValidator "pgstay/validators/booking"

	"github.com/gofiber/fiber/v2"
)

func SetupBookingRoutes(api fiber.Router, h *bookingController.Handler, jwt fiber.Handler) {
	bookingGroup := api.Group("/bookings")
	ownerOnly := middleware.RequireRole(models.RoleOwner)

	bookingGroup.Post("/", bookingValidator.CreateBooking(), jwt, h.CreateBooking)
	bookingGroup.Get("/me", jwt, h.MyBookings)
	bookingGroup.Get("/owner", bookingValidator.ListBookings(), jwt, ownerOnly, h.OwnerBookings)
	bookingGroup.Patch("/:id", bookingValidator.UpdateBookingStatus(), jwt, ownerOnly, h.UpdateBookingStatus)
}
