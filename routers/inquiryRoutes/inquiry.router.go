package inquiryRoutes

import (
	inquiryController "pgstay/controllers/inquiry"
	"pgstay/middleware"
	"pgstay/models"
	inquiryValidator "pgstay/validators/inquiry"

	"github.com/gofiber/fiber/v2"
)

func SetupInquiryRoutes(api fiber.Router, h *inquiryController.Handler, jwt fiber.Handler) {
	inquiryGroup := api.Group("/inquiries")
	ownerOnly := middleware.RequireRole(models.RoleOwner)

	inquiryGroup.Post("/", inquiryValidator.CreateInquiry(), jwt, h.CreateInquiry)
	inquiryGroup.Get("/me", jwt, h.MyInquiries)
	inquiryGroup.Get("/owner", inquiryValidator.ListInquiries(), jwt, ownerOnly, h.OwnerInquiries)
	inquiryGroup.Patch("/:id", inquiryValidator.UpdateInquiryStatus(), jwt, ownerOnly, h.UpdateInquiryStatus)
}
