package uploadValidator

import (
	"pgstay/middleware"
	"pgstay/utils"

	"github.com/gofiber/fiber/v2"
)

// Images validator middleware: 1 to 6 files under the "images" field.
func Images() fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Expected a multipart form with images!")
		}

		errors := make(map[string]string)
		files := form.File["images"]

		switch {
		case len(files) == 0:
			errors["images"] = "At least one image is required!"
		case len(files) > utils.MaxImageFiles:
			errors["images"] = "You can upload at most 6 images at a time!"
		default:
			for _, file := range files {
				if err := utils.CheckImageFile(file); err != nil {
					errors["images"] = err.Error()
					break
				}
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedImages", files)
		return c.Next()
	}
}
