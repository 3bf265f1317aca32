package mediaController

import (
	"errors"
	"mime/multipart"
	"pgstay/middleware"
	"pgstay/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	Images utils.ImageStore
	Log    *logrus.Logger
}

// UploadImages forwards the validated files to the CDN and returns their URLs
func (h *Handler) UploadImages(c *fiber.Ctx) error {
	files := c.Locals("validatedImages").([]*multipart.FileHeader)

	photos, err := utils.UploadImages(c.UserContext(), h.Images, files)
	if errors.Is(err, utils.ErrImageStoreDisabled) {
		return middleware.MessageResponse(c, fiber.StatusInternalServerError, "Image uploads are not configured")
	}
	if err != nil {
		h.Log.WithError(err).Error("image upload failed")
		return middleware.MessageResponse(c, fiber.StatusInternalServerError, "Failed to upload images")
	}

	urls := make([]string, 0, len(photos))
	for _, photo := range photos {
		urls = append(urls, photo.URL)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, fiber.Map{
		"urls":   urls,
		"photos": photos,
	})
}
