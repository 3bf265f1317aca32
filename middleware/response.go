package middleware

import (
	"errors"
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// FieldError is one entry of a validation failure body.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func JsonResponse(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(data)
}

func MessageResponse(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"message": message,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	fields := make([]FieldError, 0, len(errors))
	for field, message := range errors {
		fields = append(fields, FieldError{Field: field, Message: message})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed!",
		"errors":  fields,
	})
}

// ErrorHandler is the last stop for errors returned from handlers. Fiber errors
// keep their status; anything else is logged and answered with a generic 500.
func ErrorHandler(log *logrus.Logger, production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return MessageResponse(c, fiberErr.Code, fiberErr.Message)
		}

		entry := log.WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		})
		if production {
			entry.Error("request failed")
		} else {
			entry.WithError(err).Error("request failed")
		}

		return MessageResponse(c, fiber.StatusInternalServerError, "Something went wrong!")
	}
}
