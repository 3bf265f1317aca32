package authValidator

import (
	"pgstay/middleware"
	"pgstay/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=student owner"`
	Phone    string `json:"phone" validate:"omitempty,min=7,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=2,max=80"`
	Phone  *string `json:"phone" validate:"omitempty,max=20"`
	Avatar *string `json:"avatar" validate:"omitempty,max=500"`
}

type SwitchRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student owner"`
}

// Register validator middleware
func Register() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(RegisterRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Invalid request body!")
		}

		reqData.Name = strings.TrimSpace(reqData.Name)
		reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))
		reqData.Phone = strings.TrimSpace(reqData.Phone)

		errors := validators.Check(reqData)

		// Respond with errors if any exist
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedRegister", reqData)
		return c.Next()
	}
}

// Login validator middleware
func Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LoginRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Invalid request body!")
		}

		reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))

		errors := validators.Check(reqData)
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedLogin", reqData)
		return c.Next()
	}
}

// UpdateProfile validator middleware
func UpdateProfile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateProfileRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Invalid request body!")
		}

		errors := validators.Check(reqData)
		if reqData.Name == nil && reqData.Phone == nil && reqData.Avatar == nil {
			errors["body"] = "Provide at least one of name, phone or avatar!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedProfile", reqData)
		return c.Next()
	}
}

// SwitchRole validator middleware
func SwitchRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SwitchRoleRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.MessageResponse(c, fiber.StatusBadRequest, "Invalid request body!")
		}

		errors := validators.Check(reqData)
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedRole", reqData)
		return c.Next()
	}
}
