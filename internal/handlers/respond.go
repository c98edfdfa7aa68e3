package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"transportdesk/internal/services"
)

// fieldErrors converts validator failures into the itemized per-field map
// returned with every 400 response.
func fieldErrors(err error) map[string]string {
	messages := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			messages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return messages
}

// respondValidation returns a 400 with itemized field errors.
func respondValidation(c *fiber.Ctx, errs map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation failed",
		"errors":  errs,
	})
}

// respondError classifies a service error into an HTTP response. Internal
// error detail is echoed to the client only in verbose (development) mode.
func respondError(c *fiber.Ctx, err error, verbose bool) error {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return respondValidation(c, validationErr.Fields)
	case services.IsDuplicate(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Duplicate record",
			"error":   err.Error(),
		})
	case services.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Resource not found",
		})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Access denied",
		})
	case errors.Is(err, services.ErrSelfDelete):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "You cannot delete your own account",
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Authentication failed",
		})
	case errors.Is(err, services.ErrInvalidToken):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid or expired token",
		})
	}

	log.Printf("Internal error handling %s %s: %v", c.Method(), c.Path(), err)
	resp := fiber.Map{
		"success": false,
		"message": "Internal server error",
	}
	if verbose {
		resp["error"] = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(resp)
}
