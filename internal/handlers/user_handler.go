package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"transportdesk/internal/middleware"
	"transportdesk/internal/models"
	"transportdesk/internal/services"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	service  *services.UserService
	validate *validator.Validate
	verbose  bool
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, verbose bool) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: validator.New(),
		verbose:  verbose,
	}
}

// RegisterRoutes registers the user routes with the Fiber app. The /me
// routes must come before the /:id routes. List and delete are admin-only;
// the rest follow the self-or-admin rule enforced in the service.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/me", h.HandleGetMe)
	userRoutes.Put("/me", h.HandleUpdateMe)
	userRoutes.Put("/me/bank", h.HandleUpdateMyBank)

	userRoutes.Get("/", middleware.AdminRequired(), h.HandleList)
	userRoutes.Get("/:id", h.HandleGetByID)
	userRoutes.Put("/:id", h.HandleUpdate)
	userRoutes.Delete("/:id", middleware.AdminRequired(), h.HandleDelete)
}

// HandleGetMe returns the caller's own record.
func (h *UserHandler) HandleGetMe(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return c.JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}

func (h *UserHandler) updateProfile(c *fiber.Ctx, targetID string) error {
	caller := middleware.CurrentUser(c)

	var update services.ProfileUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(update); err != nil {
		return respondValidation(c, fieldErrors(err))
	}

	updated, err := h.service.UpdateProfile(c.Context(), caller, targetID, update)
	if err != nil {
		log.Printf("Error updating profile for user %s: %v", targetID, err)
		return respondError(c, err, h.verbose)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated successfully",
		"data":    updated,
	})
}

// HandleUpdateMe applies a partial profile update to the caller's record.
func (h *UserHandler) HandleUpdateMe(c *fiber.Ctx) error {
	return h.updateProfile(c, middleware.CurrentUser(c).ID)
}

// HandleUpdateMyBank replaces the caller's bank details.
func (h *UserHandler) HandleUpdateMyBank(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)

	var bank models.BankDetails
	if err := c.BodyParser(&bank); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(bank); err != nil {
		return respondValidation(c, fieldErrors(err))
	}

	updated, err := h.service.UpdateBank(c.Context(), caller, caller.ID, &bank)
	if err != nil {
		log.Printf("Error updating bank details for user %s: %v", caller.ID, err)
		return respondError(c, err, h.verbose)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Bank details updated successfully",
		"data":    updated,
	})
}

// HandleList returns all users. Admin only.
func (h *UserHandler) HandleList(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)

	users, err := h.service.List(c.Context(), caller)
	if err != nil {
		log.Printf("Error listing users: %v", err)
		return respondError(c, err, h.verbose)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
	})
}

// HandleGetByID returns a single user, self-or-admin.
func (h *UserHandler) HandleGetByID(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)

	user, err := h.service.Get(c.Context(), caller, c.Params("id"))
	if err != nil {
		return respondError(c, err, h.verbose)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}

// HandleUpdate applies a partial profile update to any user, self-or-admin.
func (h *UserHandler) HandleUpdate(c *fiber.Ctx) error {
	return h.updateProfile(c, c.Params("id"))
}

// HandleDelete hard-deletes a user. Admin only; self-deletion is rejected.
func (h *UserHandler) HandleDelete(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)

	if err := h.service.Delete(c.Context(), caller, c.Params("id")); err != nil {
		log.Printf("Error deleting user %s: %v", c.Params("id"), err)
		return respondError(c, err, h.verbose)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "User deleted successfully",
	})
}
