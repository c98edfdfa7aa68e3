package handlers

import (
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"transportdesk/internal/middleware"
	"transportdesk/internal/models"
	"transportdesk/internal/services"
)

// EntryHandler handles HTTP requests for transport entries.
type EntryHandler struct {
	service  *services.EntryService
	validate *validator.Validate
	verbose  bool
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(service *services.EntryService, verbose bool) *EntryHandler {
	return &EntryHandler{
		service:  service,
		validate: validator.New(),
		verbose:  verbose,
	}
}

// RegisterRoutes registers the transport-entry routes with the Fiber app.
// The stats route must come before the /:id route.
func (h *EntryHandler) RegisterRoutes(router fiber.Router) {
	entryRoutes := router.Group("/transport-entries")
	entryRoutes.Get("/", h.HandleList)
	entryRoutes.Get("/stats/summary", h.HandleStats)
	entryRoutes.Get("/:id", h.HandleGetByID)
	entryRoutes.Post("/", h.HandleCreate)
	entryRoutes.Put("/:id", h.HandleUpdate)
	entryRoutes.Delete("/:id", h.HandleDelete)
}

// parseListQuery reads and strictly validates the list query parameters.
// Absent values get defaults; present-but-invalid values are rejected, never
// clamped.
func parseListQuery(c *fiber.Ctx) (services.EntryListQuery, map[string]string) {
	q := services.EntryListQuery{
		Search: c.Query("search"),
		Status: c.Query("status"),
		From:   c.Query("from"),
		To:     c.Query("to"),
		Page:   1,
		Limit:  services.DefaultPageLimit,
	}
	errs := make(map[string]string)

	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs["page"] = "must be a positive integer"
		} else {
			q.Page = n
		}
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > services.MaxPageLimit {
			errs["limit"] = "must be an integer between 1 and 5000"
		} else {
			q.Limit = n
		}
	}
	if len(q.Search) > services.MaxSearchLength {
		errs["search"] = "must be at most 100 characters"
	}
	if q.Status != "" && !models.IsValidStatus(q.Status) {
		errs["status"] = "must be one of PENDING, IN_PROGRESS, COMPLETED, CANCELLED"
	}
	return q, errs
}

// HandleList returns one page of the caller's entries.
func (h *EntryHandler) HandleList(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	q, errs := parseListQuery(c)
	if len(errs) > 0 {
		return respondValidation(c, errs)
	}

	entries, pagination, err := h.service.List(c.Context(), user.ID, q)
	if err != nil {
		log.Printf("Error listing entries for user %s: %v", user.ID, err)
		return respondError(c, err, h.verbose)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"entries":    entries,
			"pagination": pagination,
		},
	})
}

// HandleGetByID returns a single entry owned by the caller.
func (h *EntryHandler) HandleGetByID(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	entry, err := h.service.Get(c.Context(), user.ID, c.Params("id"))
	if err != nil {
		return respondError(c, err, h.verbose)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    entry,
	})
}

// HandleCreate validates and creates a new entry. The business ID is
// allocated at save time and returned with the record.
func (h *EntryHandler) HandleCreate(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var entry models.TransportEntry
	if err := c.BodyParser(&entry); err != nil {
		log.Printf("Error parsing entry create body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if err := h.validate.Struct(entry); err != nil {
		return respondValidation(c, fieldErrors(err))
	}

	created, err := h.service.Create(c.Context(), user.ID, &entry)
	if err != nil {
		log.Printf("Error creating entry for user %s: %v", user.ID, err)
		return respondError(c, err, h.verbose)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Entry created successfully",
		"data":    created,
	})
}

// HandleUpdate validates and updates an existing entry. The business ID and
// owner never change.
func (h *EntryHandler) HandleUpdate(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var entry models.TransportEntry
	if err := c.BodyParser(&entry); err != nil {
		log.Printf("Error parsing entry update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if err := h.validate.Struct(entry); err != nil {
		return respondValidation(c, fieldErrors(err))
	}

	updated, err := h.service.Update(c.Context(), user.ID, c.Params("id"), &entry)
	if err != nil {
		log.Printf("Error updating entry %s: %v", c.Params("id"), err)
		return respondError(c, err, h.verbose)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Entry updated successfully",
		"data":    updated,
	})
}

// HandleDelete hard-deletes an entry owned by the caller.
func (h *EntryHandler) HandleDelete(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	if err := h.service.Delete(c.Context(), user.ID, c.Params("id")); err != nil {
		log.Printf("Error deleting entry %s: %v", c.Params("id"), err)
		return respondError(c, err, h.verbose)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Entry deleted successfully",
	})
}

// HandleStats returns the caller's entry summary.
func (h *EntryHandler) HandleStats(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	stats, err := h.service.Stats(c.Context(), user.ID)
	if err != nil {
		log.Printf("Error computing stats for user %s: %v", user.ID, err)
		return respondError(c, err, h.verbose)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
	})
}
