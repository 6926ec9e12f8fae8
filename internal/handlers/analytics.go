package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/turfbook/turfbook-backend/internal/services"
)

// AnalyticsHandler serves owner and player dashboards
type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetVenueStats returns the dashboard for one of the caller's venues
func (h *AnalyticsHandler) GetVenueStats(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("userID").(string)
	venueID := c.Params("venueID")

	stats, err := h.analyticsService.VenueStats(ownerID, venueID)
	if err != nil {
		if errors.Is(err, services.ErrNotYourVenue) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You do not own this venue",
			})
		}
		return notFoundOr500(c, err, "venue")
	}

	return c.JSON(stats)
}

// GetOwnerSummary aggregates stats across all of the caller's venues
func (h *AnalyticsHandler) GetOwnerSummary(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("userID").(string)

	summary, err := h.analyticsService.OwnerSummary(ownerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute summary",
		})
	}

	return c.JSON(summary)
}

// GetMyStats returns the caller's booking totals
func (h *AnalyticsHandler) GetMyStats(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	stats, err := h.analyticsService.PlayerStats(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute stats",
		})
	}

	return c.JSON(stats)
}
