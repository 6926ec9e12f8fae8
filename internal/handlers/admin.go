package handlers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/services"
	"github.com/turfbook/turfbook-backend/internal/storage"
)

// AdminHandler handles venue approval and user moderation
type AdminHandler struct {
	store  storage.Store
	mailer services.Mailer
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store storage.Store, mailer services.Mailer) *AdminHandler {
	return &AdminHandler{store: store, mailer: mailer}
}

// GetPendingVenues lists venues awaiting approval
func (h *AdminHandler) GetPendingVenues(c *fiber.Ctx) error {
	venues, err := h.store.GetPendingVenues()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve pending venues",
		})
	}

	return c.JSON(fiber.Map{
		"venues": venues,
		"count":  len(venues),
	})
}

// UpdateVenueApproval approves or rejects a pending venue and notifies
// the owner by email, best effort
func (h *AdminHandler) UpdateVenueApproval(c *fiber.Ctx) error {
	venueID := c.Params("id")

	var req struct {
		Action string `json:"action" validate:"required,oneof=approve reject"`
		Notes  string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	venue, err := h.store.GetVenue(venueID)
	if err != nil {
		return notFoundOr500(c, err, "venue")
	}
	if venue.Status != models.VenueStatusPending {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Venue has already been reviewed",
		})
	}

	status := models.VenueStatusApproved
	if req.Action == "reject" {
		status = models.VenueStatusRejected
	}

	if err := h.store.UpdateVenueStatus(venueID, status, req.Notes); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update venue",
		})
	}

	h.notifyOwner(venue, status, req.Notes)

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Venue %sd", req.Action),
		"status":  status,
	})
}

// SuspendUser blocks a user from logging in
func (h *AdminHandler) SuspendUser(c *fiber.Ctx) error {
	userID := c.Params("id")

	var req struct {
		Reason string `json:"reason" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.store.SuspendUser(userID, req.Reason); err != nil {
		return notFoundOr500(c, err, "user")
	}

	return c.JSON(fiber.Map{
		"message": "User suspended",
	})
}

// ReactivateUser lifts a suspension
func (h *AdminHandler) ReactivateUser(c *fiber.Ctx) error {
	userID := c.Params("id")

	if err := h.store.ReactivateUser(userID); err != nil {
		return notFoundOr500(c, err, "user")
	}

	return c.JSON(fiber.Map{
		"message": "User reactivated",
	})
}

func (h *AdminHandler) notifyOwner(venue *models.Venue, status, notes string) {
	owner, err := h.store.GetUserByID(venue.OwnerID)
	if err != nil {
		log.Printf("⚠️ Could not load owner %s for venue notification: %v", venue.OwnerID, err)
		return
	}

	subject := fmt.Sprintf("Your venue %s is live on TurfBook", venue.Name)
	body := fmt.Sprintf("Hi %s,\n\nGood news! %s has been approved and players can now book it.\n\n- TurfBook Team", owner.Name, venue.Name)
	if status == models.VenueStatusRejected {
		subject = fmt.Sprintf("Update on your venue %s", venue.Name)
		body = fmt.Sprintf("Hi %s,\n\nWe could not approve %s at this time.\n\nNotes: %s\n\nFix the issues and submit again.\n\n- TurfBook Team", owner.Name, venue.Name, notes)
	}

	if err := h.mailer.SendMail(owner.Email, subject, body); err != nil {
		log.Printf("⚠️ Venue status email to %s failed: %v", owner.Email, err)
	}
}
