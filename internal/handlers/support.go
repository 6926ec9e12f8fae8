package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/storage"
)

// SupportHandler handles support tickets
type SupportHandler struct {
	store storage.Store
}

// NewSupportHandler creates a new support handler
func NewSupportHandler(store storage.Store) *SupportHandler {
	return &SupportHandler{store: store}
}

// CreateTicket opens a support ticket for the caller
func (h *SupportHandler) CreateTicket(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)
	role, _ := c.Locals("role").(string)

	var req struct {
		BookingID   string `json:"booking_id"`
		IssueType   string `json:"issue_type" validate:"omitempty,oneof=payment booking venue technical general"`
		Description string `json:"description" validate:"required,max=5000"`
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

	ticket := &models.SupportTicket{
		UserID:      userID,
		UserRole:    role,
		BookingID:   req.BookingID,
		IssueType:   req.IssueType,
		Description: req.Description,
		Status:      "open",
		Priority:    "medium",
	}
	if req.IssueType == models.IssueTypePayment {
		ticket.Priority = "high"
	}

	ticket, err := h.store.CreateSupportTicket(ticket)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create ticket",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Ticket created, our team will get back to you",
		"ticket":  ticket,
	})
}

// GetTicket returns one ticket, visible to its creator and admins
func (h *SupportHandler) GetTicket(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)
	role, _ := c.Locals("role").(string)
	id := c.Params("id")

	ticket, err := h.store.GetSupportTicket(id)
	if err != nil {
		return notFoundOr500(c, err, "ticket")
	}
	if ticket.UserID != userID && role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not your ticket",
		})
	}

	return c.JSON(ticket)
}

// GetMyTickets lists the caller's tickets
func (h *SupportHandler) GetMyTickets(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	tickets, err := h.store.GetSupportTicketsByUser(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve tickets",
		})
	}

	return c.JSON(fiber.Map{
		"tickets": tickets,
		"count":   len(tickets),
	})
}

// UpdateTicket lets admins progress or resolve a ticket
func (h *SupportHandler) UpdateTicket(c *fiber.Ctx) error {
	id := c.Params("id")

	var req struct {
		Status     string `json:"status" validate:"omitempty,oneof=open in_progress resolved closed"`
		Priority   string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
		AssignedTo string `json:"assigned_to"`
		Resolution string `json:"resolution"`
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

	ticket, err := h.store.GetSupportTicket(id)
	if err != nil {
		return notFoundOr500(c, err, "ticket")
	}

	if req.Status != "" {
		ticket.Status = req.Status
		if req.Status == "resolved" || req.Status == "closed" {
			now := time.Now()
			ticket.ResolvedAt = &now
		}
	}
	if req.Priority != "" {
		ticket.Priority = req.Priority
	}
	if req.AssignedTo != "" {
		ticket.AssignedTo = req.AssignedTo
	}
	if req.Resolution != "" {
		ticket.Resolution = req.Resolution
	}

	if err := h.store.UpdateSupportTicket(ticket); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update ticket",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Ticket updated",
		"ticket":  ticket,
	})
}
