package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/turfbook/turfbook-backend/internal/services"
	"github.com/turfbook/turfbook-backend/internal/storage"
)

// PaymentHandler handles payment order creation and gateway webhooks
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateOrder creates a Razorpay order for one of the caller's bookings
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	var req struct {
		BookingID string `json:"booking_id" validate:"required"`
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

	payment, err := h.paymentService.CreateOrder(userID, req.BookingID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Booking not found",
			})
		case errors.Is(err, services.ErrNotYourBooking):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Not your booking",
			})
		case errors.Is(err, services.ErrAlreadyPaid):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Booking already paid",
			})
		case errors.Is(err, services.ErrGatewayNotConfigured):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Payments are temporarily unavailable",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create payment order",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created",
		"payment": payment,
	})
}

// HandleWebhook applies Razorpay events; the signature middleware has
// already authenticated the request
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	if err := h.paymentService.ProcessPaymentWebhook(c.Body()); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
