package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/services"
	"github.com/turfbook/turfbook-backend/internal/storage"
)

// BookingHandler handles booking-related requests
type BookingHandler struct {
	store          storage.Store
	bookingService *services.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(store storage.Store, bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{
		store:          store,
		bookingService: bookingService,
	}
}

// CreateBooking reserves a court slot for the caller
func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	var req models.BookingRequest
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

	booking, err := h.bookingService.Create(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Court not found",
			})
		case errors.Is(err, services.ErrVenueNotBookable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Venue is not accepting bookings",
			})
		case errors.Is(err, services.ErrSlotTaken):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Slot is already booked",
			})
		case errors.Is(err, services.ErrSlotInPast), errors.Is(err, services.ErrOutsideHours):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create booking",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "Booking confirmed",
		"booking":       booking,
		"check_in_code": booking.CheckInCode,
	})
}

// GetBooking retrieves a booking visible to its player or the venue owner
func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)
	role, _ := c.Locals("role").(string)
	id := c.Params("id")

	booking, err := h.store.GetBooking(id)
	if err != nil {
		return notFoundOr500(c, err, "booking")
	}

	if booking.UserID != userID && booking.OwnerID != userID && role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not your booking",
		})
	}

	return c.JSON(booking)
}

// GetMyBookings lists the caller's bookings
func (h *BookingHandler) GetMyBookings(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	bookings, err := h.store.GetBookingsByUser(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve bookings",
		})
	}

	return c.JSON(fiber.Map{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// GetVenueBookings lists bookings for one of the caller's venues
func (h *BookingHandler) GetVenueBookings(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("userID").(string)
	venueID := c.Params("venueID")

	venue, err := h.store.GetVenue(venueID)
	if err != nil {
		return notFoundOr500(c, err, "venue")
	}
	if venue.OwnerID != ownerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You do not own this venue",
		})
	}

	bookings, err := h.store.GetBookingsByVenue(venueID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve bookings",
		})
	}

	return c.JSON(fiber.Map{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// CancelBooking cancels a confirmed future booking
func (h *BookingHandler) CancelBooking(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)
	id := c.Params("id")

	booking, err := h.bookingService.Cancel(userID, id)
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
		case errors.Is(err, services.ErrNotCancellable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Booking can no longer be cancelled",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to cancel booking",
			})
		}
	}

	return c.JSON(fiber.Map{
		"message": "Booking cancelled",
		"booking": booking,
	})
}

// CheckIn validates the player's check-in code at the venue desk
func (h *BookingHandler) CheckIn(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("userID").(string)
	id := c.Params("id")

	var req struct {
		Code string `json:"code" validate:"required,len=6"`
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

	existing, err := h.store.GetBooking(id)
	if err != nil {
		return notFoundOr500(c, err, "booking")
	}
	if existing.OwnerID != ownerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "This booking is not at your venue",
		})
	}

	booking, err := h.bookingService.CheckIn(id, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadCheckInCode):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Incorrect check-in code",
			})
		case errors.Is(err, services.ErrNotCheckInWindow):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Check-in is not open for this booking",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to check in",
			})
		}
	}

	return c.JSON(fiber.Map{
		"message": "Checked in",
		"booking": booking,
	})
}
