package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/services"
	"github.com/turfbook/turfbook-backend/internal/storage"
)

// ReviewHandler handles venue reviews
type ReviewHandler struct {
	reviewService *services.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// CreateReview posts a review for one of the caller's completed bookings
func (h *ReviewHandler) CreateReview(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	var req models.ReviewRequest
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

	review, err := h.reviewService.Create(userID, &req)
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
		case errors.Is(err, services.ErrBookingNotCompleted):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "You can review a booking only after it is completed",
			})
		case errors.Is(err, services.ErrAlreadyReviewed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Booking already reviewed",
			})
		default:
			if review != nil {
				// Review stored, rating aggregate lagging
				return c.Status(fiber.StatusCreated).JSON(fiber.Map{
					"message": "Review posted",
					"review":  review,
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to post review",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Review posted",
		"review":  review,
	})
}

// GetVenueReviews lists a venue's reviews, public
func (h *ReviewHandler) GetVenueReviews(c *fiber.Ctx) error {
	venueID := c.Params("venueID")

	reviews, err := h.reviewService.ListByVenue(venueID)
	if err != nil {
		return notFoundOr500(c, err, "venue")
	}

	return c.JSON(fiber.Map{
		"reviews": reviews,
		"count":   len(reviews),
	})
}
