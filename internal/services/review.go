package services

import (
	"errors"
	"fmt"

	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/storage"
)

// Review errors surfaced to handlers
var (
	ErrBookingNotCompleted = errors.New("booking not completed yet")
	ErrAlreadyReviewed     = errors.New("booking already reviewed")
)

// ReviewService creates reviews and keeps the venue rating aggregate current
type ReviewService struct {
	store storage.Store
}

// NewReviewService creates a new review service
func NewReviewService(store storage.Store) *ReviewService {
	return &ReviewService{store: store}
}

// Create posts a review for a completed booking and recomputes the venue's
// rating from all stored reviews. Concurrent writers may interleave
// recomputes; each recompute reads every committed row so the aggregate
// converges to the correct value.
func (r *ReviewService) Create(userID string, req *models.ReviewRequest) (*models.Review, error) {
	booking, err := r.store.GetBooking(req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotYourBooking
	}
	if booking.Status != models.BookingStatusCompleted {
		return nil, ErrBookingNotCompleted
	}

	if _, err := r.store.GetReviewByBooking(userID, req.BookingID); err == nil {
		return nil, ErrAlreadyReviewed
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	review := &models.Review{
		VenueID:   booking.VenueID,
		UserID:    userID,
		BookingID: booking.BookingID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	review, err = r.store.CreateReview(review)
	if err != nil {
		return nil, err
	}

	if err := r.recomputeVenueRating(booking.VenueID); err != nil {
		// The review is stored; the aggregate catches up on the next write
		return review, fmt.Errorf("review saved but rating update failed: %w", err)
	}
	return review, nil
}

// ListByVenue returns all reviews for a venue, newest first
func (r *ReviewService) ListByVenue(venueID string) ([]*models.Review, error) {
	if _, err := r.store.GetVenue(venueID); err != nil {
		return nil, err
	}
	return r.store.GetReviewsByVenue(venueID)
}

func (r *ReviewService) recomputeVenueRating(venueID string) error {
	avg, count, err := r.store.GetVenueRatingAggregate(venueID)
	if err != nil {
		return err
	}
	return r.store.UpdateVenueRating(venueID, avg, count)
}
