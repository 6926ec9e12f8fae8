package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/storage"
)

func newReviewFixture(t *testing.T) (*ReviewService, storage.Store, *models.Venue) {
	t.Helper()

	store := storage.NewMemoryStore()
	venue, err := store.CreateVenue(&models.Venue{
		OwnerID: "OW00001",
		Name:    "Smash Arena",
		Status:  models.VenueStatusApproved,
	})
	require.NoError(t, err)

	return NewReviewService(store), store, venue
}

func completedBooking(t *testing.T, store storage.Store, venueID, userID string) *models.Booking {
	t.Helper()

	booking, err := store.CreateBooking(&models.Booking{
		VenueID:   venueID,
		UserID:    userID,
		OwnerID:   "OW00001",
		StartTime: time.Now().Add(-3 * time.Hour),
		EndTime:   time.Now().Add(-2 * time.Hour),
		Status:    models.BookingStatusCompleted,
	})
	require.NoError(t, err)
	return booking
}

func TestCreateReviewUpdatesRating(t *testing.T) {
	svc, store, venue := newReviewFixture(t)

	first := completedBooking(t, store, venue.VenueID, "US00001")
	second := completedBooking(t, store, venue.VenueID, "US00002")

	_, err := svc.Create("US00001", &models.ReviewRequest{BookingID: first.BookingID, Rating: 5, Comment: "great turf"})
	require.NoError(t, err)

	got, err := store.GetVenue(venue.VenueID)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, got.Rating, 0.001)
	assert.Equal(t, 1, got.TotalReviews)

	_, err = svc.Create("US00002", &models.ReviewRequest{BookingID: second.BookingID, Rating: 4})
	require.NoError(t, err)

	got, err = store.GetVenue(venue.VenueID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, got.Rating, 0.001)
	assert.Equal(t, 2, got.TotalReviews)
}

func TestCreateReviewRequiresCompletedBooking(t *testing.T) {
	svc, store, venue := newReviewFixture(t)

	booking, err := store.CreateBooking(&models.Booking{
		VenueID: venue.VenueID,
		UserID:  "US00001",
		Status:  models.BookingStatusConfirmed,
	})
	require.NoError(t, err)

	_, err = svc.Create("US00001", &models.ReviewRequest{BookingID: booking.BookingID, Rating: 4})
	assert.ErrorIs(t, err, ErrBookingNotCompleted)
}

func TestCreateReviewRejectsOtherUsersBooking(t *testing.T) {
	svc, store, venue := newReviewFixture(t)
	booking := completedBooking(t, store, venue.VenueID, "US00001")

	_, err := svc.Create("US00002", &models.ReviewRequest{BookingID: booking.BookingID, Rating: 4})
	assert.ErrorIs(t, err, ErrNotYourBooking)
}

func TestCreateReviewOncePerBooking(t *testing.T) {
	svc, store, venue := newReviewFixture(t)
	booking := completedBooking(t, store, venue.VenueID, "US00001")

	_, err := svc.Create("US00001", &models.ReviewRequest{BookingID: booking.BookingID, Rating: 4})
	require.NoError(t, err)

	_, err = svc.Create("US00001", &models.ReviewRequest{BookingID: booking.BookingID, Rating: 5})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestCreateReviewUnknownBooking(t *testing.T) {
	svc, _, _ := newReviewFixture(t)

	_, err := svc.Create("US00001", &models.ReviewRequest{BookingID: "BK99999", Rating: 4})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListByVenue(t *testing.T) {
	svc, store, venue := newReviewFixture(t)
	booking := completedBooking(t, store, venue.VenueID, "US00001")

	_, err := svc.Create("US00001", &models.ReviewRequest{BookingID: booking.BookingID, Rating: 4, Comment: "solid courts"})
	require.NoError(t, err)

	reviews, err := svc.ListByVenue(venue.VenueID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "solid courts", reviews[0].Comment)

	_, err = svc.ListByVenue("VN99999")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
