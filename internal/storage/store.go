package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/turfbook/turfbook-backend/internal/models"
)

var (
	storeInstance Store
	storeOnce     sync.Once
)

// ErrNotFound is returned by lookups when no matching record exists
var ErrNotFound = errors.New("record not found")

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Store defines the interface for storage operations
type Store interface {
	// User operations
	CreateUser(user *models.User) (*models.User, error)
	GetUserByID(userID string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateUser(user *models.User) error

	// Venue operations
	CreateVenue(venue *models.Venue) (*models.Venue, error)
	GetVenue(venueID string) (*models.Venue, error)
	GetVenuesByOwner(ownerID string) ([]*models.Venue, error)
	SearchVenues(search *models.VenueSearch) ([]*models.Venue, int64, error)
	UpdateVenue(venue *models.Venue) error
	UpdateVenueRating(venueID string, rating float64, totalReviews int) error

	// Court operations
	GetCourt(courtID string) (*models.Court, error)
	GetCourtsByVenue(venueID string) ([]*models.Court, error)

	// Booking operations
	CreateBooking(booking *models.Booking) (*models.Booking, error)
	GetBooking(bookingID string) (*models.Booking, error)
	GetBookingsByUser(userID string) ([]*models.Booking, error)
	GetBookingsByVenue(venueID string) ([]*models.Booking, error)
	GetCourtBookingsInRange(courtID string, start, end time.Time) ([]*models.Booking, error)
	GetBookingsStartingBetween(start, end time.Time) ([]*models.Booking, error)
	GetFinishedConfirmedBookings(before time.Time) ([]*models.Booking, error)
	UpdateBooking(booking *models.Booking) error

	// Payment operations
	CreatePayment(payment *models.Payment) (*models.Payment, error)
	GetPaymentByOrderID(orderID string) (*models.Payment, error)
	UpdatePayment(payment *models.Payment) error

	// Review operations
	CreateReview(review *models.Review) (*models.Review, error)
	GetReviewsByVenue(venueID string) ([]*models.Review, error)
	GetReviewByBooking(userID, bookingID string) (*models.Review, error)
	GetVenueRatingAggregate(venueID string) (avg float64, count int, err error)

	// OTP operations
	CreateOTP(otp *models.OTPCode) (*models.OTPCode, error)
	GetActiveOTP(email, purpose string) (*models.OTPCode, error)
	GetLatestOTP(email, purpose string) (*models.OTPCode, error)
	RecordOTPAttempt(id uint, at time.Time) error
	ConsumeOTP(id uint, at time.Time) error
	DeleteExpiredOTPs(now time.Time) (int64, error)

	// Analytics operations
	GetVenueStats(venueID string) (*models.VenueStats, error)
	GetPlayerStats(userID string) (*models.PlayerStats, error)

	// Admin operations
	GetPendingVenues() ([]*models.Venue, error)
	UpdateVenueStatus(venueID string, status string, adminNotes string) error
	SuspendUser(userID string, reason string) error
	ReactivateUser(userID string) error

	// Support operations
	CreateSupportTicket(ticket *models.SupportTicket) (*models.SupportTicket, error)
	GetSupportTicket(ticketID string) (*models.SupportTicket, error)
	GetSupportTicketsByUser(userID string) ([]*models.SupportTicket, error)
	UpdateSupportTicket(ticket *models.SupportTicket) error
}
