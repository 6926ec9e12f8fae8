package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turfbook/turfbook-backend/internal/models"
)

func TestCreateOTPSupersedesUnconsumed(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	first, err := store.CreateOTP(&models.OTPCode{
		Email: "a@example.com", Purpose: models.OTPPurposeEmailVerification,
		Code: "111111", ExpiresAt: now.Add(10 * time.Minute),
	})
	require.NoError(t, err)

	second, err := store.CreateOTP(&models.OTPCode{
		Email: "a@example.com", Purpose: models.OTPPurposeEmailVerification,
		Code: "222222", ExpiresAt: now.Add(10 * time.Minute),
	})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	active, err := store.GetActiveOTP("a@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, "222222", active.Code)

	// The first row is gone entirely, not just shadowed
	latest, err := store.GetLatestOTP("a@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestConsumedOTPSurvivesSupersession(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	used, err := store.CreateOTP(&models.OTPCode{
		Email: "a@example.com", Purpose: models.OTPPurposeEmailVerification,
		Code: "111111", ExpiresAt: now.Add(10 * time.Minute),
	})
	require.NoError(t, err)
	require.NoError(t, store.ConsumeOTP(used.ID, now))

	// A consumed row must not block or be deleted by a new issue
	_, err = store.CreateOTP(&models.OTPCode{
		Email: "a@example.com", Purpose: models.OTPPurposeEmailVerification,
		Code: "222222", ExpiresAt: now.Add(10 * time.Minute),
	})
	require.NoError(t, err)

	_, err = store.GetActiveOTP("a@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)
}

func TestGetActiveVsLatestOTP(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	otp, err := store.CreateOTP(&models.OTPCode{
		Email: "a@example.com", Purpose: models.OTPPurposeEmailVerification,
		Code: "111111", ExpiresAt: now.Add(10 * time.Minute),
	})
	require.NoError(t, err)
	require.NoError(t, store.ConsumeOTP(otp.ID, now))

	// Active skips consumed rows, latest still sees them
	_, err = store.GetActiveOTP("a@example.com", models.OTPPurposeEmailVerification)
	assert.ErrorIs(t, err, ErrNotFound)

	latest, err := store.GetLatestOTP("a@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.True(t, latest.IsUsed)
}

func TestRecordOTPAttempt(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	otp, err := store.CreateOTP(&models.OTPCode{
		Email: "a@example.com", Purpose: models.OTPPurposeEmailVerification,
		Code: "111111", ExpiresAt: now.Add(10 * time.Minute),
	})
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.RecordOTPAttempt(otp.ID, now))
	}

	latest, err := store.GetLatestOTP("a@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Attempts)
	assert.NotNil(t, latest.LastAttemptAt)
}

func TestDeleteExpiredOTPs(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	_, err := store.CreateOTP(&models.OTPCode{
		Email: "old@example.com", Purpose: models.OTPPurposeEmailVerification,
		Code: "111111", ExpiresAt: now.Add(-time.Minute),
	})
	require.NoError(t, err)
	_, err = store.CreateOTP(&models.OTPCode{
		Email: "fresh@example.com", Purpose: models.OTPPurposeEmailVerification,
		Code: "222222", ExpiresAt: now.Add(10 * time.Minute),
	})
	require.NoError(t, err)

	deleted, err := store.DeleteExpiredOTPs(now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = store.GetLatestOTP("old@example.com", models.OTPPurposeEmailVerification)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetLatestOTP("fresh@example.com", models.OTPPurposeEmailVerification)
	assert.NoError(t, err)
}

func TestSearchVenuesFilters(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.CreateVenue(&models.Venue{
		Name: "Smash Arena", City: "Bengaluru", Status: models.VenueStatusApproved,
		Rating: 4.5,
		Courts: []models.Court{{Name: "C1", Sport: "badminton", Active: true}},
	})
	require.NoError(t, err)
	_, err = store.CreateVenue(&models.Venue{
		Name: "Goal Post", City: "Bengaluru", Status: models.VenueStatusApproved,
		Rating: 4.0,
		Courts: []models.Court{{Name: "T1", Sport: "football", Active: true}},
	})
	require.NoError(t, err)
	_, err = store.CreateVenue(&models.Venue{
		Name: "Hidden Court", City: "Bengaluru", Status: models.VenueStatusPending,
		Courts: []models.Court{{Name: "C1", Sport: "badminton", Active: true}},
	})
	require.NoError(t, err)

	// Pending venues never appear in search
	venues, total, err := store.SearchVenues(&models.VenueSearch{City: "bengaluru"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, venues, 2)
	assert.Equal(t, "Smash Arena", venues[0].Name, "higher rated venue ranks first")

	venues, total, err = store.SearchVenues(&models.VenueSearch{Sport: "football"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, venues, 1)
	assert.Equal(t, "Goal Post", venues[0].Name)

	venues, total, err = store.SearchVenues(&models.VenueSearch{City: "Mumbai"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, venues)
}

func TestSearchVenuesPagination(t *testing.T) {
	store := NewMemoryStore()

	for i := 0; i < 5; i++ {
		_, err := store.CreateVenue(&models.Venue{
			Name: "Venue", City: "Pune", Status: models.VenueStatusApproved,
			Rating: float64(i),
		})
		require.NoError(t, err)
	}

	venues, total, err := store.SearchVenues(&models.VenueSearch{City: "Pune", Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, venues, 2)

	venues, _, err = store.SearchVenues(&models.VenueSearch{City: "Pune", Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, venues, 1)

	venues, _, err = store.SearchVenues(&models.VenueSearch{City: "Pune", Page: 4, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, venues)
}

func TestGetCourtBookingsInRangeSkipsCancelled(t *testing.T) {
	store := NewMemoryStore()
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(time.Hour)

	_, err := store.CreateBooking(&models.Booking{
		CourtID: "CT00001", StartTime: start, EndTime: end,
		Status: models.BookingStatusCancelled,
	})
	require.NoError(t, err)

	overlapping, err := store.GetCourtBookingsInRange("CT00001", start, end)
	require.NoError(t, err)
	assert.Empty(t, overlapping, "cancelled bookings free the slot")

	_, err = store.CreateBooking(&models.Booking{
		CourtID: "CT00001", StartTime: start, EndTime: end,
		Status: models.BookingStatusConfirmed,
	})
	require.NoError(t, err)

	overlapping, err = store.GetCourtBookingsInRange("CT00001", start.Add(30*time.Minute), end.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)
}
