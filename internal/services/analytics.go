package services

import (
	"errors"
	"time"

	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/storage"
)

// ErrNotYourVenue is returned when an owner asks for another owner's numbers
var ErrNotYourVenue = errors.New("venue belongs to another owner")

// OwnerSummary aggregates dashboard numbers across all of an owner's venues
type OwnerSummary struct {
	TotalVenues   int                  `json:"total_venues"`
	TotalBookings int                  `json:"total_bookings"`
	TotalRevenue  float64              `json:"total_revenue"`
	Venues        []*models.VenueStats `json:"venues"`
}

// AnalyticsService computes owner and player dashboards from bookings
type AnalyticsService struct {
	store storage.Store

	now func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(store storage.Store) *AnalyticsService {
	return &AnalyticsService{store: store, now: time.Now}
}

// VenueStats returns the dashboard for one venue, owner-gated
func (a *AnalyticsService) VenueStats(ownerID, venueID string) (*models.VenueStats, error) {
	venue, err := a.store.GetVenue(venueID)
	if err != nil {
		return nil, err
	}
	if venue.OwnerID != ownerID {
		return nil, ErrNotYourVenue
	}

	stats, err := a.store.GetVenueStats(venueID)
	if err != nil {
		return nil, err
	}
	stats.OccupancyRate = a.occupancyRate(venue)
	return stats, nil
}

// OwnerSummary aggregates stats across every venue the owner has listed
func (a *AnalyticsService) OwnerSummary(ownerID string) (*OwnerSummary, error) {
	venues, err := a.store.GetVenuesByOwner(ownerID)
	if err != nil {
		return nil, err
	}

	summary := &OwnerSummary{TotalVenues: len(venues)}
	for _, venue := range venues {
		stats, err := a.store.GetVenueStats(venue.VenueID)
		if err != nil {
			return nil, err
		}
		stats.OccupancyRate = a.occupancyRate(venue)
		summary.TotalBookings += stats.TotalBookings
		summary.TotalRevenue += stats.TotalRevenue
		summary.Venues = append(summary.Venues, stats)
	}
	return summary, nil
}

// PlayerStats returns a player's booking totals
func (a *AnalyticsService) PlayerStats(userID string) (*models.PlayerStats, error) {
	return a.store.GetPlayerStats(userID)
}

// occupancyRate is booked court-hours over available court-hours for the
// trailing 30 days
func (a *AnalyticsService) occupancyRate(venue *models.Venue) float64 {
	openHours := venue.CloseHour - venue.OpenHour
	courts := len(venue.Courts)
	if openHours <= 0 || courts == 0 {
		return 0
	}

	now := a.now()
	windowStart := now.AddDate(0, 0, -30)

	bookings, err := a.store.GetBookingsByVenue(venue.VenueID)
	if err != nil {
		return 0
	}

	var bookedHours float64
	for _, b := range bookings {
		if b.Status == models.BookingStatusCancelled {
			continue
		}
		if b.StartTime.Before(windowStart) || b.StartTime.After(now) {
			continue
		}
		bookedHours += b.Hours
	}

	available := float64(openHours * courts * 30)
	return bookedHours / available
}
