package models

import (
	"time"

	"gorm.io/gorm"
)

// VenueStats is the owner-facing dashboard aggregate for one venue
type VenueStats struct {
	gorm.Model
	VenueID           string     `json:"venue_id" gorm:"uniqueIndex"`
	TotalBookings     int        `json:"total_bookings"`
	CompletedBookings int        `json:"completed_bookings"`
	CancelledBookings int        `json:"cancelled_bookings"`
	TotalRevenue      float64    `json:"total_revenue"`
	CommissionPaid    float64    `json:"commission_paid"`
	AverageRating     float64    `json:"average_rating"`
	OccupancyRate     float64    `json:"occupancy_rate"` // booked hours / open hours, last 30 days
	LastBookingAt     *time.Time `json:"last_booking_at"`
}

// PlayerStats tracks a player's booking history totals
type PlayerStats struct {
	gorm.Model
	UserID            string     `json:"user_id" gorm:"uniqueIndex"`
	TotalBookings     int        `json:"total_bookings"`
	CompletedBookings int        `json:"completed_bookings"`
	TotalSpent        float64    `json:"total_spent"`
	LastActiveAt      *time.Time `json:"last_active_at"`
}
