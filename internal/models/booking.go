package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Booking represents a confirmed court reservation by a player
type Booking struct {
	gorm.Model

	BookingID string `json:"booking_id" gorm:"uniqueIndex"`
	VenueID   string `json:"venue_id" gorm:"index"`
	CourtID   string `json:"court_id" gorm:"index"`
	UserID    string `json:"user_id" gorm:"index"`
	OwnerID   string `json:"owner_id" gorm:"index"`

	// Slot
	StartTime time.Time `json:"start_time" gorm:"not null;index"`
	EndTime   time.Time `json:"end_time" gorm:"not null"`
	Hours     float64   `json:"hours"`

	// Pricing
	Amount     float64 `json:"amount"`     // total charged to the player
	Commission float64 `json:"commission"` // TurfBook's 5% commission
	NetAmount  float64 `json:"net_amount"` // amount the venue owner receives

	// Status tracking
	Status string `json:"status"` // "confirmed", "checked_in", "completed", "cancelled"

	// Payment status
	PaymentStatus string `json:"payment_status"` // "pending", "paid", "failed", "refunded"
	PaymentID     string `json:"payment_id"`     // Razorpay payment ID

	// CheckInCode is shown to the player and verified at the venue desk
	CheckInCode string `json:"-"`

	// Timestamps
	ConfirmedAt *time.Time `json:"confirmed_at"`
	CheckedInAt *time.Time `json:"checked_in_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	PaidAt      *time.Time `json:"paid_at"`
}

// BookingStatus constants
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCheckedIn = "checked_in"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"

	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// BeforeCreate generates BookingID
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.BookingID == "" {
		b.BookingID = fmt.Sprintf("BK%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}
	return nil
}

// Overlaps reports whether this booking's slot intersects [start, end)
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime)
}

// IsCancellable checks whether the booking can still be cancelled
func (b *Booking) IsCancellable(now time.Time) bool {
	if b.Status != BookingStatusConfirmed {
		return false
	}
	return now.Before(b.StartTime)
}

// BookingRequest is the payload for creating a booking
type BookingRequest struct {
	CourtID   string    `json:"court_id" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
}
