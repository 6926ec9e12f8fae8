package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Review is a player's rating of a venue after a completed booking.
// One review per (user, venue, booking).
type Review struct {
	gorm.Model

	ReviewID  string `json:"review_id" gorm:"uniqueIndex"`
	VenueID   string `json:"venue_id" gorm:"index"`
	UserID    string `json:"user_id" gorm:"index"`
	BookingID string `json:"booking_id" gorm:"index"`

	Rating  int    `json:"rating"` // 1-5
	Comment string `json:"comment"`
}

// BeforeCreate generates ReviewID
func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ReviewID == "" {
		r.ReviewID = fmt.Sprintf("RV%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}
	return nil
}

// ReviewRequest is the payload for posting a review
type ReviewRequest struct {
	BookingID string `json:"booking_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}
