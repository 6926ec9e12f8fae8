package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Venue represents a sports facility listed by an owner
type Venue struct {
	gorm.Model

	VenueID     string `json:"venue_id" gorm:"uniqueIndex"`
	OwnerID     string `json:"owner_id" gorm:"index"`
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`

	// Location
	Address string `json:"address"`
	City    string `json:"city" gorm:"index"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Phone   string `json:"phone"`

	// Operating hours (24h clock)
	OpenHour  int `json:"open_hour" gorm:"default:6"`
	CloseHour int `json:"close_hour" gorm:"default:23"`

	// Approval workflow - venues are not bookable until approved
	Status     string `json:"status" gorm:"default:pending"` // "pending", "approved", "rejected"
	AdminNotes string `json:"admin_notes,omitempty"`

	// Aggregates, recomputed on every review write
	Rating       float64 `json:"rating" gorm:"default:0"`
	TotalReviews int     `json:"total_reviews" gorm:"default:0"`

	// PhotoURLs is a JSON array of uploaded photo paths
	PhotoURLs string `json:"photo_urls"`

	Courts []Court `json:"courts,omitempty" gorm:"foreignKey:VenueID;references:VenueID"`
}

// Venue approval status constants
const (
	VenueStatusPending  = "pending"
	VenueStatusApproved = "approved"
	VenueStatusRejected = "rejected"
)

// BeforeCreate generates VenueID
func (v *Venue) BeforeCreate(tx *gorm.DB) error {
	if v.VenueID == "" {
		v.VenueID = fmt.Sprintf("VN%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}
	return nil
}

// IsBookable checks if the venue can accept bookings
func (v *Venue) IsBookable() bool {
	return v.Status == VenueStatusApproved
}

// Court is a single bookable playing area inside a venue
type Court struct {
	gorm.Model

	CourtID      string  `json:"court_id" gorm:"uniqueIndex"`
	VenueID      string  `json:"venue_id" gorm:"index"`
	Name         string  `json:"name"`  // e.g. "Court 1", "Turf A"
	Sport        string  `json:"sport"` // e.g. "badminton", "football", "cricket"
	PricePerHour float64 `json:"price_per_hour"`
	Indoor       bool    `json:"indoor" gorm:"default:false"`
	Active       bool    `json:"active" gorm:"default:true"`
}

// BeforeCreate generates CourtID
func (ct *Court) BeforeCreate(tx *gorm.DB) error {
	if ct.CourtID == "" {
		ct.CourtID = fmt.Sprintf("CT%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}
	return nil
}

// VenueRegistration is the payload for listing a new facility.
// Each step of the frontend wizard maps to one nested struct here.
type VenueRegistration struct {
	Name        string       `json:"name" validate:"required"`
	Description string       `json:"description"`
	Address     string       `json:"address" validate:"required"`
	City        string       `json:"city" validate:"required"`
	State       string       `json:"state"`
	Pincode     string       `json:"pincode"`
	Phone       string       `json:"phone"`
	OpenHour    int          `json:"open_hour" validate:"min=0,max=23"`
	CloseHour   int          `json:"close_hour" validate:"min=1,max=24"`
	Courts      []CourtInput `json:"courts" validate:"required,min=1,dive"`
}

// CourtInput is one court row inside a venue registration
type CourtInput struct {
	Name         string  `json:"name" validate:"required"`
	Sport        string  `json:"sport" validate:"required"`
	PricePerHour float64 `json:"price_per_hour" validate:"required,gt=0"`
	Indoor       bool    `json:"indoor"`
}

// VenueSearch parameters for browsing venues
type VenueSearch struct {
	City  string `json:"city"`
	Sport string `json:"sport"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}
