package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SupportTicket is a user-raised issue about a booking, payment or venue
type SupportTicket struct {
	gorm.Model
	TicketID    string     `gorm:"uniqueIndex;not null" json:"ticket_id"`
	UserID      string     `gorm:"index;not null" json:"user_id"`
	UserRole    string     `json:"user_role"` // player or owner
	BookingID   string     `json:"booking_id,omitempty"`
	IssueType   string     `json:"issue_type"` // payment, booking, venue, technical, general
	Description string     `json:"description"`
	Status      string     `gorm:"default:'open'" json:"status"`     // open, in_progress, resolved, closed
	Priority    string     `gorm:"default:'medium'" json:"priority"` // low, medium, high, urgent
	AssignedTo  string     `json:"assigned_to,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	Resolution  string     `json:"resolution,omitempty"`
}

// Issue type constants
const (
	IssueTypePayment   = "payment"
	IssueTypeBooking   = "booking"
	IssueTypeVenue     = "venue"
	IssueTypeTechnical = "technical"
	IssueTypeGeneral   = "general"
)

// BeforeCreate generates TicketID and defaults the issue type
func (st *SupportTicket) BeforeCreate(tx *gorm.DB) error {
	if st.TicketID == "" {
		st.TicketID = fmt.Sprintf("TK%d", time.Now().UnixNano())
	}

	if st.IssueType == "" {
		st.IssueType = IssueTypeGeneral
	}

	return nil
}
