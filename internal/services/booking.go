package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/storage"
	"github.com/turfbook/turfbook-backend/internal/utils"
)

// CommissionRate is TurfBook's cut of every booking
const CommissionRate = 0.05

// Booking errors surfaced to handlers
var (
	ErrVenueNotBookable = errors.New("venue is not accepting bookings")
	ErrSlotTaken        = errors.New("slot already booked")
	ErrSlotInPast       = errors.New("slot starts in the past")
	ErrOutsideHours     = errors.New("slot is outside venue operating hours")
	ErrNotYourBooking   = errors.New("booking belongs to another user")
	ErrNotCancellable   = errors.New("booking can no longer be cancelled")
	ErrBadCheckInCode   = errors.New("incorrect check-in code")
	ErrNotCheckInWindow = errors.New("check-in not open for this booking")
)

// BookingService handles slot reservation, cancellation and check-in
type BookingService struct {
	store  storage.Store
	sms    *SMSService
	mailer Mailer

	now func() time.Time
}

// NewBookingService creates a new booking service
func NewBookingService(store storage.Store, sms *SMSService, mailer Mailer) *BookingService {
	return &BookingService{
		store:  store,
		sms:    sms,
		mailer: mailer,
		now:    time.Now,
	}
}

// Create books a court slot for a player. The court must belong to an
// approved venue, the slot must be in the future within operating hours,
// and must not overlap any non-cancelled booking on the same court.
func (b *BookingService) Create(userID string, req *models.BookingRequest) (*models.Booking, error) {
	court, err := b.store.GetCourt(req.CourtID)
	if err != nil {
		return nil, err
	}
	venue, err := b.store.GetVenue(court.VenueID)
	if err != nil {
		return nil, err
	}
	if !venue.IsBookable() {
		return nil, ErrVenueNotBookable
	}

	now := b.now()
	if !req.StartTime.After(now) {
		return nil, ErrSlotInPast
	}
	if !withinOperatingHours(venue, req.StartTime, req.EndTime) {
		return nil, ErrOutsideHours
	}

	existing, err := b.store.GetCourtBookingsInRange(req.CourtID, req.StartTime, req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("failed to check slot availability: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrSlotTaken
	}

	hours := req.EndTime.Sub(req.StartTime).Hours()
	amount := hours * court.PricePerHour
	commission := amount * CommissionRate

	checkInCode, err := utils.GenerateSecureOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate check-in code: %w", err)
	}

	booking := &models.Booking{
		VenueID:       venue.VenueID,
		CourtID:       court.CourtID,
		UserID:        userID,
		OwnerID:       venue.OwnerID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Hours:         hours,
		Amount:        amount,
		Commission:    commission,
		NetAmount:     amount - commission,
		Status:        models.BookingStatusConfirmed,
		PaymentStatus: models.PaymentStatusPending,
		CheckInCode:   checkInCode,
		ConfirmedAt:   &now,
	}

	booking, err = b.store.CreateBooking(booking)
	if err != nil {
		return nil, err
	}

	b.notifyConfirmed(booking, venue, court)
	return booking, nil
}

// withinOperatingHours reports whether [start, end) fits inside the venue's
// daily hours. Slots never span days; an end exactly at midnight counts as
// hour 24 of the start day.
func withinOperatingHours(venue *models.Venue, start, end time.Time) bool {
	nextMidnight := time.Date(start.Year(), start.Month(), start.Day()+1, 0, 0, 0, 0, start.Location())
	if end.After(nextMidnight) {
		return false
	}

	if start.Hour() < venue.OpenHour || start.Hour() >= venue.CloseHour {
		return false
	}

	endHour := end.Hour()
	if end.Equal(nextMidnight) {
		endHour = 24
	}
	if endHour > venue.CloseHour {
		return false
	}
	if endHour == venue.CloseHour && (end.Minute() > 0 || end.Second() > 0) {
		return false
	}
	return true
}

// Cancel cancels a confirmed future booking owned by the caller
func (b *BookingService) Cancel(userID, bookingID string) (*models.Booking, error) {
	booking, err := b.store.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotYourBooking
	}

	now := b.now()
	if !booking.IsCancellable(now) {
		return nil, ErrNotCancellable
	}

	booking.Status = models.BookingStatusCancelled
	booking.CancelledAt = &now
	if booking.PaymentStatus == models.PaymentStatusPaid {
		// Refund is settled offline by the gateway reconciliation job
		booking.PaymentStatus = models.PaymentStatusRefunded
	}

	if err := b.store.UpdateBooking(booking); err != nil {
		return nil, err
	}

	b.notifyCancelled(booking)
	return booking, nil
}

// CheckIn validates the player's code at the venue desk. Open from 30
// minutes before the slot until its end.
func (b *BookingService) CheckIn(bookingID, code string) (*models.Booking, error) {
	booking, err := b.store.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, ErrNotCheckInWindow
	}

	now := b.now()
	if now.Before(booking.StartTime.Add(-30*time.Minute)) || now.After(booking.EndTime) {
		return nil, ErrNotCheckInWindow
	}
	if booking.CheckInCode != code {
		return nil, ErrBadCheckInCode
	}

	booking.Status = models.BookingStatusCheckedIn
	booking.CheckedInAt = &now
	if err := b.store.UpdateBooking(booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// MarkPaid records a captured payment against the booking
func (b *BookingService) MarkPaid(bookingID, gatewayPaymentID string) (*models.Booking, error) {
	booking, err := b.store.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}

	now := b.now()
	booking.PaymentStatus = models.PaymentStatusPaid
	booking.PaymentID = gatewayPaymentID
	booking.PaidAt = &now
	if err := b.store.UpdateBooking(booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// notifyConfirmed sends best-effort confirmation SMS and email
func (b *BookingService) notifyConfirmed(booking *models.Booking, venue *models.Venue, court *models.Court) {
	user, err := b.store.GetUserByID(booking.UserID)
	if err != nil {
		log.Printf("⚠️  Booking %s confirmed but user lookup failed: %v", booking.BookingID, err)
		return
	}

	slot := fmt.Sprintf("%s - %s",
		booking.StartTime.Format("02 Jan 3:04 PM"),
		booking.EndTime.Format("3:04 PM"))

	if b.sms != nil && user.Phone != "" {
		msg := fmt.Sprintf("TurfBook: booking %s confirmed at %s (%s), %s. Check-in code: %s. Amount due: ₹%.0f",
			booking.BookingID, venue.Name, court.Name, slot, booking.CheckInCode, booking.Amount)
		if err := b.sms.SendSMS(user.Phone, msg); err != nil {
			log.Printf("⚠️  Failed to SMS booking confirmation: %v", err)
		}
	}

	if b.mailer != nil {
		body := fmt.Sprintf("Hi %s,\n\nYour booking %s at %s (%s) is confirmed for %s.\nCheck-in code: %s\nAmount: ₹%.2f\n\n- Team TurfBook",
			user.Name, booking.BookingID, venue.Name, court.Name, slot, booking.CheckInCode, booking.Amount)
		if err := b.mailer.SendMail(user.Email, "Booking confirmed - "+venue.Name, body); err != nil {
			log.Printf("⚠️  Failed to email booking confirmation: %v", err)
		}
	}
}

func (b *BookingService) notifyCancelled(booking *models.Booking) {
	user, err := b.store.GetUserByID(booking.UserID)
	if err != nil {
		return
	}
	if b.mailer != nil {
		body := fmt.Sprintf("Hi %s,\n\nYour booking %s has been cancelled.\n\n- Team TurfBook", user.Name, booking.BookingID)
		if err := b.mailer.SendMail(user.Email, "Booking cancelled", body); err != nil {
			log.Printf("⚠️  Failed to email cancellation: %v", err)
		}
	}
}
