package jobs

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/services"
	"github.com/turfbook/turfbook-backend/internal/storage"
)

// CleanupJob runs the recurring housekeeping tasks: purging expired OTP
// rows, completing finished bookings and sending day-before reminders.
type CleanupJob struct {
	store      storage.Store
	otpService *services.OTPService
	sms        *services.SMSService
	mailer     services.Mailer

	// isRunning is read by every job loop, so it must be atomic
	isRunning atomic.Bool
}

// NewCleanupJob creates a new cleanup job scheduler
func NewCleanupJob(store storage.Store, otpService *services.OTPService, sms *services.SMSService, mailer services.Mailer) *CleanupJob {
	return &CleanupJob{
		store:      store,
		otpService: otpService,
		sms:        sms,
		mailer:     mailer,
	}
}

// Start begins all scheduled cleanup jobs
func (j *CleanupJob) Start() {
	if !j.isRunning.CompareAndSwap(false, true) {
		log.Println("Cleanup jobs already running")
		return
	}

	log.Println("Starting scheduled cleanup jobs...")

	go j.scheduleOTPPurge()
	go j.scheduleBookingCompletion()
	go j.scheduleBookingReminders()

	log.Println("All cleanup jobs started successfully")
}

// Stop halts all scheduled jobs
func (j *CleanupJob) Stop() {
	j.isRunning.Store(false)
	log.Println("Stopping scheduled cleanup jobs...")
}

// 1. OTP PURGE - runs every hour
func (j *CleanupJob) scheduleOTPPurge() {
	for j.isRunning.Load() {
		time.Sleep(1 * time.Hour)
		if !j.isRunning.Load() {
			break
		}

		purged, err := j.otpService.PurgeExpired()
		if err != nil {
			log.Printf("Error purging expired OTP codes: %v", err)
			continue
		}
		if purged > 0 {
			log.Printf("🧹 Purged %d expired OTP codes", purged)
		}
	}
}

// 2. BOOKING COMPLETION - runs every 15 minutes, marks confirmed or
// checked-in bookings whose slot has ended as completed
func (j *CleanupJob) scheduleBookingCompletion() {
	for j.isRunning.Load() {
		time.Sleep(15 * time.Minute)
		if !j.isRunning.Load() {
			break
		}

		j.completeFinishedBookings()
	}
}

func (j *CleanupJob) completeFinishedBookings() {
	now := time.Now()

	bookings, err := j.store.GetFinishedConfirmedBookings(now)
	if err != nil {
		log.Printf("Error getting finished bookings: %v", err)
		return
	}

	completed := 0
	for _, booking := range bookings {
		booking.Status = models.BookingStatusCompleted
		booking.CompletedAt = &now
		if err := j.store.UpdateBooking(booking); err != nil {
			log.Printf("Error completing booking %s: %v", booking.BookingID, err)
			continue
		}
		completed++
	}

	if completed > 0 {
		log.Printf("✅ Marked %d bookings as completed", completed)
	}
}

// 3. BOOKING REMINDERS - runs every hour, reminds players about bookings
// starting roughly a day from now
func (j *CleanupJob) scheduleBookingReminders() {
	for j.isRunning.Load() {
		time.Sleep(1 * time.Hour)
		if !j.isRunning.Load() {
			break
		}

		j.sendBookingReminders()
	}
}

func (j *CleanupJob) sendBookingReminders() {
	now := time.Now()
	windowStart := now.Add(23 * time.Hour)
	windowEnd := now.Add(24 * time.Hour)

	bookings, err := j.store.GetBookingsStartingBetween(windowStart, windowEnd)
	if err != nil {
		log.Printf("Error getting bookings for reminders: %v", err)
		return
	}

	sentCount := 0
	for _, booking := range bookings {
		if booking.Status != models.BookingStatusConfirmed {
			continue
		}

		user, err := j.store.GetUserByID(booking.UserID)
		if err != nil {
			log.Printf("Error getting user %s for reminder: %v", booking.UserID, err)
			continue
		}

		venue, err := j.store.GetVenue(booking.VenueID)
		if err != nil {
			log.Printf("Error getting venue %s for reminder: %v", booking.VenueID, err)
			continue
		}

		slot := fmt.Sprintf("%s - %s",
			booking.StartTime.Format("02 Jan 3:04 PM"),
			booking.EndTime.Format("3:04 PM"))

		if j.sms != nil && user.Phone != "" {
			msg := fmt.Sprintf("TurfBook reminder: your game at %s is tomorrow, %s. See you on the turf!",
				venue.Name, slot)
			if err := j.sms.SendSMS(user.Phone, msg); err != nil {
				log.Printf("Error sending reminder SMS for %s: %v", booking.BookingID, err)
			}
		}

		if j.mailer != nil {
			body := fmt.Sprintf("Hi %s,\n\nA reminder that your booking %s at %s is tomorrow, %s.\n\n- Team TurfBook",
				user.Name, booking.BookingID, venue.Name, slot)
			if err := j.mailer.SendMail(user.Email, "Your game is tomorrow - "+venue.Name, body); err != nil {
				log.Printf("Error sending reminder email for %s: %v", booking.BookingID, err)
			}
		}

		sentCount++
	}

	if sentCount > 0 {
		log.Printf("📅 Sent %d booking reminders", sentCount)
	}
}
