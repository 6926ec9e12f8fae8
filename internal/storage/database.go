package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/turfbook/turfbook-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM/PostgreSQL
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ========== User operations ==========

func (d *DatabaseStore) CreateUser(user *models.User) (*models.User, error) {
	if err := d.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (d *DatabaseStore) GetUserByID(userID string) (*models.User, error) {
	var user models.User
	if err := d.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (d *DatabaseStore) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := d.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (d *DatabaseStore) UpdateUser(user *models.User) error {
	return d.db.Save(user).Error
}

// ========== Venue operations ==========

func (d *DatabaseStore) CreateVenue(venue *models.Venue) (*models.Venue, error) {
	if err := d.db.Create(venue).Error; err != nil {
		return nil, fmt.Errorf("failed to create venue: %w", err)
	}
	return venue, nil
}

func (d *DatabaseStore) GetVenue(venueID string) (*models.Venue, error) {
	var venue models.Venue
	err := d.db.Preload("Courts").Where("venue_id = ?", venueID).First(&venue).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &venue, nil
}

func (d *DatabaseStore) GetVenuesByOwner(ownerID string) ([]*models.Venue, error) {
	var venues []*models.Venue
	err := d.db.Preload("Courts").Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&venues).Error
	return venues, err
}

func (d *DatabaseStore) SearchVenues(search *models.VenueSearch) ([]*models.Venue, int64, error) {
	query := d.db.Model(&models.Venue{}).Where("status = ?", models.VenueStatusApproved)

	if search.City != "" {
		query = query.Where("LOWER(city) = LOWER(?)", search.City)
	}
	if search.Sport != "" {
		sub := d.db.Model(&models.Court{}).Select("venue_id").
			Where("LOWER(sport) = LOWER(?) AND active = ?", search.Sport, true)
		query = query.Where("venue_id IN (?)", sub)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := search.Page
	if page < 1 {
		page = 1
	}
	limit := search.Limit
	if limit < 1 || limit > 50 {
		limit = 20
	}

	var venues []*models.Venue
	err := query.Preload("Courts").
		Order("rating DESC, created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&venues).Error
	return venues, total, err
}

func (d *DatabaseStore) UpdateVenue(venue *models.Venue) error {
	return d.db.Save(venue).Error
}

func (d *DatabaseStore) UpdateVenueRating(venueID string, rating float64, totalReviews int) error {
	result := d.db.Model(&models.Venue{}).Where("venue_id = ?", venueID).Updates(map[string]interface{}{
		"rating":        rating,
		"total_reviews": totalReviews,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ========== Court operations ==========

func (d *DatabaseStore) GetCourt(courtID string) (*models.Court, error) {
	var court models.Court
	if err := d.db.Where("court_id = ?", courtID).First(&court).Error; err != nil {
		return nil, translateErr(err)
	}
	return &court, nil
}

func (d *DatabaseStore) GetCourtsByVenue(venueID string) ([]*models.Court, error) {
	var courts []*models.Court
	err := d.db.Where("venue_id = ?", venueID).Order("name").Find(&courts).Error
	return courts, err
}

// ========== Booking operations ==========

func (d *DatabaseStore) CreateBooking(booking *models.Booking) (*models.Booking, error) {
	if err := d.db.Create(booking).Error; err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	return booking, nil
}

func (d *DatabaseStore) GetBooking(bookingID string) (*models.Booking, error) {
	var booking models.Booking
	if err := d.db.Where("booking_id = ?", bookingID).First(&booking).Error; err != nil {
		return nil, translateErr(err)
	}
	return &booking, nil
}

func (d *DatabaseStore) GetBookingsByUser(userID string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := d.db.Where("user_id = ?", userID).Order("start_time DESC").Find(&bookings).Error
	return bookings, err
}

func (d *DatabaseStore) GetBookingsByVenue(venueID string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := d.db.Where("venue_id = ?", venueID).Order("start_time DESC").Find(&bookings).Error
	return bookings, err
}

func (d *DatabaseStore) GetCourtBookingsInRange(courtID string, start, end time.Time) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := d.db.Where("court_id = ? AND status <> ? AND start_time < ? AND end_time > ?",
		courtID, models.BookingStatusCancelled, end, start).Find(&bookings).Error
	return bookings, err
}

func (d *DatabaseStore) GetBookingsStartingBetween(start, end time.Time) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := d.db.Where("status = ? AND start_time >= ? AND start_time < ?",
		models.BookingStatusConfirmed, start, end).Find(&bookings).Error
	return bookings, err
}

func (d *DatabaseStore) GetFinishedConfirmedBookings(before time.Time) ([]*models.Booking, error) {
	var bookings []*models.Booking
	err := d.db.Where("status IN ? AND end_time < ?",
		[]string{models.BookingStatusConfirmed, models.BookingStatusCheckedIn}, before).Find(&bookings).Error
	return bookings, err
}

func (d *DatabaseStore) UpdateBooking(booking *models.Booking) error {
	return d.db.Save(booking).Error
}

// ========== Payment operations ==========

func (d *DatabaseStore) CreatePayment(payment *models.Payment) (*models.Payment, error) {
	if err := d.db.Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return payment, nil
}

func (d *DatabaseStore) GetPaymentByOrderID(orderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := d.db.Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		return nil, translateErr(err)
	}
	return &payment, nil
}

func (d *DatabaseStore) UpdatePayment(payment *models.Payment) error {
	return d.db.Save(payment).Error
}

// ========== Review operations ==========

func (d *DatabaseStore) CreateReview(review *models.Review) (*models.Review, error) {
	if err := d.db.Create(review).Error; err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}

func (d *DatabaseStore) GetReviewsByVenue(venueID string) ([]*models.Review, error) {
	var reviews []*models.Review
	err := d.db.Where("venue_id = ?", venueID).Order("created_at DESC").Find(&reviews).Error
	return reviews, err
}

func (d *DatabaseStore) GetReviewByBooking(userID, bookingID string) (*models.Review, error) {
	var review models.Review
	err := d.db.Where("user_id = ? AND booking_id = ?", userID, bookingID).First(&review).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &review, nil
}

func (d *DatabaseStore) GetVenueRatingAggregate(venueID string) (float64, int, error) {
	var result struct {
		Avg   float64
		Count int
	}
	err := d.db.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("venue_id = ?", venueID).
		Scan(&result).Error
	if err != nil {
		return 0, 0, err
	}
	return result.Avg, result.Count, nil
}

// ========== OTP operations ==========

// CreateOTP deletes any prior unconsumed code for the same (email, purpose)
// and inserts the new one, keeping at most one active code per key.
func (d *DatabaseStore) CreateOTP(otp *models.OTPCode) (*models.OTPCode, error) {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ? AND purpose = ? AND is_used = ?",
			otp.Email, otp.Purpose, false).Delete(&models.OTPCode{}).Error; err != nil {
			return err
		}
		return tx.Create(otp).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OTP: %w", err)
	}
	return otp, nil
}

// GetActiveOTP returns the most recent unconsumed code regardless of expiry;
// callers apply the expiry check themselves.
func (d *DatabaseStore) GetActiveOTP(email, purpose string) (*models.OTPCode, error) {
	var otp models.OTPCode
	err := d.db.Where("email = ? AND purpose = ? AND is_used = ?", email, purpose, false).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &otp, nil
}

// GetLatestOTP returns the most recent code for the key whether or not it
// has been consumed. Verification uses this so a consumed code can still be
// reported as already used rather than unknown.
func (d *DatabaseStore) GetLatestOTP(email, purpose string) (*models.OTPCode, error) {
	var otp models.OTPCode
	err := d.db.Where("email = ? AND purpose = ?", email, purpose).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &otp, nil
}

// RecordOTPAttempt increments the attempt counter in SQL so that concurrent
// submissions cannot overwrite each other's increments.
func (d *DatabaseStore) RecordOTPAttempt(id uint, at time.Time) error {
	return d.db.Model(&models.OTPCode{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"attempts":        gorm.Expr("attempts + 1"),
			"last_attempt_at": at,
		}).Error
}

// ConsumeOTP marks the code used; a no-op if it was already consumed.
func (d *DatabaseStore) ConsumeOTP(id uint, at time.Time) error {
	return d.db.Model(&models.OTPCode{}).Where("id = ? AND is_used = ?", id, false).
		Updates(map[string]interface{}{
			"is_used":     true,
			"verified_at": at,
		}).Error
}

// DeleteExpiredOTPs garbage-collects expired unconsumed codes. Expiry is
// enforced at verification time too, so skipping this is always safe.
func (d *DatabaseStore) DeleteExpiredOTPs(now time.Time) (int64, error) {
	result := d.db.Unscoped().Where("is_used = ? AND expires_at < ?", false, now).Delete(&models.OTPCode{})
	return result.RowsAffected, result.Error
}

// ========== Analytics operations ==========

func (d *DatabaseStore) GetVenueStats(venueID string) (*models.VenueStats, error) {
	venue, err := d.GetVenue(venueID)
	if err != nil {
		return nil, err
	}

	stats := &models.VenueStats{
		VenueID:       venueID,
		AverageRating: venue.Rating,
	}

	var total, completed, cancelled int64
	d.db.Model(&models.Booking{}).Where("venue_id = ?", venueID).Count(&total)
	d.db.Model(&models.Booking{}).Where("venue_id = ? AND status = ?", venueID, models.BookingStatusCompleted).Count(&completed)
	d.db.Model(&models.Booking{}).Where("venue_id = ? AND status = ?", venueID, models.BookingStatusCancelled).Count(&cancelled)
	stats.TotalBookings = int(total)
	stats.CompletedBookings = int(completed)
	stats.CancelledBookings = int(cancelled)

	var money struct {
		Revenue    float64
		Commission float64
	}
	err = d.db.Model(&models.Booking{}).
		Select("COALESCE(SUM(net_amount), 0) AS revenue, COALESCE(SUM(commission), 0) AS commission").
		Where("venue_id = ? AND payment_status = ?", venueID, models.PaymentStatusPaid).
		Scan(&money).Error
	if err != nil {
		return nil, err
	}
	stats.TotalRevenue = money.Revenue
	stats.CommissionPaid = money.Commission

	var last models.Booking
	if err := d.db.Where("venue_id = ?", venueID).Order("created_at DESC").First(&last).Error; err == nil {
		createdAt := last.CreatedAt
		stats.LastBookingAt = &createdAt
	}

	return stats, nil
}

func (d *DatabaseStore) GetPlayerStats(userID string) (*models.PlayerStats, error) {
	stats := &models.PlayerStats{UserID: userID}

	var total, completed int64
	d.db.Model(&models.Booking{}).Where("user_id = ?", userID).Count(&total)
	d.db.Model(&models.Booking{}).Where("user_id = ? AND status = ?", userID, models.BookingStatusCompleted).Count(&completed)
	stats.TotalBookings = int(total)
	stats.CompletedBookings = int(completed)

	var spent float64
	err := d.db.Model(&models.Booking{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND payment_status = ?", userID, models.PaymentStatusPaid).
		Scan(&spent).Error
	if err != nil {
		return nil, err
	}
	stats.TotalSpent = spent

	var last models.Booking
	if err := d.db.Where("user_id = ?", userID).Order("created_at DESC").First(&last).Error; err == nil {
		createdAt := last.CreatedAt
		stats.LastActiveAt = &createdAt
	}

	return stats, nil
}

// ========== Admin operations ==========

func (d *DatabaseStore) GetPendingVenues() ([]*models.Venue, error) {
	var venues []*models.Venue
	err := d.db.Preload("Courts").Where("status = ?", models.VenueStatusPending).
		Order("created_at ASC").Find(&venues).Error
	return venues, err
}

func (d *DatabaseStore) UpdateVenueStatus(venueID string, status string, adminNotes string) error {
	result := d.db.Model(&models.Venue{}).Where("venue_id = ?", venueID).Updates(map[string]interface{}{
		"status":      status,
		"admin_notes": adminNotes,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) SuspendUser(userID string, reason string) error {
	result := d.db.Model(&models.User{}).Where("user_id = ?", userID).
		Update("is_suspended", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseStore) ReactivateUser(userID string) error {
	result := d.db.Model(&models.User{}).Where("user_id = ?", userID).
		Update("is_suspended", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ========== Support operations ==========

func (d *DatabaseStore) CreateSupportTicket(ticket *models.SupportTicket) (*models.SupportTicket, error) {
	if err := d.db.Create(ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to create support ticket: %w", err)
	}
	return ticket, nil
}

func (d *DatabaseStore) GetSupportTicket(ticketID string) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	if err := d.db.Where("ticket_id = ?", ticketID).First(&ticket).Error; err != nil {
		return nil, translateErr(err)
	}
	return &ticket, nil
}

func (d *DatabaseStore) GetSupportTicketsByUser(userID string) ([]*models.SupportTicket, error) {
	var tickets []*models.SupportTicket
	err := d.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&tickets).Error
	return tickets, err
}

func (d *DatabaseStore) UpdateSupportTicket(ticket *models.SupportTicket) error {
	return d.db.Save(ticket).Error
}
