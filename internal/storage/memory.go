package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/turfbook/turfbook-backend/internal/models"
)

// MemoryStore holds all data in memory. Used by tests and when
// USE_MEMORY_STORE=true (not for production).
type MemoryStore struct {
	users    map[string]*models.User  // keyed by UserID
	venues   map[string]*models.Venue // keyed by VenueID
	courts   map[string]*models.Court // keyed by CourtID
	bookings map[string]*models.Booking
	payments map[string]*models.Payment // keyed by OrderID
	reviews  map[string]*models.Review
	otps     map[uint]*models.OTPCode
	tickets  map[string]*models.SupportTicket

	// Mutexes for thread safety
	userMu    sync.RWMutex
	venueMu   sync.RWMutex
	bookingMu sync.RWMutex
	paymentMu sync.RWMutex
	reviewMu  sync.RWMutex
	otpMu     sync.RWMutex
	ticketMu  sync.RWMutex

	// Counters for ID generation
	userCounter    int
	venueCounter   int
	courtCounter   int
	bookingCounter int
	paymentCounter int
	reviewCounter  int
	otpCounter     uint
	ticketCounter  int
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*models.User),
		venues:   make(map[string]*models.Venue),
		courts:   make(map[string]*models.Court),
		bookings: make(map[string]*models.Booking),
		payments: make(map[string]*models.Payment),
		reviews:  make(map[string]*models.Review),
		otps:     make(map[uint]*models.OTPCode),
		tickets:  make(map[string]*models.SupportTicket),
	}
}

// ========== User operations ==========

func (m *MemoryStore) CreateUser(user *models.User) (*models.User, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range m.users {
		if u.Email == user.Email {
			return nil, fmt.Errorf("email already registered")
		}
	}

	m.userCounter++
	if user.UserID == "" {
		prefix := "US"
		if user.Role == models.RoleOwner {
			prefix = "OW"
		}
		user.UserID = fmt.Sprintf("%s%05d", prefix, m.userCounter)
	}
	user.ID = uint(m.userCounter)
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	if user.Role == "" {
		user.Role = models.RolePlayer
	}
	user.IsActive = true

	m.users[user.UserID] = user
	return user, nil
}

func (m *MemoryStore) GetUserByID(userID string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	user, exists := m.users[userID]
	if !exists {
		return nil, ErrNotFound
	}
	return user, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateUser(user *models.User) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	if _, exists := m.users[user.UserID]; !exists {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

// ========== Venue operations ==========

func (m *MemoryStore) CreateVenue(venue *models.Venue) (*models.Venue, error) {
	m.venueMu.Lock()
	defer m.venueMu.Unlock()

	m.venueCounter++
	if venue.VenueID == "" {
		venue.VenueID = fmt.Sprintf("VN%05d", m.venueCounter)
	}
	if venue.Status == "" {
		venue.Status = models.VenueStatusPending
	}
	venue.CreatedAt = time.Now()
	venue.UpdatedAt = time.Now()

	for i := range venue.Courts {
		m.courtCounter++
		court := &venue.Courts[i]
		if court.CourtID == "" {
			court.CourtID = fmt.Sprintf("CT%05d", m.courtCounter)
		}
		court.VenueID = venue.VenueID
		court.Active = true
		court.CreatedAt = time.Now()
		m.courts[court.CourtID] = court
	}

	m.venues[venue.VenueID] = venue
	return venue, nil
}

func (m *MemoryStore) GetVenue(venueID string) (*models.Venue, error) {
	m.venueMu.RLock()
	defer m.venueMu.RUnlock()

	venue, exists := m.venues[venueID]
	if !exists {
		return nil, ErrNotFound
	}
	return venue, nil
}

func (m *MemoryStore) GetVenuesByOwner(ownerID string) ([]*models.Venue, error) {
	m.venueMu.RLock()
	defer m.venueMu.RUnlock()

	var venues []*models.Venue
	for _, venue := range m.venues {
		if venue.OwnerID == ownerID {
			venues = append(venues, venue)
		}
	}
	return venues, nil
}

func (m *MemoryStore) SearchVenues(search *models.VenueSearch) ([]*models.Venue, int64, error) {
	m.venueMu.RLock()
	defer m.venueMu.RUnlock()

	var results []*models.Venue
	for _, venue := range m.venues {
		if venue.Status != models.VenueStatusApproved {
			continue
		}
		if search.City != "" && !strings.EqualFold(venue.City, search.City) {
			continue
		}
		if search.Sport != "" {
			hasSport := false
			for _, court := range venue.Courts {
				if strings.EqualFold(court.Sport, search.Sport) && court.Active {
					hasSport = true
					break
				}
			}
			if !hasSport {
				continue
			}
		}
		results = append(results, venue)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Rating > results[j].Rating
	})

	total := int64(len(results))

	page := search.Page
	if page < 1 {
		page = 1
	}
	limit := search.Limit
	if limit < 1 || limit > 50 {
		limit = 20
	}
	offset := (page - 1) * limit
	if offset >= len(results) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end], total, nil
}

func (m *MemoryStore) UpdateVenue(venue *models.Venue) error {
	m.venueMu.Lock()
	defer m.venueMu.Unlock()

	if _, exists := m.venues[venue.VenueID]; !exists {
		return ErrNotFound
	}
	venue.UpdatedAt = time.Now()
	m.venues[venue.VenueID] = venue
	return nil
}

func (m *MemoryStore) UpdateVenueRating(venueID string, rating float64, totalReviews int) error {
	m.venueMu.Lock()
	defer m.venueMu.Unlock()

	venue, exists := m.venues[venueID]
	if !exists {
		return ErrNotFound
	}
	venue.Rating = rating
	venue.TotalReviews = totalReviews
	venue.UpdatedAt = time.Now()
	return nil
}

// ========== Court operations ==========

func (m *MemoryStore) GetCourt(courtID string) (*models.Court, error) {
	m.venueMu.RLock()
	defer m.venueMu.RUnlock()

	court, exists := m.courts[courtID]
	if !exists {
		return nil, ErrNotFound
	}
	return court, nil
}

func (m *MemoryStore) GetCourtsByVenue(venueID string) ([]*models.Court, error) {
	m.venueMu.RLock()
	defer m.venueMu.RUnlock()

	var courts []*models.Court
	for _, court := range m.courts {
		if court.VenueID == venueID {
			courts = append(courts, court)
		}
	}
	return courts, nil
}

// ========== Booking operations ==========

func (m *MemoryStore) CreateBooking(booking *models.Booking) (*models.Booking, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	m.bookingCounter++
	if booking.BookingID == "" {
		booking.BookingID = fmt.Sprintf("BK%05d", m.bookingCounter)
	}
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()

	m.bookings[booking.BookingID] = booking
	return booking, nil
}

func (m *MemoryStore) GetBooking(bookingID string) (*models.Booking, error) {
	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()

	booking, exists := m.bookings[bookingID]
	if !exists {
		return nil, ErrNotFound
	}
	return booking, nil
}

func (m *MemoryStore) GetBookingsByUser(userID string) ([]*models.Booking, error) {
	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()

	var bookings []*models.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			bookings = append(bookings, b)
		}
	}
	return bookings, nil
}

func (m *MemoryStore) GetBookingsByVenue(venueID string) ([]*models.Booking, error) {
	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()

	var bookings []*models.Booking
	for _, b := range m.bookings {
		if b.VenueID == venueID {
			bookings = append(bookings, b)
		}
	}
	return bookings, nil
}

func (m *MemoryStore) GetCourtBookingsInRange(courtID string, start, end time.Time) ([]*models.Booking, error) {
	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()

	var bookings []*models.Booking
	for _, b := range m.bookings {
		if b.CourtID != courtID || b.Status == models.BookingStatusCancelled {
			continue
		}
		if b.Overlaps(start, end) {
			bookings = append(bookings, b)
		}
	}
	return bookings, nil
}

func (m *MemoryStore) GetBookingsStartingBetween(start, end time.Time) ([]*models.Booking, error) {
	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()

	var bookings []*models.Booking
	for _, b := range m.bookings {
		if b.Status != models.BookingStatusConfirmed {
			continue
		}
		if !b.StartTime.Before(start) && b.StartTime.Before(end) {
			bookings = append(bookings, b)
		}
	}
	return bookings, nil
}

func (m *MemoryStore) GetFinishedConfirmedBookings(before time.Time) ([]*models.Booking, error) {
	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()

	var bookings []*models.Booking
	for _, b := range m.bookings {
		if b.Status != models.BookingStatusConfirmed && b.Status != models.BookingStatusCheckedIn {
			continue
		}
		if b.EndTime.Before(before) {
			bookings = append(bookings, b)
		}
	}
	return bookings, nil
}

func (m *MemoryStore) UpdateBooking(booking *models.Booking) error {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	if _, exists := m.bookings[booking.BookingID]; !exists {
		return ErrNotFound
	}
	booking.UpdatedAt = time.Now()
	m.bookings[booking.BookingID] = booking
	return nil
}

// ========== Payment operations ==========

func (m *MemoryStore) CreatePayment(payment *models.Payment) (*models.Payment, error) {
	m.paymentMu.Lock()
	defer m.paymentMu.Unlock()

	m.paymentCounter++
	if payment.PaymentRef == "" {
		payment.PaymentRef = fmt.Sprintf("PAY%05d", m.paymentCounter)
	}
	if payment.Status == "" {
		payment.Status = models.PaymentOrderCreated
	}
	payment.CreatedAt = time.Now()

	m.payments[payment.OrderID] = payment
	return payment, nil
}

func (m *MemoryStore) GetPaymentByOrderID(orderID string) (*models.Payment, error) {
	m.paymentMu.RLock()
	defer m.paymentMu.RUnlock()

	payment, exists := m.payments[orderID]
	if !exists {
		return nil, ErrNotFound
	}
	return payment, nil
}

func (m *MemoryStore) UpdatePayment(payment *models.Payment) error {
	m.paymentMu.Lock()
	defer m.paymentMu.Unlock()

	if _, exists := m.payments[payment.OrderID]; !exists {
		return ErrNotFound
	}
	m.payments[payment.OrderID] = payment
	return nil
}

// ========== Review operations ==========

func (m *MemoryStore) CreateReview(review *models.Review) (*models.Review, error) {
	m.reviewMu.Lock()
	defer m.reviewMu.Unlock()

	m.reviewCounter++
	if review.ReviewID == "" {
		review.ReviewID = fmt.Sprintf("RV%05d", m.reviewCounter)
	}
	review.CreatedAt = time.Now()

	m.reviews[review.ReviewID] = review
	return review, nil
}

func (m *MemoryStore) GetReviewsByVenue(venueID string) ([]*models.Review, error) {
	m.reviewMu.RLock()
	defer m.reviewMu.RUnlock()

	var reviews []*models.Review
	for _, r := range m.reviews {
		if r.VenueID == venueID {
			reviews = append(reviews, r)
		}
	}
	return reviews, nil
}

func (m *MemoryStore) GetReviewByBooking(userID, bookingID string) (*models.Review, error) {
	m.reviewMu.RLock()
	defer m.reviewMu.RUnlock()

	for _, r := range m.reviews {
		if r.UserID == userID && r.BookingID == bookingID {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetVenueRatingAggregate(venueID string) (float64, int, error) {
	m.reviewMu.RLock()
	defer m.reviewMu.RUnlock()

	sum, count := 0, 0
	for _, r := range m.reviews {
		if r.VenueID == venueID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

// ========== OTP operations ==========

func (m *MemoryStore) CreateOTP(otp *models.OTPCode) (*models.OTPCode, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	// Supersede: drop any unconsumed code for the same key
	for id, existing := range m.otps {
		if existing.Email == otp.Email && existing.Purpose == otp.Purpose && !existing.IsUsed {
			delete(m.otps, id)
		}
	}

	m.otpCounter++
	otp.ID = m.otpCounter
	otp.CreatedAt = time.Now()

	m.otps[otp.ID] = otp
	return otp, nil
}

func (m *MemoryStore) GetActiveOTP(email, purpose string) (*models.OTPCode, error) {
	m.otpMu.RLock()
	defer m.otpMu.RUnlock()

	var latest *models.OTPCode
	for _, otp := range m.otps {
		if otp.Email != email || otp.Purpose != purpose || otp.IsUsed {
			continue
		}
		if latest == nil || otp.ID > latest.ID {
			latest = otp
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (m *MemoryStore) GetLatestOTP(email, purpose string) (*models.OTPCode, error) {
	m.otpMu.RLock()
	defer m.otpMu.RUnlock()

	var latest *models.OTPCode
	for _, otp := range m.otps {
		if otp.Email != email || otp.Purpose != purpose {
			continue
		}
		if latest == nil || otp.ID > latest.ID {
			latest = otp
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (m *MemoryStore) RecordOTPAttempt(id uint, at time.Time) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	otp, exists := m.otps[id]
	if !exists {
		return ErrNotFound
	}
	otp.Attempts++
	otp.LastAttemptAt = &at
	return nil
}

func (m *MemoryStore) ConsumeOTP(id uint, at time.Time) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	otp, exists := m.otps[id]
	if !exists {
		return ErrNotFound
	}
	if otp.IsUsed {
		return nil
	}
	otp.IsUsed = true
	otp.VerifiedAt = &at
	return nil
}

func (m *MemoryStore) DeleteExpiredOTPs(now time.Time) (int64, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	var deleted int64
	for id, otp := range m.otps {
		if !otp.IsUsed && otp.IsExpired(now) {
			delete(m.otps, id)
			deleted++
		}
	}
	return deleted, nil
}

// ========== Analytics operations ==========

func (m *MemoryStore) GetVenueStats(venueID string) (*models.VenueStats, error) {
	venue, err := m.GetVenue(venueID)
	if err != nil {
		return nil, err
	}

	bookings, _ := m.GetBookingsByVenue(venueID)

	stats := &models.VenueStats{
		VenueID:       venueID,
		AverageRating: venue.Rating,
	}
	for _, b := range bookings {
		stats.TotalBookings++
		switch b.Status {
		case models.BookingStatusCompleted:
			stats.CompletedBookings++
		case models.BookingStatusCancelled:
			stats.CancelledBookings++
		}
		if b.PaymentStatus == models.PaymentStatusPaid {
			stats.TotalRevenue += b.NetAmount
			stats.CommissionPaid += b.Commission
		}
		if stats.LastBookingAt == nil || b.CreatedAt.After(*stats.LastBookingAt) {
			createdAt := b.CreatedAt
			stats.LastBookingAt = &createdAt
		}
	}
	return stats, nil
}

func (m *MemoryStore) GetPlayerStats(userID string) (*models.PlayerStats, error) {
	bookings, _ := m.GetBookingsByUser(userID)

	stats := &models.PlayerStats{UserID: userID}
	for _, b := range bookings {
		stats.TotalBookings++
		if b.Status == models.BookingStatusCompleted {
			stats.CompletedBookings++
		}
		if b.PaymentStatus == models.PaymentStatusPaid {
			stats.TotalSpent += b.Amount
		}
		if stats.LastActiveAt == nil || b.CreatedAt.After(*stats.LastActiveAt) {
			createdAt := b.CreatedAt
			stats.LastActiveAt = &createdAt
		}
	}
	return stats, nil
}

// ========== Admin operations ==========

func (m *MemoryStore) GetPendingVenues() ([]*models.Venue, error) {
	m.venueMu.RLock()
	defer m.venueMu.RUnlock()

	var venues []*models.Venue
	for _, venue := range m.venues {
		if venue.Status == models.VenueStatusPending {
			venues = append(venues, venue)
		}
	}
	return venues, nil
}

func (m *MemoryStore) UpdateVenueStatus(venueID string, status string, adminNotes string) error {
	m.venueMu.Lock()
	defer m.venueMu.Unlock()

	venue, exists := m.venues[venueID]
	if !exists {
		return ErrNotFound
	}
	venue.Status = status
	venue.AdminNotes = adminNotes
	venue.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) SuspendUser(userID string, reason string) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	user, exists := m.users[userID]
	if !exists {
		return ErrNotFound
	}
	user.IsSuspended = true
	return nil
}

func (m *MemoryStore) ReactivateUser(userID string) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	user, exists := m.users[userID]
	if !exists {
		return ErrNotFound
	}
	user.IsSuspended = false
	return nil
}

// ========== Support operations ==========

func (m *MemoryStore) CreateSupportTicket(ticket *models.SupportTicket) (*models.SupportTicket, error) {
	m.ticketMu.Lock()
	defer m.ticketMu.Unlock()

	m.ticketCounter++
	if ticket.TicketID == "" {
		ticket.TicketID = fmt.Sprintf("TK%05d", m.ticketCounter)
	}
	if ticket.Status == "" {
		ticket.Status = "open"
	}
	if ticket.Priority == "" {
		ticket.Priority = "medium"
	}
	if ticket.IssueType == "" {
		ticket.IssueType = models.IssueTypeGeneral
	}
	ticket.CreatedAt = time.Now()

	m.tickets[ticket.TicketID] = ticket
	return ticket, nil
}

func (m *MemoryStore) GetSupportTicket(ticketID string) (*models.SupportTicket, error) {
	m.ticketMu.RLock()
	defer m.ticketMu.RUnlock()

	ticket, exists := m.tickets[ticketID]
	if !exists {
		return nil, ErrNotFound
	}
	return ticket, nil
}

func (m *MemoryStore) GetSupportTicketsByUser(userID string) ([]*models.SupportTicket, error) {
	m.ticketMu.RLock()
	defer m.ticketMu.RUnlock()

	var tickets []*models.SupportTicket
	for _, t := range m.tickets {
		if t.UserID == userID {
			tickets = append(tickets, t)
		}
	}
	return tickets, nil
}

func (m *MemoryStore) UpdateSupportTicket(ticket *models.SupportTicket) error {
	m.ticketMu.Lock()
	defer m.ticketMu.Unlock()

	if _, exists := m.tickets[ticket.TicketID]; !exists {
		return ErrNotFound
	}
	ticket.UpdatedAt = time.Now()
	m.tickets[ticket.TicketID] = ticket
	return nil
}
