package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/storage"
	"github.com/turfbook/turfbook-backend/internal/utils"
)

// OTPTTL is how long an issued code stays valid. It doubles as the reissue
// cooldown: while an unexpired code is outstanding, no new one is issued.
const OTPTTL = 10 * time.Minute

// VerifyStatus is the outcome of a code submission. These are expected
// results, not errors - only storage faults surface as errors.
type VerifyStatus int

const (
	VerifyInvalid VerifyStatus = iota
	VerifySuccess
	VerifyExpired
	VerifyAlreadyUsed
	VerifyTooManyAttempts
)

func (s VerifyStatus) String() string {
	switch s {
	case VerifySuccess:
		return "success"
	case VerifyExpired:
		return "expired"
	case VerifyAlreadyUsed:
		return "already_used"
	case VerifyTooManyAttempts:
		return "too_many_attempts"
	default:
		return "invalid"
	}
}

// Message is the user-facing explanation for each outcome
func (s VerifyStatus) Message() string {
	switch s {
	case VerifySuccess:
		return "Code verified successfully"
	case VerifyExpired:
		return "This code has expired, please request a new one"
	case VerifyAlreadyUsed:
		return "This code has already been used"
	case VerifyTooManyAttempts:
		return "Too many incorrect attempts, please request a new code"
	default:
		return "Incorrect code"
	}
}

// RateLimitedError is returned by Issue while an earlier code is still live
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("a code was sent recently, retry in %d seconds", e.SecondsLeft())
}

func (e *RateLimitedError) SecondsLeft() int {
	secs := int(e.RetryAfter.Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// IssueResult reports a successfully issued code
type IssueResult struct {
	Code      string
	ExpiresAt time.Time
	Delivered bool
	Channel   string // "email", or "log" when running without SMTP credentials
}

// OTPService owns issuance and verification of email one-time codes
type OTPService struct {
	store  storage.Store
	mailer Mailer

	// now is swappable so tests can move the clock
	now func() time.Time
}

// NewOTPService creates a new OTP service
func NewOTPService(store storage.Store, mailer Mailer) *OTPService {
	return &OTPService{
		store:  store,
		mailer: mailer,
		now:    time.Now,
	}
}

// Issue generates and stores a fresh code for (email, purpose) and hands it
// to the mailer. While an unconsumed, unexpired, unlocked code exists the
// call is refused with RateLimitedError; the wait is computed from the
// stored row's expiry so it survives restarts.
//
// Delivery is best effort: a mail failure is reported in the result but the
// stored code stays valid.
func (s *OTPService) Issue(email, purpose string) (*IssueResult, error) {
	email = normalizeEmail(email)
	now := s.now()

	existing, err := s.store.GetActiveOTP(email, purpose)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up active code: %w", err)
	}
	if existing != nil && !existing.IsExpired(now) && !existing.IsLocked() {
		return nil, &RateLimitedError{RetryAfter: existing.ExpiresAt.Sub(now)}
	}

	code, err := utils.GenerateSecureOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	otp := &models.OTPCode{
		Email:     email,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: now.Add(OTPTTL),
	}
	if _, err := s.store.CreateOTP(otp); err != nil {
		return nil, err
	}

	result := &IssueResult{
		Code:      code,
		ExpiresAt: otp.ExpiresAt,
		Delivered: true,
		Channel:   ChannelEmail,
	}

	if s.mailer != nil {
		channel, err := s.mailer.SendOTP(email, purpose, code, otp.ExpiresAt)
		result.Channel = channel
		if err != nil {
			// Code remains valid; the user may still receive it via a
			// different channel (e.g. ops reading server logs)
			log.Printf("⚠️  Failed to deliver OTP to %s: %v", email, err)
			result.Delivered = false
		}
	}

	return result, nil
}

// Verify checks a submitted code. Checks run in order and each is terminal:
// unknown key, already used, expired, attempt cap, wrong code, success.
// A wrong code increments the attempt counter; success consumes the record
// so it can never verify again.
func (s *OTPService) Verify(email, purpose, submitted string) (VerifyStatus, error) {
	email = normalizeEmail(email)
	now := s.now()

	otp, err := s.store.GetLatestOTP(email, purpose)
	if errors.Is(err, storage.ErrNotFound) {
		return VerifyInvalid, nil
	}
	if err != nil {
		return VerifyInvalid, fmt.Errorf("failed to look up code: %w", err)
	}

	if otp.IsUsed {
		return VerifyAlreadyUsed, nil
	}
	if otp.IsExpired(now) {
		return VerifyExpired, nil
	}
	if otp.IsLocked() {
		return VerifyTooManyAttempts, nil
	}

	if otp.Code != submitted {
		if err := s.store.RecordOTPAttempt(otp.ID, now); err != nil {
			return VerifyInvalid, fmt.Errorf("failed to record attempt: %w", err)
		}
		return VerifyInvalid, nil
	}

	if err := s.store.ConsumeOTP(otp.ID, now); err != nil {
		return VerifyInvalid, fmt.Errorf("failed to consume code: %w", err)
	}
	return VerifySuccess, nil
}

// Status reports whether an active code is outstanding for the key and how
// long the caller must wait before a reissue is allowed.
func (s *OTPService) Status(email, purpose string) (active bool, secondsLeft int, err error) {
	email = normalizeEmail(email)
	now := s.now()

	otp, err := s.store.GetActiveOTP(email, purpose)
	if errors.Is(err, storage.ErrNotFound) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	if otp.IsExpired(now) || otp.IsLocked() {
		return false, 0, nil
	}
	return true, int(otp.ExpiresAt.Sub(now).Seconds()), nil
}

// PurgeExpired garbage-collects expired unconsumed codes. Verification
// enforces expiry on its own, so this only reclaims rows.
func (s *OTPService) PurgeExpired() (int64, error) {
	return s.store.DeleteExpiredOTPs(s.now())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
