package models

import (
	"time"

	"gorm.io/gorm"
)

// OTPCode is a one-time numeric code sent by email to prove control of an
// address, either at signup or for a password reset. At most one unconsumed
// code exists per (email, purpose): issuing a new one deletes the old row.
type OTPCode struct {
	gorm.Model
	Email         string    `gorm:"not null;index:idx_otp_email_purpose"`
	Purpose       string    `gorm:"not null;index:idx_otp_email_purpose"` // "email_verification", "password_reset"
	Code          string    `gorm:"size:6;not null"`
	ExpiresAt     time.Time `gorm:"not null;index"`
	Attempts      int       `gorm:"default:0"`
	IsUsed        bool      `gorm:"default:false"`
	LastAttemptAt *time.Time
	VerifiedAt    *time.Time
}

// OTP purpose constants
const (
	OTPPurposeEmailVerification = "email_verification"
	OTPPurposePasswordReset     = "password_reset"
)

// OTPMaxAttempts caps failed submissions; once reached the code is dead
// even if the correct value is submitted later.
const OTPMaxAttempts = 5

// IsExpired checks if the code is past its TTL
func (o *OTPCode) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// IsLocked checks if the attempt cap has been reached
func (o *OTPCode) IsLocked() bool {
	return o.Attempts >= OTPMaxAttempts
}
