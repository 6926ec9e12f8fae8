package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents any account in the system: players who book courts,
// owners who list venues, and admins who approve them.
type User struct {
	gorm.Model

	UserID       string `json:"user_id" gorm:"uniqueIndex"`
	Name         string `json:"name"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	Phone        string `json:"phone"`
	PasswordHash string `json:"-" gorm:"not null"`
	Role         string `json:"role" gorm:"default:player"` // "player", "owner", "admin"

	EmailVerified bool `json:"email_verified" gorm:"default:false"`
	IsActive      bool `json:"is_active" gorm:"default:true"`
	IsSuspended   bool `json:"is_suspended" gorm:"default:false"`

	LastLoginAt *time.Time `json:"last_login_at"`
}

// Role constants
const (
	RolePlayer = "player"
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
)

// BeforeCreate hook to auto-generate UserID and normalize data
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == "" {
		prefix := "US"
		if u.Role == RoleOwner {
			prefix = "OW"
		}
		u.UserID = fmt.Sprintf("%s%d%03d", prefix, time.Now().Unix(), time.Now().Nanosecond()%1000)
	}

	// Emails are compared case-insensitively everywhere, store lowercase
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	// Normalize phone number (ensure it starts with +91 if not already)
	if u.Phone != "" && !strings.HasPrefix(u.Phone, "+") {
		u.Phone = "+91" + strings.TrimPrefix(u.Phone, "91")
	}

	return nil
}

// CanLogin checks whether the account is allowed to authenticate
func (u *User) CanLogin() bool {
	return u.EmailVerified && u.IsActive && !u.IsSuspended
}

// UserRegistration is the payload for new account signup
type UserRegistration struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,min=10"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=player owner"`
}
