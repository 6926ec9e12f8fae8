package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/storage"
)

// Auth errors surfaced to handlers
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAccountSuspended   = errors.New("account suspended")
)

// AuthService handles signup, email verification, login and password reset
type AuthService struct {
	store      storage.Store
	otpService *OTPService
	jwtSecret  []byte
	tokenTTL   time.Duration
}

// NewAuthService creates the auth service. JWT_SECRET must be set outside
// of local development.
func NewAuthService(store storage.Store, otpService *OTPService) *AuthService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "turfbook-dev-secret"
	}
	return &AuthService{
		store:      store,
		otpService: otpService,
		jwtSecret:  []byte(secret),
		tokenTTL:   24 * time.Hour,
	}
}

// Register creates an inactive account and emails a verification code
func (a *AuthService) Register(reg *models.UserRegistration) (*models.User, *IssueResult, error) {
	if _, err := a.store.GetUserByEmail(reg.Email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := reg.Role
	if role == "" {
		role = models.RolePlayer
	}

	user := &models.User{
		Name:         reg.Name,
		Email:        reg.Email,
		Phone:        reg.Phone,
		PasswordHash: string(hash),
		Role:         role,
	}
	user, err = a.store.CreateUser(user)
	if err != nil {
		return nil, nil, err
	}

	issue, err := a.otpService.Issue(user.Email, models.OTPPurposeEmailVerification)
	if err != nil {
		// Account exists; the user can request a fresh code later
		return user, nil, err
	}
	return user, issue, nil
}

// VerifyEmail submits a verification code and activates the account
func (a *AuthService) VerifyEmail(email, code string) (VerifyStatus, error) {
	status, err := a.otpService.Verify(email, models.OTPPurposeEmailVerification, code)
	if err != nil || status != VerifySuccess {
		return status, err
	}

	user, err := a.store.GetUserByEmail(email)
	if err != nil {
		return status, fmt.Errorf("verified code but user lookup failed: %w", err)
	}
	user.EmailVerified = true
	if err := a.store.UpdateUser(user); err != nil {
		return status, err
	}
	return VerifySuccess, nil
}

// ResendVerification issues a fresh verification code for an unverified account
func (a *AuthService) ResendVerification(email string) (*IssueResult, error) {
	user, err := a.store.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if user.EmailVerified {
		return nil, fmt.Errorf("email already verified")
	}
	return a.otpService.Issue(user.Email, models.OTPPurposeEmailVerification)
}

// Login checks credentials and mints a signed access token
func (a *AuthService) Login(email, password string) (string, *models.User, error) {
	user, err := a.store.GetUserByEmail(email)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return "", nil, ErrEmailNotVerified
	}
	if user.IsSuspended || !user.IsActive {
		return "", nil, ErrAccountSuspended
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.UserID,
		"email": user.Email,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(a.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	user.LastLoginAt = &now
	_ = a.store.UpdateUser(user)

	return token, user, nil
}

// ForgotPassword issues a reset code for an existing account. The handler
// masks ErrNotFound so the endpoint cannot be used to enumerate emails.
func (a *AuthService) ForgotPassword(email string) (*IssueResult, error) {
	if _, err := a.store.GetUserByEmail(email); err != nil {
		return nil, err
	}
	return a.otpService.Issue(email, models.OTPPurposePasswordReset)
}

// ResetPassword submits a reset code and replaces the password on success
func (a *AuthService) ResetPassword(email, code, newPassword string) (VerifyStatus, error) {
	status, err := a.otpService.Verify(email, models.OTPPurposePasswordReset, code)
	if err != nil || status != VerifySuccess {
		return status, err
	}

	user, err := a.store.GetUserByEmail(email)
	if err != nil {
		return status, fmt.Errorf("verified code but user lookup failed: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return status, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	if err := a.store.UpdateUser(user); err != nil {
		return status, err
	}
	return VerifySuccess, nil
}

// JWTSecret exposes the signing key to the auth middleware
func (a *AuthService) JWTSecret() []byte {
	return a.jwtSecret
}
