package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/services"
	"github.com/turfbook/turfbook-backend/internal/storage"
)

// validate is shared by all handlers
var validate = validator.New()

// AuthHandler handles signup, verification, login and password reset
type AuthHandler struct {
	auth *services.AuthService
	otp  *services.OTPService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService, otp *services.OTPService) *AuthHandler {
	return &AuthHandler{auth: auth, otp: otp}
}

// deliveryInfo shapes the OTP issuance part of a response
func deliveryInfo(issue *services.IssueResult) fiber.Map {
	return fiber.Map{
		"channel":    issue.Channel,
		"delivered":  issue.Delivered,
		"expires_at": issue.ExpiresAt,
	}
}

// Register creates an account and sends a verification code
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var reg models.UserRegistration
	if err := c.BodyParser(&reg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&reg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	user, issue, err := h.auth.Register(&reg)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Email already registered",
			})
		}
		if user != nil {
			// Account created but the code could not be issued
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{
				"message": "Account created; request a verification code to continue",
				"user":    user,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to register",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Account created, check your email for the verification code",
		"user":         user,
		"verification": deliveryInfo(issue),
	})
}

// VerifyEmail submits a verification code ("submit code" for signup)
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email" validate:"required,email"`
		Code  string `json:"code" validate:"required,len=6"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	status, err := h.auth.VerifyEmail(req.Email, req.Code)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Verification failed, try again",
		})
	}
	if status != services.VerifySuccess {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  status.Message(),
			"status": status.String(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Email verified, you can log in now",
	})
}

// RequestOTP issues a fresh code for either purpose ("request code")
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var req struct {
		Email   string `json:"email" validate:"required,email"`
		Purpose string `json:"purpose" validate:"required,oneof=email_verification password_reset"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var issue *services.IssueResult
	var err error
	if req.Purpose == models.OTPPurposePasswordReset {
		issue, err = h.auth.ForgotPassword(req.Email)
		if errors.Is(err, storage.ErrNotFound) {
			// Do not reveal whether the email exists
			return c.JSON(fiber.Map{
				"message": "If the email is registered, a code has been sent",
			})
		}
	} else {
		issue, err = h.auth.ResendVerification(req.Email)
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Account not found",
			})
		}
	}

	var rateLimited *services.RateLimitedError
	if errors.As(err, &rateLimited) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":       "A code was sent recently, please wait",
			"retry_after": rateLimited.SecondsLeft(),
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to send code",
		})
	}

	return c.JSON(fiber.Map{
		"message":      "Code sent",
		"verification": deliveryInfo(issue),
	})
}

// OTPStatus reports whether an active code is outstanding ("check status")
func (h *AuthHandler) OTPStatus(c *fiber.Ctx) error {
	email := c.Query("email")
	purpose := c.Query("purpose")
	if email == "" || purpose == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email and purpose are required",
		})
	}

	active, secondsLeft, err := h.otp.Status(email, purpose)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check status",
		})
	}

	return c.JSON(fiber.Map{
		"active":       active,
		"seconds_left": secondsLeft,
	})
}

// Login exchanges credentials for a signed access token
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	token, user, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid email or password",
			})
		case errors.Is(err, services.ErrEmailNotVerified):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Verify your email before logging in",
			})
		case errors.Is(err, services.ErrAccountSuspended):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Account suspended, contact support",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Login failed",
			})
		}
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// ResetPassword submits a reset code and a new password
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Email       string `json:"email" validate:"required,email"`
		Code        string `json:"code" validate:"required,len=6"`
		NewPassword string `json:"new_password" validate:"required,min=8"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	status, err := h.auth.ResetPassword(req.Email, req.Code, req.NewPassword)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Password reset failed, try again",
		})
	}
	if status != services.VerifySuccess {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  status.Message(),
			"status": status.String(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Password updated, log in with your new password",
	})
}
