package services

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
	"time"

	"github.com/turfbook/turfbook-backend/internal/models"
)

// Delivery channel constants
const (
	ChannelEmail = "email"
	ChannelLog   = "log"
)

// Mailer delivers one-time codes and transactional mail. Delivery is best
// effort everywhere it is used.
type Mailer interface {
	SendOTP(to, purpose, code string, expiresAt time.Time) (channel string, err error)
	SendMail(to, subject, body string) error
}

// EmailService sends mail over SMTP. When SMTP credentials are absent the
// service degrades to writing codes to the server log so local and staging
// environments keep working; that log line must never be exposed to clients.
type EmailService struct {
	addr       string
	from       string
	auth       smtp.Auth
	configured bool
}

// NewEmailService builds the mailer from SMTP_* environment variables
func NewEmailService() *EmailService {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	username := os.Getenv("SMTP_USERNAME")
	password := os.Getenv("SMTP_PASSWORD")
	from := os.Getenv("MAIL_FROM")

	if host == "" || port == "" {
		log.Println("⚠️  SMTP not configured - OTP codes will be written to server logs")
		return &EmailService{configured: false}
	}

	if from == "" {
		from = "no-reply@turfbook.in"
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	return &EmailService{
		addr:       fmt.Sprintf("%s:%s", host, port),
		from:       from,
		auth:       auth,
		configured: true,
	}
}

// SendOTP delivers a one-time code and reports which channel carried it
func (e *EmailService) SendOTP(to, purpose, code string, expiresAt time.Time) (string, error) {
	if !e.configured {
		// Degraded mode: operational log is the delivery channel
		log.Printf("📧 [no SMTP] OTP for %s (%s): %s (valid until %s)",
			to, purpose, code, expiresAt.Format(time.RFC3339))
		return ChannelLog, nil
	}

	minutes := int(time.Until(expiresAt).Minutes())
	if minutes < 1 {
		minutes = 1
	}

	subject, intro := otpMailCopy(purpose)
	body := fmt.Sprintf("%s\n\nYour verification code is: %s\n\nThe code expires in %d minutes. If you did not request it, you can ignore this email.\n\n- Team TurfBook",
		intro, code, minutes)

	if err := e.SendMail(to, subject, body); err != nil {
		return ChannelEmail, err
	}
	return ChannelEmail, nil
}

// SendMail sends a plain-text email
func (e *EmailService) SendMail(to, subject, body string) error {
	if !e.configured {
		log.Printf("📧 [no SMTP] mail to %s: %s", to, subject)
		return nil
	}

	msg := strings.Join([]string{
		"From: " + e.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(e.addr, e.auth, e.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

func otpMailCopy(purpose string) (subject, intro string) {
	switch purpose {
	case models.OTPPurposePasswordReset:
		return "TurfBook password reset code", "We received a request to reset your TurfBook password."
	default:
		return "Verify your TurfBook email", "Welcome to TurfBook! Confirm your email address to activate your account."
	}
}
