package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/storage"
	"github.com/turfbook/turfbook-backend/internal/utils"
)

const razorpayOrdersURL = "https://api.razorpay.com/v1/orders"

// Payment errors surfaced to handlers
var (
	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
	ErrAlreadyPaid          = errors.New("booking already paid")
)

// PaymentService creates Razorpay orders for bookings and applies gateway
// webhooks back onto them
type PaymentService struct {
	store          storage.Store
	bookingService *BookingService
	mailer         Mailer

	keyID     string
	keySecret string
	client    *http.Client
}

// NewPaymentService creates a new payment service
func NewPaymentService(store storage.Store, bookingService *BookingService, mailer Mailer) *PaymentService {
	return &PaymentService{
		store:          store,
		bookingService: bookingService,
		mailer:         mailer,
		keyID:          os.Getenv("RAZORPAY_KEY_ID"),
		keySecret:      os.Getenv("RAZORPAY_KEY_SECRET"),
		client:         &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether gateway credentials are present
func (p *PaymentService) Configured() bool {
	return p.keyID != "" && p.keySecret != ""
}

// amountToPaise converts rupees to paise, rounding so float noise like
// 799.9999996 still charges exactly 80000
func amountToPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"` // in paise
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes"`
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateOrder creates a Razorpay order for an unpaid booking owned by the
// caller and records it as a Payment row
func (p *PaymentService) CreateOrder(userID, bookingID string) (*models.Payment, error) {
	if !p.Configured() {
		return nil, ErrGatewayNotConfigured
	}

	booking, err := p.store.GetBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrNotYourBooking
	}
	if booking.PaymentStatus == models.PaymentStatusPaid {
		return nil, ErrAlreadyPaid
	}

	receipt := utils.GenerateSecureID("rcpt_")
	reqBody := razorpayOrderRequest{
		Amount:   amountToPaise(booking.Amount),
		Currency: "INR",
		Receipt:  receipt,
		Notes:    map[string]string{"booking_id": booking.BookingID},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, razorpayOrdersURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(p.keyID, p.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("razorpay order request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("razorpay returned status %d", resp.StatusCode)
	}

	var order razorpayOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}

	payment := &models.Payment{
		BookingID: booking.BookingID,
		UserID:    userID,
		OrderID:   order.ID,
		Amount:    booking.Amount,
		Currency:  "INR",
		Receipt:   receipt,
		Status:    models.PaymentOrderCreated,
	}
	return p.store.CreatePayment(payment)
}

// RazorpayWebhookPayload represents the webhook data from Razorpay
type RazorpayWebhookPayload struct {
	Event     string                 `json:"event"`
	Entity    string                 `json:"entity"`
	Contains  []string               `json:"contains"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt int64                  `json:"created_at"`
}

// ProcessPaymentWebhook handles payment gateway webhooks
func (p *PaymentService) ProcessPaymentWebhook(payload []byte) error {
	var webhook RazorpayWebhookPayload
	if err := json.Unmarshal(payload, &webhook); err != nil {
		return fmt.Errorf("failed to parse webhook: %w", err)
	}

	log.Printf("Processing payment webhook: %s", webhook.Event)

	switch webhook.Event {
	case "payment.captured":
		return p.handlePaymentCaptured(webhook.Payload)
	case "payment.failed":
		return p.handlePaymentFailed(webhook.Payload)
	default:
		log.Printf("Unhandled webhook event: %s", webhook.Event)
		return nil
	}
}

// paymentEntity pulls the payment entity out of a webhook payload
func paymentEntity(payload map[string]interface{}) (map[string]interface{}, error) {
	wrapper, ok := payload["payment"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("payment entity missing from webhook payload")
	}
	entity, ok := wrapper["entity"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("payment entity missing from webhook payload")
	}
	return entity, nil
}

// handlePaymentCaptured processes successful payments
func (p *PaymentService) handlePaymentCaptured(payload map[string]interface{}) error {
	entity, err := paymentEntity(payload)
	if err != nil {
		return err
	}

	gatewayPaymentID, _ := entity["id"].(string)
	orderID, _ := entity["order_id"].(string)
	method, _ := entity["method"].(string)

	payment, err := p.store.GetPaymentByOrderID(orderID)
	if err != nil {
		return fmt.Errorf("payment order %s not found: %w", orderID, err)
	}

	now := time.Now()
	payment.Status = models.PaymentOrderCaptured
	payment.GatewayPaymentID = gatewayPaymentID
	payment.Method = method
	payment.PaidAt = &now
	if err := p.store.UpdatePayment(payment); err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	booking, err := p.bookingService.MarkPaid(payment.BookingID, gatewayPaymentID)
	if err != nil {
		return fmt.Errorf("failed to mark booking paid: %w", err)
	}

	// Receipt email is best effort
	if user, err := p.store.GetUserByID(booking.UserID); err == nil && p.mailer != nil {
		body := fmt.Sprintf("Hi %s,\n\nWe received ₹%.2f for booking %s. Payment ID: %s.\n\n- Team TurfBook",
			user.Name, payment.Amount, booking.BookingID, gatewayPaymentID)
		if err := p.mailer.SendMail(user.Email, "Payment received", body); err != nil {
			log.Printf("⚠️  Failed to email payment receipt: %v", err)
		}
	}

	log.Printf("✅ Payment captured: %s for booking %s", gatewayPaymentID, booking.BookingID)
	return nil
}

// handlePaymentFailed processes failed payments
func (p *PaymentService) handlePaymentFailed(payload map[string]interface{}) error {
	entity, err := paymentEntity(payload)
	if err != nil {
		return err
	}

	orderID, _ := entity["order_id"].(string)
	payment, err := p.store.GetPaymentByOrderID(orderID)
	if err != nil {
		return fmt.Errorf("payment order %s not found: %w", orderID, err)
	}

	now := time.Now()
	payment.Status = models.PaymentOrderFailed
	payment.FailedAt = &now
	if err := p.store.UpdatePayment(payment); err != nil {
		return err
	}

	booking, err := p.store.GetBooking(payment.BookingID)
	if err != nil {
		return err
	}
	booking.PaymentStatus = models.PaymentStatusFailed
	if err := p.store.UpdateBooking(booking); err != nil {
		return err
	}

	log.Printf("❌ Payment failed for booking %s (order %s)", payment.BookingID, orderID)
	return nil
}
