package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Payment records one Razorpay order created for a booking
type Payment struct {
	gorm.Model

	PaymentRef string `json:"payment_ref" gorm:"uniqueIndex"` // internal reference
	BookingID  string `json:"booking_id" gorm:"index"`
	UserID     string `json:"user_id" gorm:"index"`

	OrderID          string `json:"order_id" gorm:"index"` // Razorpay order ID
	GatewayPaymentID string `json:"gateway_payment_id"`    // Razorpay payment ID, set on capture

	Amount   float64 `json:"amount"`
	Currency string  `json:"currency" gorm:"default:INR"`
	Receipt  string  `json:"receipt"`

	Status   string `json:"status" gorm:"default:created"` // "created", "captured", "failed"
	Method   string `json:"method"`                        // upi, card, netbanking - from webhook
	FailedAt *time.Time
	PaidAt   *time.Time
}

// Payment status constants
const (
	PaymentOrderCreated  = "created"
	PaymentOrderCaptured = "captured"
	PaymentOrderFailed   = "failed"
)

// BeforeCreate generates the internal payment reference
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.PaymentRef == "" {
		p.PaymentRef = fmt.Sprintf("PAY%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}
	return nil
}
