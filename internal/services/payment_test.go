package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/storage"
)

func newPaymentFixture(t *testing.T) (*PaymentService, storage.Store, *models.Booking) {
	t.Helper()

	store := storage.NewMemoryStore()
	bookingService := NewBookingService(store, nil, nil)
	svc := NewPaymentService(store, bookingService, nil)

	_, err := store.CreateUser(&models.User{
		Name:  "Rahul",
		Email: "rahul@example.com",
	})
	require.NoError(t, err)

	booking, err := store.CreateBooking(&models.Booking{
		VenueID:       "VN00001",
		UserID:        "US00001",
		StartTime:     time.Now().Add(24 * time.Hour),
		EndTime:       time.Now().Add(25 * time.Hour),
		Amount:        800,
		Status:        models.BookingStatusConfirmed,
		PaymentStatus: models.PaymentStatusPending,
	})
	require.NoError(t, err)

	return svc, store, booking
}

func capturedWebhook(orderID, paymentID string) []byte {
	return []byte(fmt.Sprintf(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {"id": %q, "order_id": %q, "method": "upi"}
			}
		}
	}`, paymentID, orderID))
}

func TestCreateOrderRequiresGatewayConfig(t *testing.T) {
	svc, _, booking := newPaymentFixture(t)
	svc.keyID, svc.keySecret = "", ""

	_, err := svc.CreateOrder("US00001", booking.BookingID)
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)
}

func TestCreateOrderOwnershipAndPaidChecks(t *testing.T) {
	svc, store, booking := newPaymentFixture(t)
	svc.keyID, svc.keySecret = "rzp_test", "secret"

	_, err := svc.CreateOrder("US99999", booking.BookingID)
	assert.ErrorIs(t, err, ErrNotYourBooking)

	booking.PaymentStatus = models.PaymentStatusPaid
	require.NoError(t, store.UpdateBooking(booking))
	_, err = svc.CreateOrder("US00001", booking.BookingID)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestWebhookPaymentCaptured(t *testing.T) {
	svc, store, booking := newPaymentFixture(t)

	_, err := store.CreatePayment(&models.Payment{
		BookingID: booking.BookingID,
		UserID:    booking.UserID,
		OrderID:   "order_test1",
		Amount:    booking.Amount,
		Currency:  "INR",
		Status:    models.PaymentOrderCreated,
	})
	require.NoError(t, err)

	err = svc.ProcessPaymentWebhook(capturedWebhook("order_test1", "pay_test1"))
	require.NoError(t, err)

	payment, err := store.GetPaymentByOrderID("order_test1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentOrderCaptured, payment.Status)
	assert.Equal(t, "pay_test1", payment.GatewayPaymentID)
	assert.Equal(t, "upi", payment.Method)
	assert.NotNil(t, payment.PaidAt)

	got, err := store.GetBooking(booking.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	assert.Equal(t, "pay_test1", got.PaymentID)
}

func TestWebhookPaymentFailed(t *testing.T) {
	svc, store, booking := newPaymentFixture(t)

	_, err := store.CreatePayment(&models.Payment{
		BookingID: booking.BookingID,
		UserID:    booking.UserID,
		OrderID:   "order_test2",
		Status:    models.PaymentOrderCreated,
	})
	require.NoError(t, err)

	payload := []byte(`{
		"event": "payment.failed",
		"payload": {
			"payment": {
				"entity": {"id": "pay_test2", "order_id": "order_test2"}
			}
		}
	}`)
	require.NoError(t, svc.ProcessPaymentWebhook(payload))

	payment, err := store.GetPaymentByOrderID("order_test2")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentOrderFailed, payment.Status)
	assert.NotNil(t, payment.FailedAt)

	got, err := store.GetBooking(booking.BookingID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, got.PaymentStatus)
}

func TestWebhookIgnoresUnknownEvents(t *testing.T) {
	svc, _, _ := newPaymentFixture(t)
	assert.NoError(t, svc.ProcessPaymentWebhook([]byte(`{"event": "refund.created", "payload": {}}`)))
}

func TestWebhookUnknownOrder(t *testing.T) {
	svc, _, _ := newPaymentFixture(t)
	err := svc.ProcessPaymentWebhook(capturedWebhook("order_missing", "pay_x"))
	assert.Error(t, err)
}

func TestAmountToPaise(t *testing.T) {
	assert.EqualValues(t, 80000, amountToPaise(800))
	assert.EqualValues(t, 80000, amountToPaise(799.9999996))
	assert.EqualValues(t, 45050, amountToPaise(450.50))
	assert.EqualValues(t, 33333, amountToPaise(333.333))
}

func TestWebhookMalformedPayload(t *testing.T) {
	svc, _, _ := newPaymentFixture(t)
	assert.Error(t, svc.ProcessPaymentWebhook([]byte("not json")))

	// Valid JSON but no payment entity
	assert.Error(t, svc.ProcessPaymentWebhook([]byte(`{"event": "payment.captured", "payload": {}}`)))
}
