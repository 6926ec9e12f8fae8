package services

import (
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSService sends transactional SMS via Twilio. SMS is optional: without
// credentials every send becomes a log line and bookings proceed normally.
type SMSService struct {
	client  *twilio.RestClient
	from    string
	enabled bool
}

// NewSMSService creates the Twilio client from environment variables
func NewSMSService() *SMSService {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_SMS_FROM")

	if accountSid == "" || authToken == "" || from == "" {
		log.Println("⚠️  Twilio credentials not found - SMS notifications disabled")
		return &SMSService{enabled: false}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &SMSService{
		client:  client,
		from:    from,
		enabled: true,
	}
}

// Enabled reports whether real SMS delivery is configured
func (t *SMSService) Enabled() bool {
	return t.enabled
}

// SendSMS sends a text message via Twilio
func (t *SMSService) SendSMS(to string, message string) error {
	if !t.enabled {
		log.Printf("📱 [no Twilio] SMS to %s: %s", to, message)
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(to)
	params.SetBody(message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send SMS: %v", err)
		return err
	}

	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		return fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, *resp.ErrorMessage)
	}

	log.Printf("✅ SMS sent! SID: %s", *resp.Sid)
	return nil
}
