package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
)

// ValidatePaymentSignature validates Razorpay webhook signatures. Razorpay
// signs the raw body with HMAC-SHA256 of the webhook secret, hex encoded,
// in the X-Razorpay-Signature header.
func ValidatePaymentSignature() fiber.Handler {
	return func(c *fiber.Ctx) error {
		signature := c.Get("X-Razorpay-Signature")
		if signature == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing webhook signature",
			})
		}

		secret := os.Getenv("RAZORPAY_WEBHOOK_SECRET")
		if secret == "" {
			log.Println("ERROR: RAZORPAY_WEBHOOK_SECRET not set")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server configuration error",
			})
		}

		h := hmac.New(sha256.New, []byte(secret))
		h.Write(c.Body())
		expected := hex.EncodeToString(h.Sum(nil))

		if !hmac.Equal([]byte(signature), []byte(expected)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}
