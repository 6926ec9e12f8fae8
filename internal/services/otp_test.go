package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/storage"
)

// fakeMailer records deliveries and can be told to fail
type fakeMailer struct {
	sent []string
	fail bool
}

func (f *fakeMailer) SendOTP(to, purpose, code string, expiresAt time.Time) (string, error) {
	if f.fail {
		return ChannelEmail, errors.New("smtp down")
	}
	f.sent = append(f.sent, code)
	return ChannelEmail, nil
}

func (f *fakeMailer) SendMail(to, subject, body string) error {
	if f.fail {
		return errors.New("smtp down")
	}
	return nil
}

func newTestOTPService(t *testing.T) (*OTPService, *fakeMailer, *time.Time) {
	t.Helper()

	mailer := &fakeMailer{}
	svc := NewOTPService(storage.NewMemoryStore(), mailer)

	clock := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	return svc, mailer, &clock
}

func TestIssueDeliversAndVerifies(t *testing.T) {
	svc, mailer, _ := newTestOTPService(t)

	issue, err := svc.Issue("Player@Example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.Len(t, issue.Code, 6)
	assert.True(t, issue.Delivered)
	assert.Equal(t, ChannelEmail, issue.Channel)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, issue.Code, mailer.sent[0])

	// Email lookup is case-insensitive
	status, err := svc.Verify("player@example.com", models.OTPPurposeEmailVerification, issue.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifySuccess, status)
}

func TestVerifyConsumesCode(t *testing.T) {
	svc, _, _ := newTestOTPService(t)

	issue, err := svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)

	status, err := svc.Verify("player@example.com", models.OTPPurposeEmailVerification, issue.Code)
	require.NoError(t, err)
	require.Equal(t, VerifySuccess, status)

	// Second submission of the same code must be rejected as already used
	status, err = svc.Verify("player@example.com", models.OTPPurposeEmailVerification, issue.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifyAlreadyUsed, status)
}

func TestVerifyUnknownKey(t *testing.T) {
	svc, _, _ := newTestOTPService(t)

	status, err := svc.Verify("nobody@example.com", models.OTPPurposeEmailVerification, "123456")
	require.NoError(t, err)
	assert.Equal(t, VerifyInvalid, status)
}

func TestVerifyExpiredCode(t *testing.T) {
	svc, _, clock := newTestOTPService(t)

	issue, err := svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)

	*clock = clock.Add(OTPTTL + time.Second)

	status, err := svc.Verify("player@example.com", models.OTPPurposeEmailVerification, issue.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifyExpired, status)
}

func TestVerifyExactExpiryBoundary(t *testing.T) {
	svc, _, clock := newTestOTPService(t)

	issue, err := svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)

	// At exactly expires_at the code is already expired
	*clock = issue.ExpiresAt

	status, err := svc.Verify("player@example.com", models.OTPPurposeEmailVerification, issue.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifyExpired, status)
}

func TestVerifyAttemptCap(t *testing.T) {
	svc, _, _ := newTestOTPService(t)

	issue, err := svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)

	wrong := "000000"
	if issue.Code == wrong {
		wrong = "000001"
	}

	for i := 0; i < models.OTPMaxAttempts; i++ {
		status, err := svc.Verify("player@example.com", models.OTPPurposeEmailVerification, wrong)
		require.NoError(t, err)
		assert.Equal(t, VerifyInvalid, status, "attempt %d", i+1)
	}

	// Even the correct code is refused once the cap is hit
	status, err := svc.Verify("player@example.com", models.OTPPurposeEmailVerification, issue.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifyTooManyAttempts, status)
}

func TestSuccessfulVerifyDoesNotCountAttempts(t *testing.T) {
	svc, _, _ := newTestOTPService(t)

	issue, err := svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)

	wrong := "000000"
	if issue.Code == wrong {
		wrong = "000001"
	}
	for i := 0; i < models.OTPMaxAttempts-1; i++ {
		status, err := svc.Verify("player@example.com", models.OTPPurposeEmailVerification, wrong)
		require.NoError(t, err)
		require.Equal(t, VerifyInvalid, status)
	}

	// One attempt left: the correct code still goes through
	status, err := svc.Verify("player@example.com", models.OTPPurposeEmailVerification, issue.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifySuccess, status)
}

func TestReissueRateLimited(t *testing.T) {
	svc, _, clock := newTestOTPService(t)

	_, err := svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)

	_, err = svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	var rateLimited *RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, int(OTPTTL.Seconds()), rateLimited.SecondsLeft())

	// Halfway through, the reported wait shrinks accordingly
	*clock = clock.Add(OTPTTL / 2)
	_, err = svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, int((OTPTTL / 2).Seconds()), rateLimited.SecondsLeft())

	// Once the old code expires a fresh one is allowed
	*clock = clock.Add(OTPTTL/2 + time.Second)
	issue, err := svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.Len(t, issue.Code, 6)
}

func TestReissueSupersedesOldCode(t *testing.T) {
	svc, _, clock := newTestOTPService(t)

	first, err := svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)

	*clock = clock.Add(OTPTTL + time.Second)

	second, err := svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)

	// The superseded code is gone, only the fresh one verifies
	status, err := svc.Verify("player@example.com", models.OTPPurposeEmailVerification, first.Code)
	require.NoError(t, err)
	if first.Code != second.Code {
		assert.Equal(t, VerifyInvalid, status)
	}

	status, err = svc.Verify("player@example.com", models.OTPPurposeEmailVerification, second.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifySuccess, status)
}

func TestReissueAllowedAfterLockout(t *testing.T) {
	svc, _, _ := newTestOTPService(t)

	issue, err := svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)

	wrong := "000000"
	if issue.Code == wrong {
		wrong = "000001"
	}
	for i := 0; i < models.OTPMaxAttempts; i++ {
		_, err := svc.Verify("player@example.com", models.OTPPurposeEmailVerification, wrong)
		require.NoError(t, err)
	}

	// A locked code no longer blocks issuance even though it is unexpired
	fresh, err := svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)

	status, err := svc.Verify("player@example.com", models.OTPPurposeEmailVerification, fresh.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifySuccess, status)
}

func TestPurposesAreIndependent(t *testing.T) {
	svc, _, _ := newTestOTPService(t)

	verification, err := svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)
	reset, err := svc.Issue("player@example.com", models.OTPPurposePasswordReset)
	require.NoError(t, err)

	// A reset code never verifies against the verification purpose
	if verification.Code != reset.Code {
		status, err := svc.Verify("player@example.com", models.OTPPurposeEmailVerification, reset.Code)
		require.NoError(t, err)
		assert.Equal(t, VerifyInvalid, status)
	}

	status, err := svc.Verify("player@example.com", models.OTPPurposePasswordReset, reset.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifySuccess, status)

	status, err = svc.Verify("player@example.com", models.OTPPurposeEmailVerification, verification.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifySuccess, status)
}

func TestIssueSurvivesDeliveryFailure(t *testing.T) {
	svc, mailer, _ := newTestOTPService(t)
	mailer.fail = true

	issue, err := svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.False(t, issue.Delivered)

	// The stored code stays valid despite the failed send
	status, err := svc.Verify("player@example.com", models.OTPPurposeEmailVerification, issue.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifySuccess, status)
}

func TestStatusReporting(t *testing.T) {
	svc, _, clock := newTestOTPService(t)

	active, secondsLeft, err := svc.Status("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Zero(t, secondsLeft)

	_, err = svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)

	active, secondsLeft, err = svc.Status("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, int(OTPTTL.Seconds()), secondsLeft)

	*clock = clock.Add(OTPTTL + time.Second)
	active, _, err = svc.Status("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestPurgeExpired(t *testing.T) {
	svc, _, clock := newTestOTPService(t)

	issue, err := svc.Issue("player@example.com", models.OTPPurposeEmailVerification)
	require.NoError(t, err)

	purged, err := svc.PurgeExpired()
	require.NoError(t, err)
	assert.Zero(t, purged, "live codes must survive a purge")

	*clock = clock.Add(OTPTTL + time.Second)
	purged, err = svc.PurgeExpired()
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	status, err := svc.Verify("player@example.com", models.OTPPurposeEmailVerification, issue.Code)
	require.NoError(t, err)
	assert.Equal(t, VerifyInvalid, status)
}

func TestVerifyStatusStrings(t *testing.T) {
	cases := map[VerifyStatus]string{
		VerifySuccess:         "success",
		VerifyExpired:         "expired",
		VerifyAlreadyUsed:     "already_used",
		VerifyTooManyAttempts: "too_many_attempts",
		VerifyInvalid:         "invalid",
	}
	for status, want := range cases {
		assert.Equal(t, want, status.String())
		assert.NotEmpty(t, status.Message())
	}
}

func TestRateLimitedErrorFloorsAtOneSecond(t *testing.T) {
	err := &RateLimitedError{RetryAfter: 200 * time.Millisecond}
	assert.Equal(t, 1, err.SecondsLeft())
	assert.Equal(t, fmt.Sprintf("a code was sent recently, retry in %d seconds", 1), err.Error())
}
