package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"invoiceflow-backend/config"
)

const testSecret = "whsec_test_secret"

// signPayload builds a Stripe-Signature header the way Stripe does: HMAC
// SHA-256 over "<timestamp>.<payload>" with the signing secret.
func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func testClient(secret string) *Client {
	return &Client{cfg: &config.Config{
		StripeSecretKey:     "sk_test_xxx",
		StripeWebhookSecret: secret,
		StripeCurrency:      "usd",
		PublicBaseURL:       "http://localhost:8080",
		StripeTimeout:       15 * time.Second,
	}}
}

func TestClient_VerifyWebhook(t *testing.T) {
	t.Parallel()

	client := testClient(testSecret)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)
	header := signPayload(payload, testSecret, time.Now())

	if err := client.VerifyWebhook(payload, header); err != nil {
		t.Errorf("VerifyWebhook with valid signature: %v", err)
	}
}

func TestClient_VerifyWebhook_Rejections(t *testing.T) {
	t.Parallel()

	client := testClient(testSecret)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)

	tests := []struct {
		name    string
		payload []byte
		header  string
	}{
		{"missing header", payload, ""},
		{"garbage header", payload, "t=abc,v1=def"},
		{"wrong secret", payload, signPayload(payload, "whsec_other", time.Now())},
		{"tampered payload", []byte(`{"id":"evt_2"}`), signPayload(payload, testSecret, time.Now())},
		{"stale timestamp", payload, signPayload(payload, testSecret, time.Now().Add(-time.Hour))},
	}
	for _, tt := range tests {
		if err := client.VerifyWebhook(tt.payload, tt.header); err == nil {
			t.Errorf("%s: VerifyWebhook accepted, want error", tt.name)
		}
	}
}

func TestClient_VerificationEnabled(t *testing.T) {
	t.Parallel()

	if !testClient(testSecret).VerificationEnabled() {
		t.Error("VerificationEnabled = false with secret configured")
	}
	if testClient("").VerificationEnabled() {
		t.Error("VerificationEnabled = true without secret")
	}
}
