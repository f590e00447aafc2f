package openpay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"type":"charge.succeeded","transaction":{"order_id":"F-1"}}`)
	secret := "top-secret"
	validSig := ComputeSignature(payload, secret)

	assert.True(t, VerifyWebhookSignature(payload, validSig, secret))

	// case-insensitive hex
	assert.True(t, VerifyWebhookSignature(payload, "  "+validSig+" ", secret))
}

func TestVerifyWebhookSignature_TamperedBody(t *testing.T) {
	payload := []byte(`{"type":"charge.succeeded"}`)
	secret := "top-secret"
	sig := ComputeSignature(payload, secret)

	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] ^= 0x01

	assert.False(t, VerifyWebhookSignature(tampered, sig, secret))
}

func TestVerifyWebhookSignature_TamperedSignature(t *testing.T) {
	payload := []byte(`{"type":"charge.succeeded"}`)
	secret := "top-secret"
	sig := []byte(ComputeSignature(payload, secret))
	if sig[0] == 'a' {
		sig[0] = 'b'
	} else {
		sig[0] = 'a'
	}

	assert.False(t, VerifyWebhookSignature(payload, string(sig), secret))
}

func TestVerifyWebhookSignature_FailsClosed(t *testing.T) {
	payload := []byte(`{}`)

	// signature present but no secret configured
	assert.False(t, VerifyWebhookSignature(payload, "deadbeef", ""))
	// garbage that is not hex
	assert.False(t, VerifyWebhookSignature(payload, "not-hex!", "secret"))
	// empty signature never validates
	assert.False(t, VerifyWebhookSignature(payload, "", "secret"))
}
