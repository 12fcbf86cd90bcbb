package webhook

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	ts := time.Now().Unix()

	tests := []struct {
		name    string
		secret  string
		payload []byte
	}{
		{"simple payload", "my-secret-key", []byte(`{"type":"liveness.completed","data":{"status":"completed"}}`)},
		{"empty secret", "", []byte(`{}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signature := Sign(tt.secret, ts, tt.payload)
			assert.True(t, strings.HasPrefix(signature, "sha256="))
			assert.Len(t, signature, len("sha256=")+64)

			assert.True(t, Verify(tt.secret, ts, tt.payload, signature, time.Minute))
		})
	}
}

func TestSign_CoversTimestamp(t *testing.T) {
	payload := []byte(`{"test":"data"}`)
	assert.NotEqual(t, Sign("s", 1000, payload), Sign("s", 1001, payload))
}

func TestVerify(t *testing.T) {
	secret := "test-secret"
	payload := []byte(`{"test":"data"}`)
	now := time.Now().Unix()
	validSignature := Sign(secret, now, payload)
	old := now - 3600
	oldSignature := Sign(secret, old, payload)

	tests := []struct {
		name      string
		secret    string
		timestamp int64
		payload   []byte
		signature string
		tolerance time.Duration
		expected  bool
	}{
		{"valid signature", secret, now, payload, validSignature, 5 * time.Minute, true},
		{"invalid signature", secret, now, payload, "sha256=invalid", 5 * time.Minute, false},
		{"wrong secret", "wrong-secret", now, payload, validSignature, 5 * time.Minute, false},
		{"modified payload", secret, now, []byte(`{"test":"modified"}`), validSignature, 5 * time.Minute, false},
		{"replayed timestamp", secret, now + 1, payload, validSignature, 5 * time.Minute, false},
		{"stale delivery", secret, old, payload, oldSignature, 5 * time.Minute, false},
		{"stale delivery without tolerance", secret, old, payload, oldSignature, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Verify(tt.secret, tt.timestamp, tt.payload, tt.signature, tt.tolerance)
			assert.Equal(t, tt.expected, result)
		})
	}
}
