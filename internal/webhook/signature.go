package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

const (
	HeaderSignature = "X-Vivo-Signature"
	HeaderTimestamp = "X-Vivo-Timestamp"
	HeaderEvent     = "X-Vivo-Event"

	signaturePrefix = "sha256="
)

// Sign returns "sha256=<hex hmac>" over "<unix timestamp>.<payload>"
func Sign(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the signature and rejects timestamps further than tolerance
// from now. A zero tolerance skips the age check.
func Verify(secret string, timestamp int64, payload []byte, signature string, tolerance time.Duration) bool {
	if tolerance > 0 {
		age := time.Since(time.Unix(timestamp, 0))
		if age < 0 {
			age = -age
		}
		if age > tolerance {
			return false
		}
	}
	expected := Sign(secret, timestamp, payload)
	return hmac.Equal([]byte(signature), []byte(expected))
}
