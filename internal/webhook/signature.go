package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign computes hex(hmac_sha256(secret, timestamp+id)) in lowercase.
func Sign(secret, timestamp, id string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + id))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches the envelope. An empty secret
// never verifies.
func Verify(secret, timestamp, id, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(secret, timestamp, id)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}
