package agent

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// VerifySignature checks the X-Agent-Signature header on a delivery
// callback. The agent signs the registered callback URL concatenated
// with the raw request body using HMAC-SHA256 and base64-encodes the
// digest.
func VerifySignature(secret, fullURL, provided string, body []byte) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fullURL))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(provided))
}
