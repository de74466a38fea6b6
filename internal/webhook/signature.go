package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// SignaturePrefix is the algorithm prefix of the signature header value
const SignaturePrefix = "sha256="

// Signer computes the value of the signature header for a request body
type Signer interface {
	// Sign returns the header value for body signed with secret
	Sign(secret string, body []byte) string
	// SignTimestamped returns the header value for "{timestamp}.{eventID}.{body}" signed with secret
	SignTimestamped(secret string, timestamp int64, eventID string, body []byte) string
}

// HMACSHA256Signer signs the raw body with HMAC-SHA256 and hex encodes the digest.
// Header format: "sha256=<hex_signature>"
type HMACSHA256Signer struct{}

// NewSigner returns the default signer
func NewSigner() Signer {
	return HMACSHA256Signer{}
}

func (HMACSHA256Signer) Sign(secret string, body []byte) string {
	return SignaturePrefix + hex.EncodeToString(digest(secret, body))
}

func (HMACSHA256Signer) SignTimestamped(secret string, timestamp int64, eventID string, body []byte) string {
	return SignaturePrefix + hex.EncodeToString(digest(secret, timestampedPayload(timestamp, eventID, body)))
}

func digest(secret string, message []byte) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(message)
	return h.Sum(nil)
}

// timestampedPayload builds "{timestamp}.{event_id}.{body}"
func timestampedPayload(timestamp int64, eventID string, body []byte) []byte {
	msg := make([]byte, 0, len(body)+len(eventID)+24)
	msg = strconv.AppendInt(msg, timestamp, 10)
	msg = append(msg, '.')
	msg = append(msg, eventID...)
	msg = append(msg, '.')
	return append(msg, body...)
}

// Verify checks a received signature header against body and secret in constant time.
// Receivers should verify against the exact bytes they read from the request.
func Verify(secret string, body []byte, signature string) bool {
	return verifyDigest(secret, body, signature)
}

// VerifyTimestamped checks a HeaderSignatureV2 value. Receivers should also reject timestamps
// outside their replay window.
func VerifyTimestamped(secret string, timestamp int64, eventID string, body []byte, signature string) bool {
	return verifyDigest(secret, timestampedPayload(timestamp, eventID, body), signature)
}

func verifyDigest(secret string, message []byte, signature string) bool {
	if !strings.HasPrefix(signature, SignaturePrefix) {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(signature, SignaturePrefix))
	if err != nil {
		return false
	}
	return hmac.Equal(got, digest(secret, message))
}
