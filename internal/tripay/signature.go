package tripay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// GenerateSignature returns the hex HMAC-SHA256 of merchantCode+merchantRef+amount
// keyed by the merchant private key, as required by the create-transaction call.
func GenerateSignature(privateKey, merchantCode, merchantRef string, amount int64) string {
	mac := hmac.New(sha256.New, []byte(privateKey))
	mac.Write([]byte(merchantCode + merchantRef + strconv.FormatInt(amount, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// GenerateCallbackSignature returns the hex HMAC-SHA256 of a raw callback body.
func GenerateCallbackSignature(privateKey string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(privateKey))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCallbackSignature recomputes the HMAC over the raw callback body and
// compares it with the X-Callback-Signature header value.
func VerifyCallbackSignature(privateKey, signature string, payload []byte) bool {
	if privateKey == "" || signature == "" {
		return false
	}
	expected := GenerateCallbackSignature(privateKey, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
