package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	ErrSignatureMissing = errors.New("signature missing")
	ErrSignatureInvalid = errors.New("signature invalid")
)

// Verifier checks the integrity of an encoded payload before it is decoded.
type Verifier interface {
	Verify(encoded, signature string) error
}

// NopVerifier accepts every payload.
type NopVerifier struct{}

func (NopVerifier) Verify(string, string) error { return nil }

// HMACVerifier checks hex HMAC-SHA256 signatures over the encoded payload.
type HMACVerifier struct {
	key      []byte
	required bool
}

// NewHMACVerifier creates a verifier. When required is false, payloads
// without a signature pass and only present signatures are checked.
func NewHMACVerifier(key []byte, required bool) *HMACVerifier {
	return &HMACVerifier{key: key, required: required}
}

// Sign returns the hex signature for an encoded payload.
func (v *HMACVerifier) Sign(encoded string) string {
	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}

func (v *HMACVerifier) Verify(encoded, signature string) error {
	if signature == "" {
		if v.required {
			return ErrSignatureMissing
		}
		return nil
	}

	got, err := hex.DecodeString(signature)
	if err != nil {
		return ErrSignatureInvalid
	}

	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(encoded))
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrSignatureInvalid
	}
	return nil
}
