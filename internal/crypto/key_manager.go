package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	ErrInvalidPayloadKey = errors.New("invalid payload key: must be base64 of 32 bytes")
	ErrPayloadKeyNotSet  = errors.New("payload key not configured")
)

const signingKeyInfo = "vigilance-engine payload signature v1"

// KeyManager holds the key material the payload codec needs.
type KeyManager struct {
	payloadKey []byte
	signingKey []byte
}

// NewKeyManager decodes the payload key and derives the signing key.
// Either input may be empty; the matching getter then reports false.
func NewKeyManager(payloadKeyBase64, signingSecret string) (*KeyManager, error) {
	km := &KeyManager{}

	if payloadKeyBase64 != "" {
		key, err := base64.StdEncoding.DecodeString(payloadKeyBase64)
		if err != nil || len(key) != 32 {
			return nil, ErrInvalidPayloadKey
		}
		km.payloadKey = key
	}

	if signingSecret != "" {
		key, err := deriveKey([]byte(signingSecret), signingKeyInfo)
		if err != nil {
			return nil, err
		}
		km.signingKey = key
	}

	return km, nil
}

// PayloadKey returns the AES-256 key for envelope decryption.
func (km *KeyManager) PayloadKey() ([]byte, bool) {
	return km.payloadKey, km.payloadKey != nil
}

// SigningKey returns the HMAC key derived from the signing secret.
func (km *KeyManager) SigningKey() ([]byte, bool) {
	return km.signingKey, km.signingKey != nil
}

func deriveKey(secret []byte, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, err
	}
	return key, nil
}
