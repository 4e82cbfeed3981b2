package crypto

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"vigilance-engine/internal/config"
)

var ErrInvalidUTF8 = errors.New("decoded content is not valid UTF-8")

// DecodeError reports a payload that could not be turned into plaintext.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Codec converts between plaintext and its transport encoding.
type Codec interface {
	Encode(plaintext string) (string, error)
	Decode(encoded string) (string, error)
}

// Base64Codec is the placeholder envelope: reversible, not confidential.
type Base64Codec struct{}

func (Base64Codec) Encode(plaintext string) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(plaintext)), nil
}

func (Base64Codec) Decode(encoded string) (string, error) {
	encoded = strings.TrimSpace(encoded)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// clients that strip padding are still accepted
		var rawErr error
		raw, rawErr = base64.RawStdEncoding.DecodeString(encoded)
		if rawErr != nil {
			return "", err
		}
	}

	if !utf8.Valid(raw) {
		return "", ErrInvalidUTF8
	}
	return string(raw), nil
}

// AESGCMCodec seals payloads with AES-256-GCM under a shared key.
type AESGCMCodec struct {
	key []byte
}

func NewAESGCMCodec(key []byte) (*AESGCMCodec, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKeySize
	}
	return &AESGCMCodec{key: key}, nil
}

func (c *AESGCMCodec) Encode(plaintext string) (string, error) {
	return Encrypt(plaintext, c.key)
}

func (c *AESGCMCodec) Decode(encoded string) (string, error) {
	plaintext, err := Decrypt(strings.TrimSpace(encoded), c.key)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(plaintext) {
		return "", ErrInvalidUTF8
	}
	return plaintext, nil
}

// PayloadCodec verifies, decodes and validates inbound payloads.
type PayloadCodec struct {
	codec    Codec
	verifier Verifier
	maxChars int
}

// NewPayloadCodec wires a codec with an integrity hook. A nil verifier accepts everything.
func NewPayloadCodec(codec Codec, verifier Verifier, maxChars int) *PayloadCodec {
	if verifier == nil {
		verifier = NopVerifier{}
	}
	return &PayloadCodec{codec: codec, verifier: verifier, maxChars: maxChars}
}

// NewPayloadCodecFromConfig builds the codec selected by cfg.Codec.
func NewPayloadCodecFromConfig(cfg *config.Config) (*PayloadCodec, error) {
	km, err := NewKeyManager(cfg.Codec.Key, cfg.Codec.SigningSecret)
	if err != nil {
		return nil, err
	}

	var codec Codec
	switch cfg.Codec.Mode {
	case config.CodecAESGCM:
		key, ok := km.PayloadKey()
		if !ok {
			return nil, ErrPayloadKeyNotSet
		}
		if codec, err = NewAESGCMCodec(key); err != nil {
			return nil, err
		}
	case config.CodecBase64, "":
		codec = Base64Codec{}
	default:
		return nil, fmt.Errorf("unknown codec mode %q", cfg.Codec.Mode)
	}

	var verifier Verifier = NopVerifier{}
	if key, ok := km.SigningKey(); ok {
		verifier = NewHMACVerifier(key, cfg.Codec.RequireSignature)
	}

	return NewPayloadCodec(codec, verifier, cfg.Codec.MaxContentChars), nil
}

// Decode checks the signature and decodes the payload. Every failure is a *DecodeError.
func (p *PayloadCodec) Decode(encoded, signature string) (string, error) {
	if err := p.verifier.Verify(encoded, signature); err != nil {
		return "", &DecodeError{Err: err}
	}

	content, err := p.codec.Decode(encoded)
	if err != nil {
		return "", &DecodeError{Err: err}
	}
	return content, nil
}

// Encode produces the transport form of plaintext and, when a signing key
// is configured, its signature.
func (p *PayloadCodec) Encode(plaintext string) (encoded, signature string, err error) {
	encoded, err = p.codec.Encode(plaintext)
	if err != nil {
		return "", "", err
	}
	if signer, ok := p.verifier.(*HMACVerifier); ok {
		signature = signer.Sign(encoded)
	}
	return encoded, signature, nil
}

// Validate reports whether decoded content is non-empty and within the character bound.
func (p *PayloadCodec) Validate(content string) bool {
	n := utf8.RuneCountInString(content)
	return n > 0 && n <= p.maxChars
}

// MaxChars is the largest accepted content length in characters.
func (p *PayloadCodec) MaxChars() int {
	return p.maxChars
}
