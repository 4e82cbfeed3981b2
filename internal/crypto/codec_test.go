package crypto

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigilance-engine/internal/config"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	return key
}

func TestBase64CodecRoundTrip(t *testing.T) {
	codec := Base64Codec{}
	inputs := []string{
		"a",
		"let's skip school today",
		"I want to hurt myself",
		"émoji ✓ and ünïcode",
		strings.Repeat("x", 10000),
	}

	for _, in := range inputs {
		encoded, err := codec.Encode(in)
		require.NoError(t, err)
		out, err := codec.Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestBase64CodecDecode(t *testing.T) {
	codec := Base64Codec{}

	t.Run("known payload", func(t *testing.T) {
		out, err := codec.Decode("ZmFrZV9wYXlsb2Fk")
		require.NoError(t, err)
		assert.Equal(t, "fake_payload", out)
	})

	t.Run("unpadded", func(t *testing.T) {
		out, err := codec.Decode("aGk")
		require.NoError(t, err)
		assert.Equal(t, "hi", out)
	})

	t.Run("invalid characters", func(t *testing.T) {
		_, err := codec.Decode("!!!invalid_base64!!!")
		assert.Error(t, err)
	})

	t.Run("invalid utf8", func(t *testing.T) {
		_, err := codec.Decode(base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd}))
		assert.ErrorIs(t, err, ErrInvalidUTF8)
	})
}

func TestAESGCMCodec(t *testing.T) {
	codec, err := NewAESGCMCodec(testKey(t))
	require.NoError(t, err)

	encoded, err := codec.Encode("fentanyl deal tonight")
	require.NoError(t, err)
	assert.NotContains(t, encoded, "fentanyl")

	out, err := codec.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "fentanyl deal tonight", out)

	other, err := NewAESGCMCodec(testKey(t))
	require.NoError(t, err)
	_, err = other.Decode(encoded)
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = codec.Decode(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = NewAESGCMCodec([]byte("too short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestPayloadCodecValidate(t *testing.T) {
	p := NewPayloadCodec(Base64Codec{}, nil, 10000)

	assert.False(t, p.Validate(""))
	assert.True(t, p.Validate("x"))
	assert.True(t, p.Validate(strings.Repeat("a", 10000)))
	assert.False(t, p.Validate(strings.Repeat("a", 10001)))
	// bound is in characters, not bytes
	assert.True(t, p.Validate(strings.Repeat("é", 10000)))
	assert.Equal(t, 10000, p.MaxChars())
}

func TestPayloadCodecDecodeWrapsErrors(t *testing.T) {
	p := NewPayloadCodec(Base64Codec{}, nil, 100)

	_, err := p.Decode("!!!invalid_base64!!!", "")
	require.Error(t, err)

	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestPayloadCodecSignatures(t *testing.T) {
	key := testKey(t)

	t.Run("optional signature", func(t *testing.T) {
		p := NewPayloadCodec(Base64Codec{}, NewHMACVerifier(key, false), 100)

		encoded, sig, err := p.Encode("hello")
		require.NoError(t, err)
		require.NotEmpty(t, sig)

		out, err := p.Decode(encoded, sig)
		require.NoError(t, err)
		assert.Equal(t, "hello", out)

		_, err = p.Decode(encoded, "")
		assert.NoError(t, err)

		_, err = p.Decode(encoded, strings.Repeat("00", 32))
		assert.ErrorIs(t, err, ErrSignatureInvalid)

		_, err = p.Decode(encoded, "not-hex")
		assert.ErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("required signature", func(t *testing.T) {
		p := NewPayloadCodec(Base64Codec{}, NewHMACVerifier(key, true), 100)

		encoded, sig, err := p.Encode("hello")
		require.NoError(t, err)

		_, err = p.Decode(encoded, "")
		assert.ErrorIs(t, err, ErrSignatureMissing)
		var decodeErr *DecodeError
		assert.ErrorAs(t, err, &decodeErr)

		_, err = p.Decode(encoded, sig)
		assert.NoError(t, err)
	})

	t.Run("nop verifier produces no signature", func(t *testing.T) {
		p := NewPayloadCodec(Base64Codec{}, NopVerifier{}, 100)
		_, sig, err := p.Encode("hello")
		require.NoError(t, err)
		assert.Empty(t, sig)
	})
}

func TestNewPayloadCodecFromConfig(t *testing.T) {
	t.Run("base64 default", func(t *testing.T) {
		p, err := NewPayloadCodecFromConfig(config.Default())
		require.NoError(t, err)
		out, err := p.Decode("ZmFrZV9wYXlsb2Fk", "")
		require.NoError(t, err)
		assert.Equal(t, "fake_payload", out)
	})

	t.Run("aesgcm with signing", func(t *testing.T) {
		cfg := config.Default()
		cfg.Codec.Mode = config.CodecAESGCM
		cfg.Codec.Key = base64.StdEncoding.EncodeToString(testKey(t))
		cfg.Codec.SigningSecret = "shared-secret"
		cfg.Codec.RequireSignature = true

		p, err := NewPayloadCodecFromConfig(cfg)
		require.NoError(t, err)

		encoded, sig, err := p.Encode("round trip")
		require.NoError(t, err)
		out, err := p.Decode(encoded, sig)
		require.NoError(t, err)
		assert.Equal(t, "round trip", out)
	})

	t.Run("aesgcm without key", func(t *testing.T) {
		cfg := config.Default()
		cfg.Codec.Mode = config.CodecAESGCM
		_, err := NewPayloadCodecFromConfig(cfg)
		assert.ErrorIs(t, err, ErrPayloadKeyNotSet)
	})

	t.Run("bad key", func(t *testing.T) {
		cfg := config.Default()
		cfg.Codec.Mode = config.CodecAESGCM
		cfg.Codec.Key = "a2V5"
		_, err := NewPayloadCodecFromConfig(cfg)
		assert.ErrorIs(t, err, ErrInvalidPayloadKey)
	})
}

func TestKeyManagerDerivesStableSigningKey(t *testing.T) {
	a, err := NewKeyManager("", "secret")
	require.NoError(t, err)
	b, err := NewKeyManager("", "secret")
	require.NoError(t, err)
	c, err := NewKeyManager("", "other")
	require.NoError(t, err)

	ka, ok := a.SigningKey()
	require.True(t, ok)
	kb, _ := b.SigningKey()
	kc, _ := c.SigningKey()

	assert.Len(t, ka, 32)
	assert.Equal(t, ka, kb)
	assert.NotEqual(t, ka, kc)
	assert.NotEqual(t, []byte("secret"), ka)

	_, ok = a.PayloadKey()
	assert.False(t, ok)
}
