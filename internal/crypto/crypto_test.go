package crypto

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T) *EncryptionService {
	t.Helper()
	svc, err := NewEncryptionService(bytes.Repeat([]byte{1}, KeySize), bytes.Repeat([]byte{2}, KeySize))
	require.NoError(t, err)
	return svc
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc := testService(t)

	sealed, err := svc.Encrypt("feeling calm today")
	require.NoError(t, err)
	assert.NotEqual(t, "feeling calm today", sealed)

	plain, err := svc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "feeling calm today", plain)
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	svc := testService(t)
	a, err := svc.Encrypt("same")
	require.NoError(t, err)
	b, err := svc.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsTampering(t *testing.T) {
	svc := testService(t)
	sealed, err := svc.Encrypt("secret")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff

	_, err = svc.Decrypt(base64.StdEncoding.EncodeToString(raw))
	assert.Error(t, err)

	_, err = svc.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestBlindIndexIsDeterministic(t *testing.T) {
	svc := testService(t)
	assert.Equal(t, svc.GenerateBlindIndex("a@example.com"), svc.GenerateBlindIndex("a@example.com"))
	assert.NotEqual(t, svc.GenerateBlindIndex("a@example.com"), svc.GenerateBlindIndex("b@example.com"))
	assert.Empty(t, svc.GenerateBlindIndex(""))
}

func TestNewEncryptionServiceKeySize(t *testing.T) {
	_, err := NewEncryptionService([]byte("short"), bytes.Repeat([]byte{2}, KeySize))
	assert.ErrorIs(t, err, ErrKeySize)
	_, err = NewEncryptionService(bytes.Repeat([]byte{1}, KeySize), nil)
	assert.ErrorIs(t, err, ErrKeySize)
}

func TestParseKey(t *testing.T) {
	key := bytes.Repeat([]byte{0xab}, KeySize)

	got, err := ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = ParseKey("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	assert.Len(t, got, KeySize)

	_, err = ParseKey("nope")
	assert.ErrorIs(t, err, ErrKeySize)
}
