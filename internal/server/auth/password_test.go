package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/goproj/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	for _, p := range []string{"correct horse battery", "12345678", "pässwörd-ünïcode", ""} {
		h, err := HashPassword(p)
		require.NoError(t, err)
		assert.True(t, VerifyPassword(p, h), "password %q must verify", p)
	}
}

func TestHashPassword_FreshSalt(t *testing.T) {
	h1, err := HashPassword("same-password")
	require.NoError(t, err)
	h2, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, VerifyPassword("same-password", h1))
	assert.True(t, VerifyPassword("same-password", h2))
}

func TestHashPassword_Layout(t *testing.T) {
	h, err := HashPassword("layout-check")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(h)
	require.NoError(t, err)
	assert.Len(t, raw, saltLen+keyLen)
}

func TestHashPassword_SaltError(t *testing.T) {
	orig := randomSalt
	t.Cleanup(func() { randomSalt = orig })
	randomSalt = func() ([]byte, error) { return nil, errors.New("entropy exhausted") }

	_, err := HashPassword("whatever1")
	require.Error(t, err)
}

func TestVerifyPassword_Mismatch(t *testing.T) {
	h, err := HashPassword("password-one")
	require.NoError(t, err)
	assert.False(t, VerifyPassword("password-two", h))

	empty, err := HashPassword("")
	require.NoError(t, err)
	assert.False(t, VerifyPassword("not-empty", empty))
}

func TestVerifyPassword_Malformed(t *testing.T) {
	cases := []string{
		"",
		"%%%not-base64%%%",
		base64.StdEncoding.EncodeToString([]byte("short")),
		base64.StdEncoding.EncodeToString(make([]byte, saltLen)),
		base64.StdEncoding.EncodeToString(make([]byte, saltLen+keyLen+1)),
	}
	for _, h := range cases {
		assert.NotPanics(t, func() {
			assert.False(t, VerifyPassword("anything", h))
		})
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	require.NoError(t, ValidatePasswordStrength("12345678"))
	require.NoError(t, ValidatePasswordStrength("ünïcödé!"))

	err := ValidatePasswordStrength("short")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorValidation)

	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "password must be at least 8 characters long", ve.Message)

	assert.Error(t, ValidatePasswordStrength("1234567"))
	assert.Error(t, ValidatePasswordStrength(strings.Repeat("é", 7)))
}
