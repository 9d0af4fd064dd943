package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{
		SigningKey: []byte("0123456789abcdef0123456789abcdef"),
		Issuer:     "agromarket",
		Audience:   "agromarket-api",
		TTL:        time.Hour,
	}
}

func TestIssueAndParse(t *testing.T) {
	m, err := NewManager(testOptions())
	require.NoError(t, err)

	signed, claims, err := m.Issue(42, true)
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	assert.Equal(t, "42", claims.Subject)

	parsed, err := m.Parse(signed)
	require.NoError(t, err)
	id, err := parsed.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.True(t, parsed.IsAdmin)
}

func TestParseRejectsWrongKey(t *testing.T) {
	m1 := MustManager(testOptions())
	opts := testOptions()
	opts.SigningKey = []byte("another-key-another-key-another!")
	m2 := MustManager(opts)

	signed, _, err := m1.Issue(1, false)
	require.NoError(t, err)

	_, err = m2.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	issuing := testOptions()
	issuing.Issuer = "someone-else"
	m1 := MustManager(issuing)
	m2 := MustManager(testOptions())

	signed, _, err := m1.Issue(1, false)
	require.NoError(t, err)

	_, err = m2.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseExpiredToken(t *testing.T) {
	opts := testOptions()
	opts.TTL = -time.Minute
	m := &Manager{
		method:   MustManager(opts).method,
		secret:   opts.SigningKey,
		issuer:   opts.Issuer,
		audience: opts.Audience,
		ttl:      -time.Minute,
	}

	signed, _, err := m.Issue(1, false)
	require.NoError(t, err)

	_, err = m.Parse(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRequiresSigningKey(t *testing.T) {
	_, err := NewManager(Options{})
	assert.Error(t, err)
}
