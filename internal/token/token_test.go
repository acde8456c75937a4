package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedIssuer(secret string, at time.Time) *Issuer {
	i := NewIssuer(secret)
	i.now = func() time.Time { return at }
	return i
}

func TestIssueAndParse(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	iss := fixedIssuer("test-secret", at)

	raw, err := iss.Issue(42, "alice", "Admin")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := iss.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "Admin", claims.Role)
}

func TestExpiryIsExactlyTwoHours(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	iss := fixedIssuer("test-secret", at)

	raw, err := iss.Issue(1, "bob", "User")
	require.NoError(t, err)

	claims, err := iss.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, at.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, at.Add(2*time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, 2*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestParseRejectsExpired(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	iss := fixedIssuer("test-secret", at)

	raw, err := iss.Issue(1, "bob", "User")
	require.NoError(t, err)

	// токен жив ровно до exp
	iss.now = func() time.Time { return at.Add(2*time.Hour + time.Minute) }
	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	at := time.Now()
	raw, err := fixedIssuer("secret-one", at).Issue(1, "bob", "User")
	require.NoError(t, err)

	_, err = fixedIssuer("secret-two", at).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsUnsignedToken(t *testing.T) {
	iss := NewIssuer("test-secret")
	claims := &Claims{UserID: 1, Username: "bob", Role: "User",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
