package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	SetJWTSecret("unit-secret")

	token, err := GenerateAccessToken(7, "ana", "Admin", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, "Admin", claims.Role)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestValidateToken_Rejects(t *testing.T) {
	SetJWTSecret("unit-secret")

	old, err := GenerateAccessToken(7, "ana", "Admin", time.Hour)
	require.NoError(t, err)
	SetJWTSecret("rotated-secret")
	_, err = ValidateToken(old)
	assert.Error(t, err, "signature from the old secret")

	past := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role: "Staff",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "provider|abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := past.SignedString([]byte("rotated-secret"))
	require.NoError(t, err)
	_, err = ValidateToken(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Role: "Admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ValidateToken(none)
	assert.Error(t, err)
}

func TestValidateToken_ProviderTokenWithoutUserID(t *testing.T) {
	SetJWTSecret("unit-secret")
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Email: "coach@gym.pe",
		Role:  "Staff",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "auth0|coach",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("unit-secret"))
	require.NoError(t, err)

	claims, err := ValidateToken(signed)
	require.NoError(t, err)
	assert.Zero(t, claims.UserID)
	assert.Equal(t, "auth0|coach", claims.Subject)
	assert.Equal(t, "coach@gym.pe", claims.Email)
}

func TestSecretRequired(t *testing.T) {
	SetJWTSecret("")
	_, err := GenerateAccessToken(1, "x", "Admin", time.Minute)
	assert.ErrorIs(t, err, ErrJWTSecretNotSet)
	_, err = ValidateToken("abc")
	assert.ErrorIs(t, err, ErrJWTSecretNotSet)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitCSV(" a, ,b ,"))
	assert.Equal(t, []string{}, SplitCSV(""))
}
