package tokens

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("test-jwt-secret")
	refreshSecret = []byte("test-refresh-secret")
)

func TestSignAccess_SetsExpectedClaims(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).UTC()

	token, err := SignAccess(42, "nursery", accessSecret, exp)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(token, accessSecret)
	require.NoError(t, err)

	assert.Equal(t, "nursery", claims.Role)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestSignRefresh_CarriesJTI(t *testing.T) {
	jti := NewJTI()
	token, err := SignRefresh(7, jti, refreshSecret, time.Now().Add(time.Hour))
	require.NoError(t, err)

	claims, err := RefreshClaimsFromToken(token, refreshSecret)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
}

func TestAccessClaimsFromToken_Rejects(t *testing.T) {
	t.Run("wrong secret", func(t *testing.T) {
		token, err := SignAccess(1, "customer", accessSecret, time.Now().Add(time.Minute))
		require.NoError(t, err)

		_, err = AccessClaimsFromToken(token, []byte("other"))
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := SignAccess(1, "customer", accessSecret, time.Now().Add(-time.Minute))
		require.NoError(t, err)

		_, err = AccessClaimsFromToken(token, accessSecret)
		require.True(t, errors.Is(err, jwt.ErrTokenExpired))
	})

	t.Run("foreign algorithm", func(t *testing.T) {
		claims := AccessClaims{Role: "nursery", RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(accessSecret)
		require.NoError(t, err)

		_, err = AccessClaimsFromToken(token, accessSecret)
		require.Error(t, err)
	})
}

func TestCookies(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	c := CreateCookie(AccessCookie, "value", "/", exp)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	d := DeleteCookie(AccessCookie, "/")
	assert.Equal(t, -1, d.MaxAge)
	assert.Empty(t, d.Value)
}

func TestSha256Hex_Stable(t *testing.T) {
	assert.Equal(t, Sha256Hex("abc"), Sha256Hex("abc"))
	assert.Len(t, Sha256Hex("abc"), 64)
	assert.NotEqual(t, Sha256Hex("abc"), Sha256Hex("abd"))
}
