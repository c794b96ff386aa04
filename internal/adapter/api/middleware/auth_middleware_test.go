package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func invoke(m *AuthMiddleware, authHeader string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := m.Authenticate(func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("uid").(string))
	})
	return rec, handler(c)
}

func TestAuthenticateValidToken(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"userId": "user-1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	rec, err := invoke(m, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestAuthenticateMissingHeader(t *testing.T) {
	m := NewAuthMiddleware(testSecret)

	_, err := invoke(m, "")
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	m := NewAuthMiddleware(testSecret)

	_, err := invoke(m, "Token abc")
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthenticateWrongSecret(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	token := signToken(t, "another-secret", jwt.MapClaims{
		"userId": "user-1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	_, err := invoke(m, "Bearer "+token)
	require.Error(t, err)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"userId": "user-1",
		"exp":    time.Now().Add(-time.Hour).Unix(),
	})

	_, err := invoke(m, "Bearer "+token)
	require.Error(t, err)
}

func TestParseTokenRequiresUserIDClaim(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := m.ParseToken(token)
	require.Error(t, err)
}

func TestParseTokenReturnsUserID(t *testing.T) {
	m := NewAuthMiddleware(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"userId": "user-9",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	userID, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-9", userID)
}
