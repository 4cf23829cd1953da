package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, subject, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func runActor(t *testing.T, secret string, decorate func(*http.Request)) (string, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if decorate != nil {
		decorate(c.Request)
	}

	Actor(secret)(c)

	value, exists := c.Get(ContextActorKey)
	if !exists {
		return "", false
	}
	actor, _ := value.(string)
	return actor, true
}

func TestActorFromBearerToken(t *testing.T) {
	actor, ok := runActor(t, testSecret, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+signedToken(t, "admin-7", testSecret))
	})
	require.True(t, ok)
	assert.Equal(t, "admin-7", actor)
}

func TestActorRejectsBadSignature(t *testing.T) {
	_, ok := runActor(t, testSecret, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+signedToken(t, "admin-7", "other-secret"))
	})
	assert.False(t, ok)
}

func TestActorHeaderFallback(t *testing.T) {
	actor, ok := runActor(t, testSecret, func(r *http.Request) {
		r.Header.Set(ActorHeader, "registrar-desk")
	})
	require.True(t, ok)
	assert.Equal(t, "registrar-desk", actor)
}

func TestActorAbsent(t *testing.T) {
	_, ok := runActor(t, testSecret, nil)
	assert.False(t, ok)
}
