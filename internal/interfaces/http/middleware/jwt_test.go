package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/slotbook/backend/internal/infrastructure/auth"
	"github.com/slotbook/backend/internal/infrastructure/config"
	"github.com/slotbook/backend/internal/infrastructure/logger"
)

const testSecret = "test-secret-key-at-least-32-bytes!!"

func newTestJWTService(ttl time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                testSecret,
		Issuer:                "slotbook-test",
		AccessTokenExpiration: ttl,
	})
}

func issueToken(t *testing.T, svc *auth.JWTService, in auth.GenerateTokenInput) string {
	t.Helper()
	token, _, err := svc.GenerateToken(in)
	require.NoError(t, err)
	return token
}

func serve(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestJWTService(time.Hour)

	newRouter := func(seen *uuid.UUID, seenCtx *string) *gin.Engine {
		router := gin.New()
		router.Use(JWTAuthMiddleware(svc, zap.NewNop()))
		router.GET("/me", func(c *gin.Context) {
			*seen = GetIdentityID(c)
			*seenCtx = logger.GetIdentityID(c.Request.Context())
			c.Status(http.StatusOK)
		})
		return router
	}

	t.Run("accepts a valid token", func(t *testing.T) {
		var seen uuid.UUID
		var seenCtx string
		id := uuid.New()
		token := issueToken(t, svc, auth.GenerateTokenInput{IdentityID: id, Email: "jane@example.com"})

		w := serve(newRouter(&seen, &seenCtx), http.MethodGet, "/me", token)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, id, seen)
		assert.Equal(t, id.String(), seenCtx)
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		var seen uuid.UUID
		var seenCtx string
		w := serve(newRouter(&seen, &seenCtx), http.MethodGet, "/me", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")
		assert.Equal(t, uuid.Nil, seen)
	})

	t.Run("rejects a non-bearer header", func(t *testing.T) {
		var seen uuid.UUID
		var seenCtx string
		router := newRouter(&seen, &seenCtx)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(AuthHeaderKey, "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		var seen uuid.UUID
		var seenCtx string
		other := auth.NewJWTService(config.JWTConfig{
			Secret:                "another-secret-key-of-32-bytes!!!!",
			Issuer:                "slotbook-test",
			AccessTokenExpiration: time.Hour,
		})
		token := issueToken(t, other, auth.GenerateTokenInput{IdentityID: uuid.New()})

		w := serve(newRouter(&seen, &seenCtx), http.MethodGet, "/me", token)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")
	})

	t.Run("reports expiry distinctly", func(t *testing.T) {
		var seen uuid.UUID
		var seenCtx string
		expired := newTestJWTService(-time.Minute)
		token := issueToken(t, expired, auth.GenerateTokenInput{IdentityID: uuid.New()})

		w := serve(newRouter(&seen, &seenCtx), http.MethodGet, "/me", token)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_EXPIRED")
	})
}

func TestOptionalJWTAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestJWTService(time.Hour)

	var seen uuid.UUID
	router := gin.New()
	router.Use(OptionalJWTAuthMiddleware(svc))
	router.POST("/bookings", func(c *gin.Context) {
		seen = GetIdentityID(c)
		c.Status(http.StatusCreated)
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		seen = uuid.New()
		w := serve(router, http.MethodPost, "/bookings", "")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, uuid.Nil, seen)
	})

	t.Run("invalid token is treated as anonymous", func(t *testing.T) {
		seen = uuid.New()
		w := serve(router, http.MethodPost, "/bookings", "not-a-jwt")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, uuid.Nil, seen)
	})

	t.Run("valid token is recognised", func(t *testing.T) {
		id := uuid.New()
		w := serve(router, http.MethodPost, "/bookings", issueToken(t, svc, auth.GenerateTokenInput{IdentityID: id}))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, id, seen)
	})
}
