package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/domain/shared"
	"github.com/slotbook/backend/internal/infrastructure/auth"
	"github.com/slotbook/backend/internal/infrastructure/logger"
)

type mockMerchantLookup struct {
	mock.Mock
}

func (m *mockMerchantLookup) GetByOwner(ctx context.Context, identityID uuid.UUID) (*identity.Merchant, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Merchant), args.Error(1)
}

type mockCustomerLookup struct {
	mock.Mock
}

func (m *mockCustomerLookup) Exists(ctx context.Context, identityID uuid.UUID) (bool, error) {
	args := m.Called(ctx, identityID)
	return args.Bool(0), args.Error(1)
}

func guardedRouter(svc *auth.JWTService, guard gin.HandlerFunc, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(JWTAuthMiddleware(svc, zap.NewNop()), guard)
	router.GET("/guarded", handler)
	return router
}

func ok(c *gin.Context) { c.Status(http.StatusOK) }

func TestRequireUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestJWTService(time.Hour)
	router := guardedRouter(svc, RequireUser(), ok)

	t.Run("identity token passes", func(t *testing.T) {
		token := issueToken(t, svc, auth.GenerateTokenInput{IdentityID: uuid.New()})
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/guarded", token).Code)
	})

	t.Run("service token is refused", func(t *testing.T) {
		token := issueToken(t, svc, auth.GenerateTokenInput{IdentityID: uuid.New(), TokenType: auth.TokenTypeService})
		assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/guarded", token).Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestJWTService(time.Hour)
	core, logs := observer.New(zapcore.WarnLevel)
	router := guardedRouter(svc, RequireAdmin(zap.New(core)), ok)

	t.Run("admin passes", func(t *testing.T) {
		token := issueToken(t, svc, auth.GenerateTokenInput{IdentityID: uuid.New(), Roles: []string{auth.RoleAdmin}})
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/guarded", token).Code)
	})

	t.Run("non-admin gets a generic forbidden and a log line", func(t *testing.T) {
		token := issueToken(t, svc, auth.GenerateTokenInput{IdentityID: uuid.New(), Roles: []string{"merchant"}})
		w := serve(router, http.MethodGet, "/guarded", token)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), `"message":"Forbidden"`)
		assert.Equal(t, 1, logs.FilterMessage("Admin access denied").Len())
	})

	t.Run("service token is not an admin", func(t *testing.T) {
		token := issueToken(t, svc, auth.GenerateTokenInput{IdentityID: uuid.New(), TokenType: auth.TokenTypeService})
		assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/guarded", token).Code)
	})
}

func TestRequireAdminOrService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestJWTService(time.Hour)
	router := guardedRouter(svc, RequireAdminOrService(zap.NewNop()), ok)

	tests := []struct {
		name  string
		input auth.GenerateTokenInput
		want  int
	}{
		{"admin", auth.GenerateTokenInput{IdentityID: uuid.New(), Roles: []string{auth.RoleAdmin}}, http.StatusOK},
		{"service", auth.GenerateTokenInput{IdentityID: uuid.New(), TokenType: auth.TokenTypeService}, http.StatusOK},
		{"plain user", auth.GenerateTokenInput{IdentityID: uuid.New()}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := issueToken(t, svc, tt.input)
			assert.Equal(t, tt.want, serve(router, http.MethodGet, "/guarded", token).Code)
		})
	}
}

func TestRequireMerchant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestJWTService(time.Hour)

	t.Run("scopes the request to the caller's merchant", func(t *testing.T) {
		owner := uuid.New()
		merchant, err := identity.NewMerchant(owner, "Sky Spa", "sky-spa")
		assert.NoError(t, err)

		lookup := new(mockMerchantLookup)
		lookup.On("GetByOwner", mock.Anything, owner).Return(merchant, nil)

		var seen uuid.UUID
		var seenCtx string
		router := guardedRouter(svc, RequireMerchant(lookup), func(c *gin.Context) {
			seen = GetMerchantID(c)
			seenCtx = logger.GetMerchantID(c.Request.Context())
			c.Status(http.StatusOK)
		})

		w := serve(router, http.MethodGet, "/guarded", issueToken(t, svc, auth.GenerateTokenInput{IdentityID: owner}))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, merchant.ID, seen)
		assert.Equal(t, merchant.ID.String(), seenCtx)
	})

	t.Run("no merchant is forbidden", func(t *testing.T) {
		lookup := new(mockMerchantLookup)
		lookup.On("GetByOwner", mock.Anything, mock.Anything).Return(nil, shared.NotFound("merchant"))

		router := guardedRouter(svc, RequireMerchant(lookup), ok)
		w := serve(router, http.MethodGet, "/guarded", issueToken(t, svc, auth.GenerateTokenInput{IdentityID: uuid.New()}))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("lookup failure is unavailable", func(t *testing.T) {
		lookup := new(mockMerchantLookup)
		lookup.On("GetByOwner", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

		router := guardedRouter(svc, RequireMerchant(lookup), ok)
		w := serve(router, http.MethodGet, "/guarded", issueToken(t, svc, auth.GenerateTokenInput{IdentityID: uuid.New()}))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_UPSTREAM_UNAVAILABLE")
	})
}

func TestRequireCustomer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestJWTService(time.Hour)
	withAccount, without := uuid.New(), uuid.New()

	lookup := new(mockCustomerLookup)
	lookup.On("Exists", mock.Anything, withAccount).Return(true, nil)
	lookup.On("Exists", mock.Anything, without).Return(false, nil)
	router := guardedRouter(svc, RequireCustomer(lookup), ok)

	assert.Equal(t, http.StatusOK,
		serve(router, http.MethodGet, "/guarded", issueToken(t, svc, auth.GenerateTokenInput{IdentityID: withAccount})).Code)
	assert.Equal(t, http.StatusForbidden,
		serve(router, http.MethodGet, "/guarded", issueToken(t, svc, auth.GenerateTokenInput{IdentityID: without})).Code)
}
