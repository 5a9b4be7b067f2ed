package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/slotbook/backend/internal/domain/identity"
	"github.com/slotbook/backend/internal/infrastructure/auth"
	"github.com/slotbook/backend/internal/interfaces/http/handler"
	"github.com/slotbook/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.APIPrefix())
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "/api/v2", r.APIPrefix())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithNoRoute(func(c *gin.Context) {
		c.String(http.StatusTeapot, "fallback")
	}))

	r.Register(NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	}))
	r.RegisterRoot(NewDomainGroup("health", "/health").GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	}))
	r.Setup()

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/api/v1/test/ping", http.StatusOK, "pong"},
		{"/health", http.StatusOK, "ok"},
		{"/janes-salon", http.StatusTeapot, "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("catalog", "/catalog")
		assert.Equal(t, "catalog", g.Name())
		assert.Equal(t, "/catalog", g.Prefix())
	})

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
		g := NewDomainGroup("test", "/items").
			GET("", ok).
			POST("", ok).
			PUT("/:id", ok).
			PATCH("/:id", ok).
			DELETE("/:id", ok)
		g.RegisterRoutes(engine.Group("/api/v1"))

		for _, tc := range []struct{ method, path string }{
			{http.MethodGet, "/api/v1/items"},
			{http.MethodPost, "/api/v1/items"},
			{http.MethodPut, "/api/v1/items/1"},
			{http.MethodPatch, "/api/v1/items/1"},
			{http.MethodDelete, "/api/v1/items/1"},
		} {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, http.StatusOK, w.Code, tc.method)
			assert.Equal(t, tc.method, w.Body.String())
		}
	})

	t.Run("applies middleware to subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("parent", "/parent").Use(func(c *gin.Context) {
			c.Header("X-Parent", "yes")
			c.Next()
		})
		g.Group("child", "/child").GET("/leaf", func(c *gin.Context) {
			c.String(http.StatusOK, "leaf")
		})
		g.RegisterRoutes(engine.Group("/"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/parent/child/leaf", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "yes", w.Header().Get("X-Parent"))
	})
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/api/v1/bookings", joinPath("/api/v1/bookings", ""))
	assert.Equal(t, "/api/v1/bookings/mine", joinPath("/api/v1/bookings", "/mine"))
	assert.Equal(t, "/janes-salon/", joinPath("/", "/janes-salon/"))
}

// recordingGuards returns guards that note their name on the response and
// pass through, except deny, which aborts with 403
func recordingGuards(deny string) Guards {
	guard := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Writer.Header().Add("X-Guard", name)
			if name == deny {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
		}
	}
	return Guards{
		Authenticate:   guard("auth"),
		User:           guard("user"),
		Customer:       guard("customer"),
		Merchant:       guard("merchant"),
		Admin:          guard("admin"),
		AdminOrService: guard("admin_or_service"),
		BookingLimit:   guard("booking_limit"),
	}
}

func testHandlers() Handlers {
	return Handlers{
		System:        handler.NewSystemHandler("slotbook", "test"),
		Accounts:      handler.NewAccountHandler(nil, nil, nil),
		Bookings:      handler.NewBookingHandler(nil),
		Subscriptions: handler.NewSubscriptionHandler(nil, nil),
		Merchants:     handler.NewMerchantHandler(nil, nil),
		Favorites:     handler.NewFavoriteHandler(nil),
		Public:        handler.NewPublicHandler(nil, nil),
	}
}

func TestBuild_RouteTable(t *testing.T) {
	r := Build(gin.New(), testHandlers(), recordingGuards(""))

	got := make(map[string]bool)
	for _, route := range r.Routes() {
		got[route.Method+" "+route.Path] = true
	}

	want := []string{
		"GET /health",
		"GET /health/ready",
		"GET /api/v1/system/info",
		"GET /api/v1/system/ping",
		"POST /api/v1/bookings",
		"PATCH /api/v1/bookings",
		"GET /api/v1/bookings/mine",
		"GET /api/v1/favorites",
		"POST /api/v1/favorites",
		"DELETE /api/v1/favorites",
		"GET /api/v1/subscriptions/tiers",
		"GET /api/v1/subscriptions/current",
		"GET /api/v1/subscriptions/quota",
		"POST /api/v1/subscriptions/upgrade",
		"POST /api/v1/admin/fix-usage",
		"POST /api/v1/accounts/customer",
		"POST /api/v1/accounts/merchant",
		"GET /api/v1/me",
		"GET /api/v1/merchant",
		"PUT /api/v1/merchant/domain",
		"PATCH /api/v1/merchant/settings",
		"GET /api/v1/merchant/services",
		"POST /api/v1/merchant/services",
		"DELETE /api/v1/merchant/services/:id",
		"GET /api/v1/merchant/products",
		"POST /api/v1/merchant/products",
		"DELETE /api/v1/merchant/products/:id",
		"GET /api/v1/merchant/gallery",
		"POST /api/v1/merchant/gallery",
		"DELETE /api/v1/merchant/gallery/:id",
		"GET /api/v1/merchant/bookings",
		"PATCH /api/v1/merchant/bookings/:id/status",
		"GET /api/v1/public/merchants/:slug",
		"GET /api/v1/public/directory",
	}
	for _, route := range want {
		assert.True(t, got[route], "missing route %s", route)
	}
	assert.Len(t, got, len(want))
}

func TestBuild_GuardChains(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		deny   string
		chain  []string
	}{
		{"anonymous booking is only rate limited", http.MethodPost, "/api/v1/bookings", "booking_limit", []string{"booking_limit"}},
		{"link requires a customer", http.MethodPatch, "/api/v1/bookings", "customer", []string{"auth", "user", "customer"}},
		{"own bookings require a customer", http.MethodGet, "/api/v1/bookings/mine", "customer", []string{"auth", "user", "customer"}},
		{"favorites require a customer", http.MethodDelete, "/api/v1/favorites", "customer", []string{"auth", "user", "customer"}},
		{"quota requires a merchant", http.MethodGet, "/api/v1/subscriptions/quota", "merchant", []string{"auth", "user", "merchant"}},
		{"upgrade requires an admin", http.MethodPost, "/api/v1/subscriptions/upgrade", "admin", []string{"auth", "admin"}},
		{"fix usage accepts service tokens", http.MethodPost, "/api/v1/admin/fix-usage", "admin_or_service", []string{"auth", "admin_or_service"}},
		{"signup requires a user", http.MethodPost, "/api/v1/accounts/merchant", "user", []string{"auth", "user"}},
		{"me requires a user", http.MethodGet, "/api/v1/me", "user", []string{"auth", "user"}},
		{"catalog requires a merchant", http.MethodPost, "/api/v1/merchant/services", "merchant", []string{"auth", "user", "merchant"}},
		{"booking status requires a merchant", http.MethodPatch, "/api/v1/merchant/bookings/" + uuid.NewString() + "/status", "merchant", []string{"auth", "user", "merchant"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := gin.New()
			Build(engine, testHandlers(), recordingGuards(tt.deny))

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Equal(t, tt.chain, w.Header().Values("X-Guard"))
		})
	}
}

func TestBuild_UnguardedRoutes(t *testing.T) {
	engine := gin.New()
	Build(engine, testHandlers(), recordingGuards(""))

	for _, path := range []string{"/health", "/health/ready", "/api/v1/system/ping"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Empty(t, w.Header().Values("X-Guard"), path)
	}
}

func TestBuild_UnknownPathFallsBack(t *testing.T) {
	engine := gin.New()
	Build(engine, testHandlers(), recordingGuards(""))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "ERR_NOT_FOUND"))
}

type rejectingValidator struct{}

func (rejectingValidator) ValidateToken(string) (*auth.Claims, error) {
	return nil, auth.ErrInvalidToken
}

type noMerchants struct{}

func (noMerchants) GetByOwner(context.Context, uuid.UUID) (*identity.Merchant, error) {
	return nil, nil
}

type noCustomers struct{}

func (noCustomers) Exists(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}

func TestNewGuards(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	g := NewGuards(GuardDeps{
		Tokens:    rejectingValidator{},
		Merchants: noMerchants{},
		Customers: noCustomers{},
		Limiter:   limiter,
		Logger:    zap.NewNop(),
	})
	require.NotNil(t, g.BookingLimit)

	engine := gin.New()
	Build(engine, testHandlers(), g)

	for _, path := range []string{"/api/v1/me", "/api/v1/merchant", "/api/v1/bookings/mine"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer bogus")
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	t.Run("without limiter the booking route has no rate limit", func(t *testing.T) {
		g := NewGuards(GuardDeps{Tokens: rejectingValidator{}, Logger: zap.NewNop()})
		assert.Nil(t, g.BookingLimit)
	})
}
