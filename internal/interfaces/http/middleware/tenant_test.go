package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/slotbook/backend/internal/application/tenancy"
)

type stubResolver struct {
	decision tenancy.Decision
	host     string
	path     string
}

func (s *stubResolver) Resolve(_ context.Context, host, urlPath string) tenancy.Decision {
	s.host, s.path = host, urlPath
	return s.decision
}

type seenRequest struct {
	path, slug, original, route string
	query                       string
}

func tenantEngine(seen *seenRequest) *gin.Engine {
	engine := gin.New()
	record := func(c *gin.Context) {
		seen.path = c.Request.URL.Path
		seen.slug = GetTenantSlug(c)
		seen.original = c.GetHeader(OriginalPathHeader)
		seen.route = c.FullPath()
		seen.query = c.Query("ref")
		c.Status(http.StatusOK)
	}
	engine.GET("/api/v1/me", record)
	engine.NoRoute(record)
	return engine
}

func TestTenantRewrite(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("rewrites before routing", func(t *testing.T) {
		var seen seenRequest
		resolver := &stubResolver{decision: tenancy.Decision{Rewrite: true, Path: "/sky-spa/services", Slug: "sky-spa"}}
		handler := TenantRewrite(resolver, tenantEngine(&seen))

		req := httptest.NewRequest(http.MethodGet, "/services?ref=ad", nil)
		req.Host = "book.skyspa.com"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "book.skyspa.com", resolver.host)
		assert.Equal(t, "/services", resolver.path)
		assert.Equal(t, "/sky-spa/services", seen.path)
		assert.Equal(t, "sky-spa", seen.slug)
		assert.Equal(t, "/services", seen.original)
		assert.Equal(t, "ad", seen.query)
	})

	t.Run("passes through untouched", func(t *testing.T) {
		var seen seenRequest
		resolver := &stubResolver{decision: tenancy.Decision{Reason: "main domain"}}
		handler := TenantRewrite(resolver, tenantEngine(&seen))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Host = "slotbook.app"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "/api/v1/me", seen.route)
		assert.Empty(t, seen.slug)
	})

	t.Run("discards spoofed tenant headers", func(t *testing.T) {
		var seen seenRequest
		resolver := &stubResolver{}
		handler := TenantRewrite(resolver, tenantEngine(&seen))

		req := httptest.NewRequest(http.MethodGet, "/anything", nil)
		req.Header.Set(TenantSlugHeader, "someone-else")
		req.Header.Set(OriginalPathHeader, "/forged")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Empty(t, seen.slug)
		assert.Empty(t, seen.original)
	})
}
