package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slotbook/backend/internal/application/tenancy"
)

// Headers set on rewritten requests. Incoming values are always discarded.
const (
	TenantSlugHeader   = "X-Tenant-Slug"
	OriginalPathHeader = "X-Original-Path"
)

// HostResolver decides whether a request on a custom domain is served as a
// merchant's public page
type HostResolver interface {
	Resolve(ctx context.Context, host, urlPath string) tenancy.Decision
}

// TenantRewrite wraps the engine so custom-domain requests are rewritten to
// /{slug}/... before gin picks a route. Gin matches routes before running
// middleware, so the rewrite cannot live in the gin chain.
func TenantRewrite(resolver HostResolver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(TenantSlugHeader)
		r.Header.Del(OriginalPathHeader)

		decision := resolver.Resolve(r.Context(), r.Host, r.URL.Path)
		if !decision.Rewrite {
			next.ServeHTTP(w, r)
			return
		}

		rewritten := r.Clone(r.Context())
		rewritten.URL.Path = decision.Path
		rewritten.URL.RawPath = ""
		rewritten.RequestURI = decision.Path
		if r.URL.RawQuery != "" {
			rewritten.RequestURI += "?" + r.URL.RawQuery
		}
		rewritten.Header.Set(TenantSlugHeader, decision.Slug)
		rewritten.Header.Set(OriginalPathHeader, r.URL.Path)
		next.ServeHTTP(w, rewritten)
	})
}

// GetTenantSlug returns the slug a custom domain resolved to, or ""
func GetTenantSlug(c *gin.Context) string {
	return c.GetHeader(TenantSlugHeader)
}
