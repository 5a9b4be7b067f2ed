package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/slotbook/backend/internal/infrastructure/telemetry"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
}

// TracingWithConfig returns the otelgin middleware, or a pass-through when
// tracing is disabled.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributeInjector adds request and caller attributes to the current
// span. It runs inside the otelgin span, after authentication, and marks 4xx
// and 5xx responses as errors.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if id := requestIDOf(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if slug := GetTenantSlug(c); slug != "" {
			span.SetAttributes(attribute.String("tenant_slug", slug))
		}

		c.Next()

		if id := GetIdentityID(c); id != uuid.Nil {
			span.SetAttributes(attribute.String("identity_id", id.String()))
		}
		if id := GetMerchantID(c); id != uuid.Nil {
			span.SetAttributes(attribute.String(telemetry.SpanAttrMerchantID, id.String()))
		}
		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
