package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/slotbook/backend/internal/infrastructure/telemetry"
)

// Profiling tags the handler goroutine with route, method and surface pprof
// labels so profiles can be sliced per endpoint. Health checks and the API
// docs are left unlabelled.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/api/docs") {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		surface := "api"
		if GetTenantSlug(c) != "" {
			surface = "tenant"
		}

		telemetry.WithProfilingLabels(c.Request.Context(), map[string]string{
			telemetry.ProfilingLabelRoute:   route,
			telemetry.ProfilingLabelMethod:  c.Request.Method,
			telemetry.ProfilingLabelSurface: surface,
		}, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
