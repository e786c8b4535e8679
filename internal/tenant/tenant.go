package tenant

import (
	"log/slog"
	"strings"

	"payment-platform/internal/apperr"
	"payment-platform/internal/httpx"
	"payment-platform/internal/logcontext"

	"github.com/gin-gonic/gin"
)

// HeaderName carries the tenant identifier on every tenant-scoped request.
const HeaderName = "X-Tenant-ID"

const contextKey = "tenantId"

// Middleware extracts and validates the tenant id once per request. Handlers
// behind it can rely on FromContext returning a non-empty id.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderName))
		if id == "" {
			httpx.Error(c, apperr.MissingTenantErr())
			c.Abort()
			return
		}

		c.Set(contextKey, id)
		ctx := logcontext.AppendCtx(c.Request.Context(), slog.String("tenantId", id))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// FromContext returns the tenant id stored by Middleware.
func FromContext(c *gin.Context) string {
	return c.GetString(contextKey)
}
