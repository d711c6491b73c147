package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abarrotes/storefront/internal/application/notify"
	"github.com/abarrotes/storefront/internal/domain/identity"
	"github.com/abarrotes/storefront/internal/infrastructure/logger"
)

// Context keys set by the middleware in this file
const (
	TenantIDKey  = "tenant_id"
	UserIDKey    = "user_id"
	NoticesKey   = "notices"
	ErrorCodeKey = "error_code"
)

// SessionReader returns the stored session, nil when logged out
type SessionReader interface {
	Current(ctx context.Context) (*identity.Session, error)
}

// SessionHook is told about the stored session before the handler runs
type SessionHook func(ctx context.Context, session *identity.Session)

// SessionContext tags logs and the server span with the stored session and
// passes it to hooks. It never rejects a request; handlers that need a
// session ask for one.
func SessionContext(sessions SessionReader, hooks ...SessionHook) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		session, err := sessions.Current(ctx)
		if err != nil {
			logger.L(ctx).Warn("Failed to read stored session", zap.Error(err))
		}
		if session != nil {
			tenant := string(session.TenantID)
			c.Set(TenantIDKey, tenant)
			c.Set(UserIDKey, session.UserID)
			c.Request = c.Request.WithContext(logger.WithSession(ctx, tenant, session.UserID))
			enrichSpan(c, tenant, session.UserID)
			for _, hook := range hooks {
				hook(c.Request.Context(), session)
			}
		}
		c.Next()
	}
}

// Notices collects the user notices raised while serving the request so
// that handlers can return them alongside the payload
func Notices() gin.HandlerFunc {
	return func(c *gin.Context) {
		collector := &notify.Collector{}
		c.Set(NoticesKey, collector)
		c.Request = c.Request.WithContext(notify.WithNotifier(c.Request.Context(), collector))
		c.Next()
	}
}

// CollectedNotices returns the notices raised so far in this request
func CollectedNotices(c *gin.Context) []notify.Notice {
	v, ok := c.Get(NoticesKey)
	if !ok {
		return nil
	}
	collector, ok := v.(*notify.Collector)
	if !ok {
		return nil
	}
	return collector.Notices()
}
