package middleware

import (
	"time"

	"github.com/Payphone-Digital/lms/internal/constants"
	ctxutil "github.com/Payphone-Digital/lms/pkg/context"
	"github.com/Payphone-Digital/lms/pkg/logger"
	"github.com/gin-gonic/gin"
)

// ContextMiddleware stamps the request context with a request id, the client
// address as resolved by gin and a deadline.
func ContextMiddleware(module string, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithClient(c.Request.Context(), c.ClientIP(), c.Request.UserAgent())
		ctx = ctxutil.NewContextWithRequest(ctx, c.Request, module, c.FullPath())

		if timeout > 0 {
			var cancel func()
			ctx, cancel = ctxutil.WithTimeout(ctx, timeout)
			defer cancel()
		}

		c.Request = c.Request.WithContext(ctx)
		c.Header(constants.HeaderXRequestID, ctxutil.GetRequestID(ctx))

		c.Next()

		logger.DebugWithContext(ctx, "Request completed").
			String("method", c.Request.Method).
			String("route", c.FullPath()).
			Int("status_code", c.Writer.Status()).
			Duration(ctxutil.GetDuration(ctx)).
			Log()
	}
}

// ClientInfo returns what the auth service records on a new session.
func ClientInfo(c *gin.Context) (userAgent, ip string) {
	ctx := c.Request.Context()
	if ip = ctxutil.GetClientIP(ctx); ip == "" {
		ip = c.ClientIP()
	}
	if userAgent = ctxutil.GetUserAgent(ctx); userAgent == "" {
		userAgent = c.Request.UserAgent()
	}
	return userAgent, ip
}
