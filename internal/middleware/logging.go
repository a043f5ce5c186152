package middleware

import (
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/Payphone-Digital/lms/internal/errors"
	"github.com/Payphone-Digital/lms/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggingMiddleware logs HTTP requests through zap. Query strings are left out
// because reset links carry tokens in them.
func LoggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			path := param.Path
			if i := strings.IndexByte(path, '?'); i >= 0 {
				path = path[:i]
			}

			logger.LogRequest(
				param.Method,
				path,
				param.StatusCode,
				param.Latency.Milliseconds(),
				param.ClientIP,
				param.Request.UserAgent(),
			)

			if param.ErrorMessage != "" {
				logger.GetLogger().Error("Request error",
					zap.String("error", param.ErrorMessage),
					zap.String("method", param.Method),
					zap.String("path", path),
					zap.String("client_ip", param.ClientIP),
					zap.Int("status_code", param.StatusCode),
					zap.Duration("latency", param.Latency),
				)
			}

			if param.Latency > time.Second*2 {
				logger.GetLogger().Warn("Slow request detected",
					zap.String("method", param.Method),
					zap.String("path", path),
					zap.Duration("latency", param.Latency),
					zap.String("client_ip", param.ClientIP),
				)
			}

			return ""
		},
		Output:    io.Discard,
		SkipPaths: []string{"/metrics"},
	})
}

// RecoveryMiddleware recovers from panics and answers with the generic error.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.LogPanic(recovered)
		AbortWithError(c, apperrors.ErrInternal)
	})
}

// SecurityLoggingMiddleware flags scanner user agents and records every
// credential submission.
func SecurityLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		userAgent := c.Request.UserAgent()

		if isSuspiciousUserAgent(userAgent) {
			logger.GetLogger().Warn("Suspicious user agent detected",
				zap.String("client_ip", clientIP),
				zap.String("user_agent", userAgent),
				zap.String("path", c.Request.URL.Path),
			)
		}

		c.Next()

		if c.Request.Method == http.MethodPost && strings.HasSuffix(c.FullPath(), "/auth/login") {
			logger.LogAuth("", "login", c.Writer.Status() == http.StatusOK,
				zap.String("client_ip", clientIP),
				zap.Int("status_code", c.Writer.Status()),
			)
		}
	}
}

func isSuspiciousUserAgent(userAgent string) bool {
	suspiciousPatterns := []string{
		"sqlmap", "nikto", "nmap", "masscan", "burp", "hydra", "scanner",
	}

	ua := strings.ToLower(userAgent)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}

	return false
}
