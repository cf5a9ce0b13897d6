package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sean-huni/store-sub000/pkg/logger"
)

// Logger logs one line per request, at a level chosen by status class.
// The Authorization header is never logged.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if p := GetPrincipal(c); p != nil {
			fields = append(fields, zap.Int64("identity_id", p.IdentityID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.ErrorContext(c.Request.Context(), "Server error", fields...)
		case status >= 400:
			log.WarnContext(c.Request.Context(), "Client error", fields...)
		default:
			log.InfoContext(c.Request.Context(), "Request completed", fields...)
		}
	}
}
