package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// NonceOutcomeKey holds what a nonce route did: issued, used, rejected, pruned
	NonceOutcomeKey = "nonce_outcome"

	errorCodeKey = "error_code"
)

// SetNonceOutcome records the nonce result of the current request for the access log
func SetNonceOutcome(c *gin.Context, outcome string) {
	c.Set(NonceOutcomeKey, outcome)
}

// Logger writes one access line per request.
// Probe routes that succeed are logged at debug so readiness polling does not flood the log.
func Logger(logger *zap.Logger, quietRoutes ...string) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(quietRoutes))
	for _, r := range quietRoutes {
		quiet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Int("bytes", c.Writer.Size()),
			zap.String("client_ip", c.ClientIP()),
		}
		if outcome := c.GetString(NonceOutcomeKey); outcome != "" {
			fields = append(fields, zap.String("nonce_outcome", outcome))
		}
		if code := c.GetString(errorCodeKey); code != "" {
			fields = append(fields, zap.String("error_code", code))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		level := zapcore.InfoLevel
		msg := "request completed"
		switch {
		case status >= 500:
			level, msg = zapcore.ErrorLevel, "server error"
		case status >= 400:
			level, msg = zapcore.WarnLevel, "client error"
		default:
			if _, ok := quiet[route]; ok {
				level = zapcore.DebugLevel
			}
		}

		if ce := logger.Check(level, msg); ce != nil {
			ce.Write(fields...)
		}
	}
}
