package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sidhant-sriv/home-catalog/logger"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	requestLogKey   = "request_log"
)

// RequestLogger tags every request with an id and logs one line per request.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(requestIDKey, reqID)
		c.Header(RequestIDHeader, reqID)

		reqLog := log.With(logger.String("request_id", reqID))
		c.Set(requestLogKey, reqLog)

		c.Next()

		status := c.Writer.Status()
		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", status),
			logger.Int("bytes", c.Writer.Size()),
			logger.Duration("duration", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
			logger.Uint("user_id", GetUserID(c)),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, logger.String("errors", errs.String()))
		}
		switch {
		case status >= 500:
			reqLog.Error("http_request", fields...)
		case status >= 400:
			reqLog.Warn("http_request", fields...)
		default:
			reqLog.Info("http_request", fields...)
		}
	}
}

// RequestLog returns the logger tagged with the current request id, or
// fallback outside RequestLogger.
func RequestLog(c *gin.Context, fallback logger.Logger) logger.Logger {
	if v, ok := c.Get(requestLogKey); ok {
		if l, ok := v.(logger.Logger); ok {
			return l
		}
	}
	return fallback
}
