package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
	loggerKey       = "logger"
)

// RequestID tags every request with an id, echoes it back, and logs the
// request once it completes. Handlers get a logger carrying the id via Logger.
func RequestID(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if strings.TrimSpace(rid) == "" {
			rid = uuid.New().String()
		}

		entry := logger.WithField("request_id", rid)
		c.Set(requestIDKey, rid)
		c.Set(loggerKey, entry)
		c.Writer.Header().Set(RequestIDHeader, rid)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := entry.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    status,
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})

		switch {
		case status >= 500:
			fields.Error("Request failed")
		case status >= 400:
			fields.Warn("Request rejected")
		default:
			fields.Info("Request handled")
		}
	}
}

// Logger returns the request-scoped logger, or the standard logger when
// RequestID is not installed.
func Logger(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(logrus.FieldLogger); ok {
			return entry
		}
	}
	return logrus.StandardLogger()
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
