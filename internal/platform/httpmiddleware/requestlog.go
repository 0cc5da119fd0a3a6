package httpmiddleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-Id"

const requestIDKey = "request_id"

// RequestLog assigns a request id and logs one line per request.
// Request bodies are never logged since they carry customer phone numbers and addresses.
func RequestLog(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
			c.Request.Header.Set(RequestIDHeader, reqID)
		}
		c.Header(RequestIDHeader, reqID)
		c.Set(requestIDKey, reqID)

		c.Next()

		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.String("req_id", reqID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", status),
			slog.Int64("dur_ms", time.Since(start).Milliseconds()),
			slog.String("remote", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("error", c.Errors.String()))
		}
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		} else if status >= http.StatusBadRequest {
			level = slog.LevelWarn
		}
		logger.LogAttrs(c.Request.Context(), level, "http_request", attrs...)
	}
}

// RequestID returns the id assigned by RequestLog.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
