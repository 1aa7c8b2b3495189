package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/battle-arena/pkg/keygen"
)

const (
	// ContextKeyRequestID is the key for the request id in gin context
	ContextKeyRequestID = "request_id"
	// ContextKeyLogger is the key for the request-scoped logger in gin context
	ContextKeyLogger = "logger"

	// HeaderRequestID carries the request id in and out
	HeaderRequestID = "X-Request-ID"

	maxLoggedBody = 1000
)

// redactedFields are never written to the log
var redactedFields = map[string]bool{
	"password": true,
}

// RequestIDMiddleware assigns every request an id and a logger carrying it
func RequestIDMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" || len(requestID) > 64 {
			requestID = keygen.GenerateRequestID()
		}
		c.Set(ContextKeyRequestID, requestID)
		c.Set(ContextKeyLogger, logger.With("request_id", requestID))
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

// Logger returns the request-scoped logger, or slog.Default outside a request
func Logger(c *gin.Context) *slog.Logger {
	if l, ok := c.Get(ContextKeyLogger); ok {
		return l.(*slog.Logger)
	}
	return slog.Default()
}

// RequestLoggerMiddleware logs all incoming requests
func RequestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		// Build full URL
		fullURL := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			fullURL = fullURL + "?" + c.Request.URL.RawQuery
		}

		// Process request
		c.Next()

		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"url", fullURL,
			"status", statusCode,
			"latency", latency,
		}
		if userID := GetUserID(c); userID != 0 {
			attrs = append(attrs, "user_id", userID)
		}

		logger := Logger(c)
		switch {
		case statusCode >= 500:
			logger.Error("request", attrs...)
		case statusCode >= 400:
			logger.Warn("request", attrs...)
		default:
			logger.Info("request", attrs...)
		}
	}
}

// AuditLoggerMiddleware logs the body of write requests with credentials
// redacted. Use this for user and character mutations.
func AuditLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		Logger(c).Info("audit",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"body", redactBody(bodyBytes),
		)
		c.Next()
	}
}

// redactBody masks sensitive JSON fields and truncates long bodies
func redactBody(body []byte) string {
	if len(body) == 0 {
		return "(empty)"
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err == nil {
		for k := range fields {
			if redactedFields[k] {
				fields[k] = "***"
			}
		}
		if redacted, err := json.Marshal(fields); err == nil {
			body = redacted
		}
	} else {
		return "(unparseable)"
	}

	s := string(body)
	if len(s) > maxLoggedBody {
		s = s[:maxLoggedBody] + "..."
	}
	return s
}
