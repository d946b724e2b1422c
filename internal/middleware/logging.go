// Package middleware provides gin middleware for request logging and admin authentication.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stwalsh4118/streamhub/internal/logger"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// RequestLogger returns a Gin middleware for logging HTTP requests.
// Websocket upgrades are logged when the connection closes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.For("http")
		start := time.Now()
		path := c.Request.URL.Path

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		event := log.Info()
		status := c.Writer.Status()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}
		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")

		if len(c.Errors) > 0 {
			log.Error().
				Str("request_id", requestID).
				Strs("errors", c.Errors.Errors()).
				Str("path", path).
				Msg("Request completed with errors")
		}
	}
}
