package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"StudentShift-backend/internal/utilities"
)

// RequestLogger writes one structured log line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if user, err := utilities.ExtractUser(c); err == nil {
			attrs = append(attrs, "user_id", user.ID.String(), "role", user.Role)
		}
		slog.Log(c.Request.Context(), level, "http request", attrs...)
	}
}
