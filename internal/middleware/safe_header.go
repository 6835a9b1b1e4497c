package middleware

import "github.com/gin-gonic/gin"

// SafeHeader sets response headers for a JSON API. Responses to requests
// carrying credentials are never cached.
func SafeHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		h.Del("X-Powered-By")
		if c.GetHeader("Authorization") != "" {
			h.Set("Cache-Control", "no-store")
			h.Add("Vary", "Authorization")
		}
		if gin.Mode() == gin.ReleaseMode {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}

		c.Next()
	}
}
