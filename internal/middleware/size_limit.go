package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"StudentShift-backend/internal/utilities"
)

// SizeLimit caps request bodies at maxBodyBytes. Requests that announce a
// larger Content-Length are rejected with 413 before the handler runs, the
// rest are wrapped in http.MaxBytesReader so a lying client fails on read.
func SizeLimit(maxBodyBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBodyBytes <= 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBodyBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{
				Error: "Request body too large",
				Code:  "PAYLOAD_TOO_LARGE",
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		c.Next()
	}
}
