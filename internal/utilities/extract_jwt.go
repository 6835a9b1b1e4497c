package utilities

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrMissingToken is returned when the Authorization header carries no bearer token.
var ErrMissingToken = errors.New("Missing or malformed authorization header")

// ExtractBearerToken returns the token of a "Bearer <token>" Authorization header.
func ExtractBearerToken(c *gin.Context) (string, error) {
	const BearerSchema = "Bearer "
	authHeader := c.GetHeader("Authorization")

	if len(authHeader) <= len(BearerSchema) || !strings.EqualFold(authHeader[:len(BearerSchema)], BearerSchema) {
		return "", ErrMissingToken
	}

	token := strings.TrimSpace(authHeader[len(BearerSchema):])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
