package utilities

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"StudentShift-backend/internal/apperr"
)

// ParseIDParam reads a positive integer path parameter.
func ParseIDParam(c *gin.Context, name string) (uint, error) {
	return parseID(name, c.Param(name))
}

// ParseIDQuery reads a positive integer query parameter. A missing value is
// reported as a validation error naming the parameter.
func ParseIDQuery(c *gin.Context, name string) (uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, apperr.Validation("%s is required", name)
	}
	return parseID(name, raw)
}

// parseID accepts ids in the range of a bigint primary key.
func parseID(name, raw string) (uint, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid %s: %q", name, raw)
	}
	return uint(id), nil
}

// ParseOptionalUUID parses raw as an account id. An empty string yields nil.
func ParseOptionalUUID(name, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Validation("Invalid %s: %q", name, raw)
	}
	return &id, nil
}
