package middleware

import (
	"github.com/gin-gonic/gin"

	"StudentShift-backend/internal/guard"
	"StudentShift-backend/internal/utilities"
)

// CheckRole will protect endpoint from user that is not a specific roles
func CheckRole(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := utilities.MustUser(ctx)
		if !ok {
			return
		}

		if err := guard.RequireRole(user, roles...); err != nil {
			utilities.RespondError(ctx, err)
			return
		}
		ctx.Next()
	}
}
