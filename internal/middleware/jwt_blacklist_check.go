package middleware

import (
	"github.com/gin-gonic/gin"

	"StudentShift-backend/internal/apperr"
	"StudentShift-backend/internal/auth"
	"StudentShift-backend/internal/utilities"
)

// JwtBlacklistCheck rejects tokens revoked by logout. It must run after RequireAuth.
func JwtBlacklistCheck(bl auth.JwtBlacklistStore) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, err := auth.ExtractClaims(ctx)
		if err != nil {
			utilities.RespondError(ctx, apperr.Unauthorized("%s", err.Error()))
			return
		}

		isBlacklisted, err := bl.IsBlacklisted(ctx.Request.Context(), claims.ID)
		if err != nil {
			utilities.RespondError(ctx, apperr.Internal(err, "Failed to validate token"))
			return
		}

		if isBlacklisted {
			utilities.RespondError(ctx, apperr.Unauthorized("Token has been revoked"))
			return
		}

		ctx.Next()
	}
}
