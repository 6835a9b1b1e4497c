// Package middleware contain utilities middleware code
package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	"StudentShift-backend/internal/apperr"
	"StudentShift-backend/internal/auth"
	"StudentShift-backend/internal/database"
	"StudentShift-backend/internal/model"
	"StudentShift-backend/internal/utilities"
)

// RequireAuth validates the Bearer token in the Authorization header and
// loads the account it was issued to. The account is stored as "user" and
// the claims as "claims" in the gin context.
func RequireAuth(db *database.DBinstanceStruct, tokens *auth.TokenManager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, err := utilities.ExtractBearerToken(ctx)
		if err != nil {
			utilities.RespondError(ctx, apperr.Unauthorized("%s", err.Error()))
			return
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				utilities.RespondError(ctx, apperr.Unauthorized("Access token expired"))
			case errors.Is(err, auth.ErrInvalidIssuer):
				utilities.RespondError(ctx, apperr.Unauthorized("Invalid token issuer"))
			default:
				utilities.RespondError(ctx, apperr.Unauthorized("Invalid access token"))
			}
			return
		}
		ctx.Set("claims", claims)

		var foundUser model.User
		if err := db.WithContext(ctx.Request.Context()).Where("id = ?", claims.Subject).First(&foundUser).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utilities.RespondError(ctx, apperr.Unauthorized("User not exist"))
				return
			}
			utilities.RespondError(ctx, apperr.Internal(err, "Failed to retrieve user data"))
			return
		}

		ctx.Set("user", foundUser)
		ctx.Next()
	}
}
