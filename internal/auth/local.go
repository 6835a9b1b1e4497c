// Package auth implements account registration, login and access tokens.
package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"StudentShift-backend/internal/apperr"
	"StudentShift-backend/internal/database"
	"StudentShift-backend/internal/model"
	"StudentShift-backend/internal/utilities"
)

// LocalAuthHandler holds DB reference and token issuer for handler methods.
type LocalAuthHandler struct {
	DB     *database.DBinstanceStruct
	Tokens *TokenManager
	Log    *AuthLogger
}

// NewLocalAuthHandler creates a new instance of LocalAuthHandler.
func NewLocalAuthHandler(db *database.DBinstanceStruct, tokens *TokenManager, log *AuthLogger) *LocalAuthHandler {
	return &LocalAuthHandler{
		DB:     db,
		Tokens: tokens,
		Log:    log,
	}
}

type registerInfo struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	Role      string `json:"role" binding:"required,oneof=student employer"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginInfo struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// validatePassword requires at least 8 characters with an upper case letter,
// a lower case letter and a digit.
func validatePassword(pwd string) error {
	if len(pwd) < 8 {
		return apperr.Validation("Password should longer or equal to 8 characters")
	}
	var upper, lower, digit bool
	for _, r := range pwd {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return apperr.Validation("Password must contain an upper case letter, a lower case letter and a digit")
	}
	return nil
}

// LocalRegisterHandler creates a student or employer account and logs it in.
// @Summary Register a new account
// @Description Email must be unused and password must be at least 8 characters with upper, lower and digit
// @Tags Auth
// @Accept json
// @Produce json
// @Param Info body registerInfo true "role can be only 'student' or 'employer'"
// @Success 201 {object} model.AuthResponse
// @Failure 400 {object} utilities.ErrorResponse "Info provided not met the condition"
// @Failure 409 {object} utilities.ErrorResponse "Email already registered"
// @Failure 500 {object} utilities.ErrorResponse "Database or password hashing error"
// @Router /auth/register [post]
func (lh *LocalAuthHandler) LocalRegisterHandler(c *gin.Context) {
	var info registerInfo

	if err := c.ShouldBindJSON(&info); err != nil {
		utilities.RespondError(c, apperr.Validation("A valid email, password, and role (Only 'student' or 'employer') must be provided"))
		return
	}

	email := model.NormalizeEmail(info.Email)
	if err := validatePassword(info.Password); err != nil {
		utilities.RespondError(c, err)
		return
	}

	var existing model.User
	err := lh.DB.WithContext(c.Request.Context()).Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		lh.Log.LogAuthAttempt(slog.LevelInfo, "Local", "Fail", email, "email already registered")
		utilities.RespondError(c, apperr.Conflict("Email already registered"))
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Do nothing
	default:
		utilities.RespondError(c, apperr.Internal(err, "lookup user by email"))
		return
	}

	hashedPassword, err := utilities.HashPassword(info.Password)
	if err != nil {
		utilities.RespondError(c, apperr.Internal(err, "hash password"))
		return
	}

	user := model.User{
		Email:     email,
		Password:  hashedPassword,
		Role:      info.Role,
		FirstName: strings.TrimSpace(info.FirstName),
		LastName:  strings.TrimSpace(info.LastName),
	}
	if err := lh.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utilities.RespondError(c, apperr.Conflict("Email already registered"))
			return
		}
		utilities.RespondError(c, apperr.Internal(err, "create user"))
		return
	}

	accessToken, _, err := lh.Tokens.Generate(user)
	if err != nil {
		utilities.RespondError(c, apperr.Internal(err, "generate access token"))
		return
	}

	lh.Log.LogAuthAttempt(slog.LevelInfo, "Local", "Success", email, "registered as "+user.Role)
	c.JSON(http.StatusCreated, model.AuthResponse{User: user, AccessToken: accessToken})
}

// LocalLoginHandler exchanges email and password for an access token.
// @Summary Login with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param Info body loginInfo true "Credentials"
// @Success 200 {object} model.AuthResponse
// @Failure 400 {object} utilities.ErrorResponse "Email or password is not provided"
// @Failure 401 {object} utilities.ErrorResponse "Email or password is incorrect"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /auth/login [post]
func (lh *LocalAuthHandler) LocalLoginHandler(c *gin.Context) {
	var info loginInfo

	if err := c.ShouldBindJSON(&info); err != nil {
		utilities.RespondError(c, apperr.Validation("Email or password is not provided"))
		return
	}
	email := model.NormalizeEmail(info.Email)

	var user model.User
	err := lh.DB.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		lh.Log.LogAuthAttempt(slog.LevelWarn, "Local", "Fail", email, "unknown email")
		utilities.RespondError(c, apperr.Unauthorized("Email or password is incorrect"))
		return
	case err == nil:
		// Do nothing
	default:
		utilities.RespondError(c, apperr.Internal(err, "lookup user by email"))
		return
	}

	if user.Password == "" || !utilities.VerifyPassword(info.Password, user.Password) {
		lh.Log.LogAuthAttempt(slog.LevelWarn, "Local", "Fail", email, "wrong password")
		utilities.RespondError(c, apperr.Unauthorized("Email or password is incorrect"))
		return
	}

	accessToken, _, err := lh.Tokens.Generate(user)
	if err != nil {
		utilities.RespondError(c, apperr.Internal(err, "generate access token"))
		return
	}

	lh.Log.LogAuthAttempt(slog.LevelInfo, "Local", "Success", email, "")
	c.JSON(http.StatusOK, model.AuthResponse{User: user, AccessToken: accessToken})
}

// MeHandler returns the authenticated account.
// @Summary Get current account
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} utilities.ErrorResponse
// @Router /auth/me [get]
func (lh *LocalAuthHandler) MeHandler(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}
