// Package profile provides HTTP handlers for student profiles.
package profile

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"StudentShift-backend/internal/apperr"
	"StudentShift-backend/internal/database"
	"StudentShift-backend/internal/guard"
	"StudentShift-backend/internal/model"
	"StudentShift-backend/internal/utilities"
)

// ProfileController handles student profile endpoints
type ProfileController struct {
	DB *database.DBinstanceStruct
}

// NewProfileController creates a new instance of ProfileController
func NewProfileController(db *database.DBinstanceStruct) *ProfileController {
	return &ProfileController{
		DB: db,
	}
}

func (pc *ProfileController) find(c *gin.Context, userID uuid.UUID) (*model.StudentProfile, error) {
	var profile model.StudentProfile
	err := pc.DB.WithContext(c.Request.Context()).Where("user_id = ?", userID).First(&profile).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.NotFound("Profile not found")
	case err != nil:
		return nil, apperr.Internal(err, "load profile")
	}
	return &profile, nil
}

// GetMyProfile returns the profile of the current student.
// @Summary Get my profile
// @Tags Profile
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.StudentProfile
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as student"
// @Failure 404 {object} utilities.ErrorResponse "Profile not created yet"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /profiles/me [get]
func (pc *ProfileController) GetMyProfile(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	profile, err := pc.find(c, user.ID)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetProfile returns the profile of a student account.
// @Summary Get profile by account id
// @Tags Profile
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param user_id path string true "Account id of the student"
// @Success 200 {object} model.StudentProfile
// @Failure 400 {object} utilities.ErrorResponse "Invalid account id"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 404 {object} utilities.ErrorResponse "Profile not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /profiles/{user_id} [get]
func (pc *ProfileController) GetProfile(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		utilities.RespondError(c, apperr.Validation("Invalid user_id"))
		return
	}

	profile, err := pc.find(c, userID)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// EditProfile creates or updates the profile of the current student.
// Fields left empty in the body keep their stored value.
// @Summary Create or update my profile
// @Description Only the student owning the profile can access this endpoint
// @Tags Profile
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param user_id path string true "Account id of the student, must be the caller"
// @Param profile body model.EditableProfileInfo true "Profile information"
// @Success 200 {object} model.StudentProfile
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Cannot modify another user profile"
// @Failure 409 {object} utilities.ErrorResponse "Profile created concurrently"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /profiles/{user_id} [put]
func (pc *ProfileController) EditProfile(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		utilities.RespondError(c, apperr.Validation("Invalid user_id"))
		return
	}
	if err := guard.RequireSelf(user, userID); err != nil {
		utilities.RespondError(c, apperr.Forbidden("Cannot modify another user profile"))
		return
	}

	var edited model.EditableProfileInfo
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&edited); err != nil {
		utilities.RespondError(c, apperr.Validation("Invalid request body: %s", err.Error()))
		return
	}

	profile, err := pc.find(c, user.ID)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		profile = &model.StudentProfile{UserID: user.ID}
	case err != nil:
		utilities.RespondError(c, err)
		return
	}

	utilities.MergeNonEmpty(&profile.EditableProfileInfo, &edited)

	if err := pc.DB.WithContext(c.Request.Context()).Omit(clause.Associations).Save(profile).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utilities.RespondError(c, apperr.Conflict("Profile was created by another request, retry"))
			return
		}
		utilities.RespondError(c, apperr.Internal(err, "save profile"))
		return
	}

	c.JSON(http.StatusOK, profile)
}
