// Package application provides HTTP handlers for the application ledger.
package application

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"StudentShift-backend/internal/apperr"
	"StudentShift-backend/internal/ledger"
	"StudentShift-backend/internal/utilities"
)

// ApplicationController handles application related endpoints
type ApplicationController struct {
	Ledger *ledger.Ledger
}

// NewApplicationController creates a new instance of ApplicationController backed by l.
func NewApplicationController(l *ledger.Ledger) *ApplicationController {
	return &ApplicationController{
		Ledger: l,
	}
}

type applyInfo struct {
	ListingID   uint       `json:"listing_id"`
	StudentID   *uuid.UUID `json:"student_id,omitempty"`
	CoverLetter string     `json:"cover_letter"`
}

type statusInfo struct {
	Status string `json:"status" binding:"required"`
}

// ApplicationHandler submits an application of the current student to a listing.
// @Summary Apply to a listing
// @Description Only student can access this endpoint. student_id may be omitted, when given it must be the caller.
// @Tags Application
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param application body applyInfo true "Application information"
// @Success 201 {object} model.Application "Successfully applied"
// @Failure 400 {object} utilities.ErrorResponse "listing_id missing or listing closed"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as student, or applying for someone else"
// @Failure 404 {object} utilities.ErrorResponse "Listing not found"
// @Failure 409 {object} utilities.ErrorResponse "Already applied"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /applications [post]
func (ac *ApplicationController) ApplicationHandler(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	var info applyInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		utilities.RespondError(c, apperr.Validation("Invalid request body: %s", err.Error()))
		return
	}
	if info.StudentID != nil && *info.StudentID != user.ID {
		utilities.RespondError(c, apperr.Forbidden("Students can only apply for themselves"))
		return
	}

	app, err := ac.Ledger.Submit(c.Request.Context(), user, info.ListingID, info.CoverLetter)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, app)
}

// MyApplicationsHandler lists the applications of the current student.
// @Summary Get my applications
// @Description Newest first, each joined with the current listing information
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.ApplicationResponse
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as student"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /applications/me [get]
func (ac *ApplicationController) MyApplicationsHandler(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	apps, err := ac.Ledger.ListForStudent(c.Request.Context(), user)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, apps)
}

// ListApplicantsHandler lists the applications to a listing.
// @Summary Get applicants of a listing
// @Description Only the employer owning the listing can access this endpoint
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of the listing"
// @Success 200 {array} model.ApplicationResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid listing id"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner of the listing"
// @Failure 404 {object} utilities.ErrorResponse "Listing not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /applications/listing/{id} [get]
func (ac *ApplicationController) ListApplicantsHandler(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	listingID, err := utilities.ParseIDParam(c, "id")
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	apps, err := ac.Ledger.ListApplicants(c.Request.Context(), user, listingID)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, apps)
}

// UpdateStatusHandler moves an application to a new status.
// @Summary Update application status
// @Description Only the employer owning the listing. Allowed moves: applied -> review|interview|rejected, review -> interview|rejected, interview -> accepted|rejected
// @Tags Application
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of the application"
// @Param status body statusInfo true "New status"
// @Success 200 {object} model.Application
// @Failure 400 {object} utilities.ErrorResponse "Unknown status or transition not allowed"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner of the listing"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Failure 409 {object} utilities.ErrorResponse "Status changed concurrently"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /applications/{id}/status [patch]
func (ac *ApplicationController) UpdateStatusHandler(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	applicationID, err := utilities.ParseIDParam(c, "id")
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	var info statusInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		utilities.RespondError(c, apperr.Validation("status must be provided"))
		return
	}

	app, err := ac.Ledger.UpdateStatus(c.Request.Context(), user, applicationID, info.Status)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, app)
}
