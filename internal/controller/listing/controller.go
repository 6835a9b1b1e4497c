// Package listing provides HTTP handlers for listing related operations.
package listing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"StudentShift-backend/internal/apperr"
	"StudentShift-backend/internal/database"
	"StudentShift-backend/internal/guard"
	"StudentShift-backend/internal/ledger"
	"StudentShift-backend/internal/model"
	"StudentShift-backend/internal/utilities"
)

// ListingController handles listing related endpoints
type ListingController struct {
	DB     *database.DBinstanceStruct
	Ledger *ledger.Ledger
}

// NewListingController creates a new instance of ListingController
func NewListingController(db *database.DBinstanceStruct, l *ledger.Ledger) *ListingController {
	return &ListingController{
		DB:     db,
		Ledger: l,
	}
}

type statusInfo struct {
	Status string `json:"status" binding:"required"`
}

func decodeListingInfo(c *gin.Context) (model.EditableListingInfo, error) {
	var info model.EditableListingInfo
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&info); err != nil {
		return info, apperr.Validation("Invalid request body: %s", err.Error())
	}
	if err := info.Validate(); err != nil {
		return info, apperr.Validation("%s", err.Error())
	}
	return info, nil
}

// loadOwned fetches listing id and checks that user owns it.
func (lc *ListingController) loadOwned(c *gin.Context, user model.User) (*model.Listing, error) {
	id, err := utilities.ParseIDParam(c, "id")
	if err != nil {
		return nil, err
	}

	var listing model.Listing
	err = lc.DB.WithContext(c.Request.Context()).First(&listing, id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.NotFound("Listing not found")
	case err != nil:
		return nil, apperr.Internal(err, "load listing")
	}

	if err := guard.RequireListingOwner(&listing, user); err != nil {
		return nil, err
	}
	return &listing, nil
}

// withApplied wraps listings and marks those the student has applied to.
func (lc *ListingController) withApplied(c *gin.Context, user model.User, listings []model.Listing) ([]model.ListingResponse, error) {
	applied := map[uint]bool{}
	if user.Role == model.RoleStudent && len(listings) > 0 {
		ids := make([]uint, 0, len(listings))
		for _, l := range listings {
			ids = append(ids, l.ID)
		}
		var err error
		applied, err = lc.Ledger.AppliedListingIDs(c.Request.Context(), user.ID, ids)
		if err != nil {
			return nil, err
		}
	}

	out := make([]model.ListingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, model.ListingResponse{Listing: l, UserApplied: applied[l.ID]})
	}
	return out, nil
}

// CreateListingHandler creates a new listing owned by the current employer.
// @Summary Create listing based on given json structure
// @Description Only employer have access to this endpoint
// @Tags Listing
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param Listing body model.EditableListingInfo true "Input listing information"
// @Success 201 {object} model.Listing "Successfully create listing"
// @Failure 400 {object} utilities.ErrorResponse "Invalid listing struct"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as employer"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /listings [post]
func (lc *ListingController) CreateListingHandler(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	info, err := decodeListingInfo(c)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	listing := model.Listing{
		EmployerID:          user.ID,
		EditableListingInfo: info,
		Status:              model.ListingStatusActive,
	}
	if err := lc.DB.WithContext(c.Request.Context()).Omit(clause.Associations).Create(&listing).Error; err != nil {
		utilities.RespondError(c, apperr.Internal(err, "create listing"))
		return
	}

	c.JSON(http.StatusCreated, listing)
}

// GetListings fetches active listings that match query.
// @Summary Get active listings based on query
// @Description Every query are not required. Newest listing first.
// @Tags Listing
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param search query string false "Search from listing title with substring matching and case insensitive"
// @Param tag query string false "Search if tags field contain tag param, no substring matching and case insensitive"
// @Param company query string false "Search from company name with substring matching and case insensitive"
// @Param location query string false "Search from location with substring matching and case insensitive"
// @Success 200 {array} model.ListingResponse "Return active listing(s)"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /listings [get]
func (lc *ListingController) GetListings(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	query := lc.DB.WithContext(c.Request.Context()).Where("status = ?", model.ListingStatusActive)

	if search := c.Query("search"); search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%")
	}
	if tag := c.Query("tag"); tag != "" {
		query = query.Where("? ILIKE ANY(tags)", tag)
	}
	if company := c.Query("company"); company != "" {
		query = query.Where("company ILIKE ?", "%"+company+"%")
	}
	if location := c.Query("location"); location != "" {
		query = query.Where("location ILIKE ?", "%"+location+"%")
	}

	var listings []model.Listing
	if err := query.Order("created_at DESC, id DESC").Find(&listings).Error; err != nil {
		utilities.RespondError(c, apperr.Internal(err, "list listings"))
		return
	}

	resp, err := lc.withApplied(c, user, listings)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetMyListings fetches every listing of the current employer.
// @Summary Get my listings
// @Description Active and closed listings of the caller, newest first
// @Tags Listing
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Listing
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as employer"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /listings/mine [get]
func (lc *ListingController) GetMyListings(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	listings := []model.Listing{}
	if err := lc.DB.WithContext(c.Request.Context()).
		Where("employer_id = ?", user.ID).
		Order("created_at DESC, id DESC").
		Find(&listings).Error; err != nil {
		utilities.RespondError(c, apperr.Internal(err, "list own listings"))
		return
	}

	c.JSON(http.StatusOK, listings)
}

// GetListingByID fetches a listing by its ID.
// @Summary Get listing by ID
// @Tags Listing
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired listing"
// @Success 200 {object} model.ListingResponse "Return the listing with the specified ID"
// @Failure 400 {object} utilities.ErrorResponse "Invalid id"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 404 {object} utilities.ErrorResponse "Listing not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /listings/{id} [get]
func (lc *ListingController) GetListingByID(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	id, err := utilities.ParseIDParam(c, "id")
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	var listing model.Listing
	if err := lc.DB.WithContext(c.Request.Context()).First(&listing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utilities.RespondError(c, apperr.NotFound("Listing not found"))
			return
		}
		utilities.RespondError(c, apperr.Internal(err, "load listing"))
		return
	}

	resp, err := lc.withApplied(c, user, []model.Listing{listing})
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp[0])
}

// EditListing replaces the editable fields of a listing the caller owns.
// @Summary Edit listing based on given json structure
// @Description Only the employer that own the listing have access to this endpoint
// @Tags Listing
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired listing"
// @Param Listing body model.EditableListingInfo true "Input listing information"
// @Success 200 {object} model.Listing "Successfully update listing"
// @Failure 400 {object} utilities.ErrorResponse "Invalid listing struct"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not have permission to edit"
// @Failure 404 {object} utilities.ErrorResponse "Listing not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /listings/{id} [put]
func (lc *ListingController) EditListing(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	listing, err := lc.loadOwned(c, user)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	info, err := decodeListingInfo(c)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	listing.EditableListingInfo = info
	if err := lc.DB.WithContext(c.Request.Context()).Model(listing).
		Select(model.EditableListingColumns).
		Updates(listing).Error; err != nil {
		utilities.RespondError(c, apperr.Internal(err, "update listing"))
		return
	}

	if err := lc.DB.WithContext(c.Request.Context()).First(listing, listing.ID).Error; err != nil {
		utilities.RespondError(c, apperr.Internal(err, "reload listing"))
		return
	}
	c.JSON(http.StatusOK, listing)
}

// UpdateListingStatus opens or closes a listing the caller owns.
// @Summary Toggle listing status
// @Description Status must be 'active' or 'closed'. Closed listings do not accept applications.
// @Tags Listing
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired listing"
// @Param status body statusInfo true "New status"
// @Success 200 {object} model.Listing
// @Failure 400 {object} utilities.ErrorResponse "Invalid status"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not have permission to edit"
// @Failure 404 {object} utilities.ErrorResponse "Listing not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /listings/{id}/status [patch]
func (lc *ListingController) UpdateListingStatus(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	var info statusInfo
	if err := c.ShouldBindJSON(&info); err != nil ||
		(info.Status != model.ListingStatusActive && info.Status != model.ListingStatusClosed) {
		utilities.RespondError(c, apperr.Validation("Invalid status, must be 'active' or 'closed'"))
		return
	}

	listing, err := lc.loadOwned(c, user)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	if err := lc.DB.WithContext(c.Request.Context()).Model(listing).
		Update("status", info.Status).Error; err != nil {
		utilities.RespondError(c, apperr.Internal(err, "update listing status"))
		return
	}
	listing.Status = info.Status

	c.JSON(http.StatusOK, listing)
}

// DeleteListing deletes a listing the caller owns together with its
// applications and message threads.
// @Summary Delete given listing ID
// @Description Only the employer that own the listing have access to this endpoint
// @Tags Listing
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired listing"
// @Success 200 {object} utilities.MessageResponse "Successfully delete listing"
// @Failure 400 {object} utilities.ErrorResponse "Invalid id"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not have permission to delete this listing"
// @Failure 404 {object} utilities.ErrorResponse "Listing not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /listings/{id} [delete]
func (lc *ListingController) DeleteListing(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	listing, err := lc.loadOwned(c, user)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	if err := lc.DB.WithContext(c.Request.Context()).Delete(listing).Error; err != nil {
		utilities.RespondError(c, apperr.Internal(err, "delete listing"))
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Listing deleted"})
}
