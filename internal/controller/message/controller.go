// Package message provides HTTP handlers for listing message threads.
package message

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"StudentShift-backend/internal/apperr"
	"StudentShift-backend/internal/thread"
	"StudentShift-backend/internal/utilities"
)

// MessageController handles message related endpoints
type MessageController struct {
	Threads *thread.Service
}

// NewMessageController creates a new instance of MessageController backed by s.
func NewMessageController(s *thread.Service) *MessageController {
	return &MessageController{
		Threads: s,
	}
}

type postInfo struct {
	ListingID uint       `json:"listing_id"`
	StudentID *uuid.UUID `json:"student_id,omitempty"`
	Text      string     `json:"text"`
}

type readInfo struct {
	ListingID uint       `json:"listing_id"`
	StudentID *uuid.UUID `json:"student_id,omitempty"`
}

// ReadResponse reports how many messages were marked read
type ReadResponse struct {
	Updated int64 `json:"updated"`
}

// PostMessageHandler appends a message to the thread of a listing.
// @Summary Send a message about a listing
// @Description Students write to their own thread. Employers must own the listing and name the student.
// @Tags Message
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param message body postInfo true "Message"
// @Success 201 {object} model.MessageView
// @Failure 400 {object} utilities.ErrorResponse "Empty text, missing listing_id, or missing student_id for employer"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner of the listing, or another student's thread"
// @Failure 404 {object} utilities.ErrorResponse "Listing or student not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /messages [post]
func (mc *MessageController) PostMessageHandler(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	var info postInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		utilities.RespondError(c, apperr.Validation("Invalid request body: %s", err.Error()))
		return
	}

	msg, err := mc.Threads.Post(c.Request.Context(), user, thread.PostInput{
		ListingID: info.ListingID,
		StudentID: info.StudentID,
		Text:      info.Text,
	})
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// GetMessagesHandler lists messages of a listing visible to the caller.
// @Summary Get messages of a listing
// @Description Oldest first. Employers without student_id get every thread of the listing grouped by student.
// @Tags Message
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param listing_id query integer true "ID of the listing"
// @Param student_id query string false "Student whose thread to read, employers only"
// @Success 200 {array} model.MessageView
// @Failure 400 {object} utilities.ErrorResponse "Missing or invalid listing_id or student_id"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not allowed to read this thread"
// @Failure 404 {object} utilities.ErrorResponse "Listing not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /messages [get]
func (mc *MessageController) GetMessagesHandler(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	listingID, err := utilities.ParseIDQuery(c, "listing_id")
	if err != nil {
		utilities.RespondError(c, err)
		return
	}
	studentID, err := utilities.ParseOptionalUUID("student_id", c.Query("student_id"))
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	msgs, err := mc.Threads.List(c.Request.Context(), user, listingID, studentID)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, msgs)
}

// GetThreadsHandler summarises the threads of a listing.
// @Summary Get message threads of a listing
// @Description One entry per student thread with message and unread counts, most recent first
// @Tags Message
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param listing_id query integer true "ID of the listing"
// @Success 200 {array} model.ThreadSummary
// @Failure 400 {object} utilities.ErrorResponse "Missing or invalid listing_id"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner of the listing"
// @Failure 404 {object} utilities.ErrorResponse "Listing not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /messages/threads [get]
func (mc *MessageController) GetThreadsHandler(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	listingID, err := utilities.ParseIDQuery(c, "listing_id")
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	threads, err := mc.Threads.Threads(c.Request.Context(), user, listingID)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, threads)
}

// MarkReadHandler marks the other party's messages of a thread as read.
// @Summary Mark thread as read
// @Tags Message
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param thread body readInfo true "Thread to mark, student_id required for employers"
// @Success 200 {object} ReadResponse
// @Failure 400 {object} utilities.ErrorResponse "Missing listing_id or student_id"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not allowed to read this thread"
// @Failure 404 {object} utilities.ErrorResponse "Listing not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /messages/read [patch]
func (mc *MessageController) MarkReadHandler(c *gin.Context) {
	user, ok := utilities.MustUser(c)
	if !ok {
		return
	}

	var info readInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		utilities.RespondError(c, apperr.Validation("Invalid request body: %s", err.Error()))
		return
	}

	n, err := mc.Threads.MarkRead(c.Request.Context(), user, info.ListingID, info.StudentID)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ReadResponse{Updated: n})
}
