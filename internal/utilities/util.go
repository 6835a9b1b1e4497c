// Package utilities contain utility code that use across the package
package utilities

import (
	"errors"
	"log/slog"
	"reflect"

	"github.com/gin-gonic/gin"

	"StudentShift-backend/internal/apperr"
	"StudentShift-backend/internal/model"
)

// ErrorResponse type for swagger docs
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// MessageResponse type for swagger docs
type MessageResponse struct {
	Message string `json:"message"`
}

// RespondError aborts the request with the status and body matching err.
// Internal errors are logged and replaced by a generic message.
func RespondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if apperr.KindOf(err) == apperr.KindInternal {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"err", err,
		)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: apperr.PublicMessage(err),
		Code:  string(apperr.CodeOf(err)),
	})
}

// ExtractUser extracts the user model from Gin context.
// It does not abort the request; instead returns an error when missing/invalid.
func ExtractUser(c *gin.Context) (model.User, error) {
	u, _ := c.Get("user")
	if u == nil {
		return model.User{}, errors.New("User information not provided")
	}

	user, ok := u.(model.User)
	if !ok {
		return model.User{}, errors.New("Failed to assert type")
	}
	return user, nil
}

// MustUser returns the authenticated user or aborts with 401.
// The second value is false when the request has been aborted.
func MustUser(c *gin.Context) (model.User, bool) {
	user, err := ExtractUser(c)
	if err != nil {
		RespondError(c, apperr.Unauthorized("%s", err.Error()))
		return model.User{}, false
	}
	return user, true
}

// MergeNonEmpty help merge struct with non-empty field
func MergeNonEmpty(dst, src interface{}) {
	dv := reflect.ValueOf(dst).Elem()
	sv := reflect.ValueOf(src).Elem()

	for i := 0; i < sv.NumField(); i++ {
		sf := sv.Field(i)
		if !sf.IsZero() {
			df := dv.FieldByName(sv.Type().Field(i).Name)
			if df.IsValid() && df.CanSet() {
				df.Set(sf)
			}
		}
	}
}
