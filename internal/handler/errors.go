package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-local/internal/response"
	"github.com/stemsi/exstem-local/internal/service"
	"github.com/stemsi/exstem-local/internal/session"
)

// errorMapping ties a domain error to the HTTP status and code it surfaces as.
var errorMapping = []struct {
	err    error
	status int
	code   response.ErrCode
}{
	{service.ErrNotLoggedIn, http.StatusUnauthorized, response.ErrNotLoggedIn},
	{service.ErrExamNotFound, http.StatusNotFound, response.ErrExamNotFound},
	{service.ErrExamInactive, http.StatusConflict, response.ErrExamInactive},
	{service.ErrAttemptNotFound, http.StatusNotFound, response.ErrAttemptNotFound},
	{service.ErrNoActiveSession, http.StatusConflict, response.ErrNoActiveSession},
	{session.ErrNotInProgress, http.StatusConflict, response.ErrSessionFinished},
	{session.ErrInvalidOption, http.StatusUnprocessableEntity, response.ErrInvalidOption},
	{session.ErrInvalidIndex, http.StatusUnprocessableEntity, response.ErrInvalidIndex},
	{session.ErrUnknownQuestion, http.StatusUnprocessableEntity, response.ErrUnknownQuestion},
	{service.ErrAttemptNotSaved, http.StatusInternalServerError, response.ErrAttemptNotSaved},
}

// Classify maps err onto an HTTP status and error code. Unknown errors are
// internal errors.
func Classify(err error) (int, response.ErrCode) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// failErr writes the error response for err, recording it on the context for
// the request logger.
func failErr(c *gin.Context, err error) {
	_ = c.Error(err)
	status, code := Classify(err)
	response.Fail(c, status, code)
}
