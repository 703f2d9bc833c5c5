package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-local/internal/response"
	"github.com/stemsi/exstem-local/internal/service"
)

// AttemptHandler serves results and history.
type AttemptHandler struct {
	data *service.DataService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(data *service.DataService) *AttemptHandler {
	return &AttemptHandler{data: data}
}

// ListAttempts godoc
// GET /api/v1/attempts
// Returns the active student's attempts, newest first, with summary stats.
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	student := h.data.CurrentStudent()
	if student == nil {
		failErr(c, service.ErrNotLoggedIn)
		return
	}
	response.Success(c, http.StatusOK, h.data.History(student.ID))
}

// GetAttempt godoc
// GET /api/v1/attempts/:attempt_id
// Returns one result with grade and per-question review.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	student := h.data.CurrentStudent()
	if student == nil {
		failErr(c, service.ErrNotLoggedIn)
		return
	}

	result, err := h.data.Result(c.Param("attempt_id"))
	if err != nil {
		failErr(c, err)
		return
	}
	// Other people's results on this device stay private.
	if result.Attempt.StudentID != student.ID {
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}
