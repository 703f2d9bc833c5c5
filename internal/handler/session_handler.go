package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-local/internal/model"
	"github.com/stemsi/exstem-local/internal/response"
	"github.com/stemsi/exstem-local/internal/service"
	"github.com/stemsi/exstem-local/internal/session"
	"github.com/stemsi/exstem-local/internal/validator"
)

// SessionHandler translates HTTP calls into exam session intents.
type SessionHandler struct {
	session *service.ExamSessionService
	data    *service.DataService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(session *service.ExamSessionService, data *service.DataService) *SessionHandler {
	return &SessionHandler{session: session, data: data}
}

func (h *SessionHandler) reply(c *gin.Context, v session.View, err error) {
	if err != nil {
		failErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": v})
}

// StartExam godoc
// POST /api/v1/exams/:exam_id/start
// Starts the exam, replacing any session in progress.
func (h *SessionHandler) StartExam(c *gin.Context) {
	v, err := h.session.StartExam(c.Request.Context(), c.Param("exam_id"))
	if err != nil {
		failErr(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": v})
}

// GetSession godoc
// GET /api/v1/session
func (h *SessionHandler) GetSession(c *gin.Context) {
	v, err := h.session.View()
	h.reply(c, v, err)
}

// Answer godoc
// POST /api/v1/session/answer
func (h *SessionHandler) Answer(c *gin.Context) {
	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	var (
		v   session.View
		err error
	)
	if req.QuestionID != "" {
		v, err = h.session.SelectAnswerFor(req.QuestionID, *req.OptionIndex)
	} else {
		v, err = h.session.SelectAnswer(*req.OptionIndex)
	}
	h.reply(c, v, err)
}

// Navigate godoc
// POST /api/v1/session/navigate
func (h *SessionHandler) Navigate(c *gin.Context) {
	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	v, err := navigate(h.session, req)
	h.reply(c, v, err)
}

// navigate applies a NavigateRequest. An index wins over a direction.
func navigate(s *service.ExamSessionService, req model.NavigateRequest) (session.View, error) {
	switch {
	case req.Index != nil:
		return s.JumpTo(*req.Index)
	case req.Direction == model.DirectionPrevious:
		return s.Previous()
	default:
		return s.Next()
	}
}

// Flag godoc
// POST /api/v1/session/flag
func (h *SessionHandler) Flag(c *gin.Context) {
	var req model.FlagRequest
	// An empty body flags the current question.
	if c.Request.ContentLength > 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	var (
		v   session.View
		err error
	)
	if req.QuestionID != "" {
		v, err = h.session.ToggleFlagFor(req.QuestionID)
	} else {
		v, err = h.session.ToggleFlag()
	}
	h.reply(c, v, err)
}

// Submit godoc
// POST /api/v1/session/submit
// Ends the exam and returns the scored result. The result is returned even
// when saving it failed, alongside ATTEMPT_NOT_SAVED.
func (h *SessionHandler) Submit(c *gin.Context) {
	attempt, err := h.session.Submit(c.Request.Context())
	if errors.Is(err, service.ErrAttemptNotSaved) {
		_ = c.Error(err)
		status, code := Classify(err)
		response.FailWithData(c, status, code, gin.H{"result": h.data.ResultFor(attempt)})
		return
	}
	if err != nil {
		failErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": h.data.ResultFor(attempt)})
}

// Exit godoc
// POST /api/v1/session/exit
// Leaves the exam without recording an attempt.
func (h *SessionHandler) Exit(c *gin.Context) {
	h.session.Exit()
	response.Success(c, http.StatusOK, gin.H{"message": "Session closed"})
}
