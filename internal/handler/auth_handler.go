package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-local/internal/model"
	"github.com/stemsi/exstem-local/internal/response"
	"github.com/stemsi/exstem-local/internal/service"
	"github.com/stemsi/exstem-local/internal/validator"
)

// AuthHandler handles the local identity endpoints. There are no passwords;
// logging in just names the person taking exams on this device.
type AuthHandler struct {
	data    *service.DataService
	session *service.ExamSessionService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(data *service.DataService, session *service.ExamSessionService) *AuthHandler {
	return &AuthHandler{data: data, session: session}
}

// Login godoc
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.StudentLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	// A new student never inherits someone else's running exam.
	h.session.Exit()

	student, err := h.data.LoginStudent(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		failErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"student": student})
}

// Logout godoc
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.session.Exit()
	if err := h.data.Logout(c.Request.Context()); err != nil {
		failErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the active student together with their history stats.
func (h *AuthHandler) Me(c *gin.Context) {
	student := h.data.CurrentStudent()
	if student == nil {
		failErr(c, service.ErrNotLoggedIn)
		return
	}
	history := h.data.History(student.ID)
	response.Success(c, http.StatusOK, gin.H{
		"student": student,
		"stats":   history.Stats,
	})
}
