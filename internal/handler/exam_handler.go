package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-local/internal/model"
	"github.com/stemsi/exstem-local/internal/response"
	"github.com/stemsi/exstem-local/internal/service"
)

// ExamHandler serves the exam catalog.
type ExamHandler struct {
	data *service.DataService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(data *service.DataService) *ExamHandler {
	return &ExamHandler{data: data}
}

// ListExams godoc
// GET /api/v1/exams
// Lists active exams in catalog order.
func (h *ExamHandler) ListExams(c *gin.Context) {
	exams := h.data.ActiveExams()
	out := make([]model.ExamSummary, len(exams))
	for i := range exams {
		out[i] = exams[i].Summary()
	}
	response.Success(c, http.StatusOK, gin.H{"exams": out})
}

// GetExam godoc
// GET /api/v1/exams/:exam_id
// Returns the exam with its questions, minus the answer key.
func (h *ExamHandler) GetExam(c *gin.Context) {
	exam, ok := h.data.GetExamByID(c.Param("exam_id"))
	if !ok || !exam.IsActive {
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam.Payload()})
}
