package service

import (
	"fmt"

	"github.com/stemsi/exstem-local/internal/model"
	"github.com/stemsi/exstem-local/internal/scoring"
)

// AttemptResult is an attempt decorated for the results screen.
type AttemptResult struct {
	Attempt      model.ExamAttempt        `json:"attempt"`
	Exam         *model.ExamSummary       `json:"exam,omitempty"`
	Grade        scoring.Grade            `json:"grade"`
	CorrectCount int                      `json:"correctCount"`
	Review       []scoring.QuestionReview `json:"review,omitempty"`
}

// History is a student's attempt list with aggregate stats.
type History struct {
	Attempts []AttemptResult      `json:"attempts"`
	Stats    scoring.HistoryStats `json:"stats"`
}

// Result builds the results view of one attempt. The per-question review is
// only available while the exam is still in the catalog.
func (s *DataService) Result(attemptID string) (AttemptResult, error) {
	a, ok := s.GetAttemptByID(attemptID)
	if !ok {
		return AttemptResult{}, fmt.Errorf("%w: %s", ErrAttemptNotFound, attemptID)
	}
	return s.decorate(a, true), nil
}

// ResultFor decorates an attempt that may not be in the history, such as one
// whose save failed.
func (s *DataService) ResultFor(attempt model.ExamAttempt) AttemptResult {
	return s.decorate(attempt, true)
}

// History returns the student's attempts, newest first, without reviews.
func (s *DataService) History(studentID string) History {
	attempts := s.GetAttemptsByStudent(studentID)
	out := make([]AttemptResult, len(attempts))
	for i, a := range attempts {
		out[i] = s.decorate(a, false)
	}
	return History{Attempts: out, Stats: scoring.Summarize(attempts)}
}

func (s *DataService) decorate(a model.ExamAttempt, withReview bool) AttemptResult {
	r := AttemptResult{Attempt: a, Grade: scoring.GradeFor(a.Percentage)}

	exam, ok := s.GetExamByID(a.ExamID)
	if !ok {
		return r
	}
	summary := exam.Summary()
	r.Exam = &summary
	r.CorrectCount = scoring.CorrectCount(&exam, a.Answers)
	if withReview {
		r.Review = scoring.Review(&exam, a.Answers)
	}
	return r
}
