package model

import (
	"errors"
	"fmt"

	govalidator "github.com/go-playground/validator/v10"
)

// Exam validation errors.
var (
	ErrDuplicateQuestionID = errors.New("duplicate question id")
	ErrCorrectOutOfRange   = errors.New("correct answer index out of range")
)

var validate = govalidator.New(govalidator.WithRequiredStructEnabled())

// Exam represents a published, timed exam in the catalog.
type Exam struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	// Duration is in minutes.
	Duration    int        `json:"duration" validate:"gt=0"`
	Questions   []Question `json:"questions" validate:"min=1,dive"`
	TotalPoints int        `json:"totalPoints" validate:"min=0"`
	// PassingScore is a percentage threshold in [0, 100].
	PassingScore float64 `json:"passingScore" validate:"gte=0,lte=100"`
	IsActive     bool    `json:"isActive"`
	CreatedAt    string  `json:"createdAt"`
	CreatedBy    string  `json:"createdBy"`
}

// DurationSeconds returns the time limit of the exam in seconds.
func (e *Exam) DurationSeconds() int {
	return e.Duration * 60
}

// QuestionCount returns the number of questions in the exam.
func (e *Exam) QuestionCount() int {
	return len(e.Questions)
}

// QuestionByID returns the question with the given id, if present.
func (e *Exam) QuestionByID(id string) (*Question, bool) {
	for i := range e.Questions {
		if e.Questions[i].ID == id {
			return &e.Questions[i], true
		}
	}
	return nil, false
}

// PointsSum returns the sum of all question point values. A well-formed exam
// has PointsSum() == TotalPoints.
func (e *Exam) PointsSum() int {
	sum := 0
	for _, q := range e.Questions {
		sum += q.Points
	}
	return sum
}

// Validate checks the structural rules of an exam. It does not require
// TotalPoints to match PointsSum; scoring tolerates a mismatch.
func (e *Exam) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("exam %q: %w", e.ID, err)
	}

	seen := make(map[string]struct{}, len(e.Questions))
	for i := range e.Questions {
		q := &e.Questions[i]
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("exam %q question %q: %w", e.ID, q.ID, ErrDuplicateQuestionID)
		}
		seen[q.ID] = struct{}{}

		if !q.ValidOption(q.CorrectAnswer) {
			return fmt.Errorf("exam %q question %q: %w", e.ID, q.ID, ErrCorrectOutOfRange)
		}
	}
	return nil
}

// ExamSummary is the catalog listing entry shown before an exam starts.
type ExamSummary struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Duration      int     `json:"duration"`
	QuestionCount int     `json:"questionCount"`
	TotalPoints   int     `json:"totalPoints"`
	PassingScore  float64 `json:"passingScore"`
}

// Summary builds the listing entry for the exam.
func (e *Exam) Summary() ExamSummary {
	return ExamSummary{
		ID:            e.ID,
		Title:         e.Title,
		Description:   e.Description,
		Duration:      e.Duration,
		QuestionCount: len(e.Questions),
		TotalPoints:   e.TotalPoints,
		PassingScore:  e.PassingScore,
	}
}

// ExamPayload is the exam as sent to the student (no correct answers).
type ExamPayload struct {
	ExamSummary
	Questions []QuestionForStudent `json:"questions"`
}

// Payload builds the student-facing copy of the exam.
func (e *Exam) Payload() ExamPayload {
	qs := make([]QuestionForStudent, len(e.Questions))
	for i := range e.Questions {
		qs[i] = e.Questions[i].ForStudent()
	}
	return ExamPayload{ExamSummary: e.Summary(), Questions: qs}
}
