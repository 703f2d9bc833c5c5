package model

// Question represents a single multiple-choice exam question.
type Question struct {
	ID            string   `json:"id" validate:"required"`
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"min=2,dive,required"`
	CorrectAnswer int      `json:"correctAnswer" validate:"min=0"`
	Points        int      `json:"points" validate:"min=0"`
	Category      string   `json:"category,omitempty"`
}

// ValidOption reports whether idx addresses one of the question's options.
func (q *Question) ValidOption(idx int) bool {
	return idx >= 0 && idx < len(q.Options)
}

// IsCorrect reports whether the selected option is the keyed answer.
func (q *Question) IsCorrect(selected int) bool {
	return selected == q.CorrectAnswer
}

// QuestionForStudent is a question without the correct answer, sent to the
// presentation layer while an exam is being taken.
type QuestionForStudent struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Points   int      `json:"points"`
	Category string   `json:"category,omitempty"`
}

// ForStudent strips the answer key.
func (q *Question) ForStudent() QuestionForStudent {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	return QuestionForStudent{
		ID:       q.ID,
		Question: q.Question,
		Options:  opts,
		Points:   q.Points,
		Category: q.Category,
	}
}
