package session

import (
	"time"

	"github.com/stemsi/exstem-local/internal/model"
	"github.com/stemsi/exstem-local/internal/timer"
)

// Exam returns the exam being taken.
func (s Session) Exam() *model.Exam { return s.exam }

// State returns the lifecycle state of the snapshot.
func (s Session) State() model.SessionState { return s.state }

func (s Session) CurrentIndex() int { return s.current }

// Remaining is the countdown value last recorded into the snapshot.
func (s Session) Remaining() int { return s.remaining }

func (s Session) DurationSeconds() int { return s.duration }

func (s Session) StartedAt() time.Time { return s.startedAt }

func (s Session) StudentID() string { return s.studentID }

func (s Session) QuestionCount() int { return len(s.exam.Questions) }

func (s Session) IsFirst() bool { return s.current == 0 }

func (s Session) IsLast() bool { return s.current == len(s.exam.Questions)-1 }

func (s Session) AnsweredCount() int { return len(s.answers) }

func (s Session) UnansweredCount() int { return len(s.exam.Questions) - len(s.answers) }

// IsFlagged reports whether questionID carries an advisory flag.
func (s Session) IsFlagged(questionID string) bool {
	_, ok := s.flagged[questionID]
	return ok
}

// CurrentQuestion returns the question at the current index.
func (s Session) CurrentQuestion() *model.Question {
	return &s.exam.Questions[s.current]
}

// Answer returns the recorded answer for questionID.
func (s Session) Answer(questionID string) (int, bool) {
	v, ok := s.answers[questionID]
	return v, ok
}

// Answers returns a copy of the in-progress answer map.
func (s Session) Answers() map[string]int {
	out := make(map[string]int, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Progress is the answered share of questions as a percentage.
func (s Session) Progress() float64 {
	n := len(s.exam.Questions)
	if n == 0 {
		return 0
	}
	return float64(len(s.answers)) / float64(n) * 100
}

// Status derives the navigator status of the question at index. Priority is
// current > answered > flagged > unanswered.
func (s Session) Status(index int) model.QuestionStatus {
	if index == s.current {
		return model.QuestionStatusCurrent
	}
	if index < 0 || index >= len(s.exam.Questions) {
		return model.QuestionStatusUnanswered
	}
	id := s.exam.Questions[index].ID
	if _, ok := s.answers[id]; ok {
		return model.QuestionStatusAnswered
	}
	if _, ok := s.flagged[id]; ok {
		return model.QuestionStatusFlagged
	}
	return model.QuestionStatusUnanswered
}

// Statuses returns the navigator status of every question in order.
func (s Session) Statuses() []model.QuestionStatus {
	out := make([]model.QuestionStatus, len(s.exam.Questions))
	for i := range out {
		out[i] = s.Status(i)
	}
	return out
}

// View is the presentation-ready projection of a snapshot. It never exposes
// correct answers.
type View struct {
	ExamID             string                   `json:"examId"`
	ExamTitle          string                   `json:"examTitle"`
	State              model.SessionState       `json:"state"`
	CurrentIndex       int                      `json:"currentIndex"`
	QuestionCount      int                      `json:"questionCount"`
	Question           model.QuestionForStudent `json:"question"`
	SelectedOption     *int                     `json:"selectedOption"`
	Flagged            bool                     `json:"flagged"`
	Statuses           []model.QuestionStatus   `json:"statuses"`
	AnsweredCount      int                      `json:"answeredCount"`
	Progress           float64                  `json:"progress"`
	Remaining          int                      `json:"remaining"`
	RemainingFormatted string                   `json:"remainingFormatted"`
	IsFirst            bool                     `json:"isFirst"`
	IsLast             bool                     `json:"isLast"`
	StartedAt          string                   `json:"startedAt,omitempty"`
}

// View builds the presentation projection. The snapshot must have begun.
func (s Session) View() View {
	q := s.CurrentQuestion()
	v := View{
		ExamID:             s.exam.ID,
		ExamTitle:          s.exam.Title,
		State:              s.state,
		CurrentIndex:       s.current,
		QuestionCount:      len(s.exam.Questions),
		Question:           q.ForStudent(),
		Flagged:            s.IsFlagged(q.ID),
		Statuses:           s.Statuses(),
		AnsweredCount:      len(s.answers),
		Progress:           s.Progress(),
		Remaining:          s.remaining,
		RemainingFormatted: timer.Format(s.remaining),
		IsFirst:            s.IsFirst(),
		IsLast:             s.IsLast(),
	}
	if sel, ok := s.answers[q.ID]; ok {
		v.SelectedOption = &sel
	}
	if !s.startedAt.IsZero() {
		v.StartedAt = model.FormatTimestamp(s.startedAt)
	}
	return v
}
