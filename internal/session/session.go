// Package session implements the exam-session state machine.
//
// A Session is an immutable snapshot. Every operation returns a new snapshot
// and leaves the receiver untouched, so callers can keep, compare or discard
// snapshots freely. Only IN_PROGRESS snapshots accept mutations.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-local/internal/model"
	"github.com/stemsi/exstem-local/internal/scoring"
)

// Domain Errors
var (
	ErrNotInProgress   = errors.New("session is not in progress")
	ErrAlreadyStarted  = errors.New("session already started")
	ErrUnknownQuestion = errors.New("question does not belong to this exam")
	ErrInvalidOption   = errors.New("option index out of range")
	ErrInvalidIndex    = errors.New("question index out of range")
	ErrEmptyExam       = errors.New("exam has no questions")
)

// IDFunc generates attempt identifiers.
type IDFunc func() string

// NewID returns a time-ordered UUID, falling back to a random one. Either is
// unique within a single clock tick.
func NewID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.New().String()
}

// Session is one snapshot of an exam being taken.
type Session struct {
	exam        *model.Exam
	studentID   string
	studentName string
	newID       IDFunc

	state     model.SessionState
	current   int
	answers   map[string]int
	flagged   map[string]struct{}
	duration  int
	remaining int
	startedAt time.Time
}

// Option configures a new Session.
type Option func(*Session)

// WithIDFunc overrides attempt id generation.
func WithIDFunc(fn IDFunc) Option {
	return func(s *Session) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New returns a NOT_STARTED session for exam taken by the given student.
// The exam must not be modified while the session is alive.
func New(exam *model.Exam, studentID, studentName string, opts ...Option) Session {
	s := Session{
		exam:        exam,
		studentID:   studentID,
		studentName: studentName,
		newID:       NewID,
		state:       model.SessionStateNotStarted,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Begin moves NOT_STARTED → IN_PROGRESS at now with the full exam duration
// on the clock.
func (s Session) Begin(now time.Time) (Session, error) {
	if s.state != model.SessionStateNotStarted {
		return s, ErrAlreadyStarted
	}
	if s.exam == nil || len(s.exam.Questions) == 0 {
		return s, ErrEmptyExam
	}

	next := s
	next.state = model.SessionStateInProgress
	next.current = 0
	next.answers = map[string]int{}
	next.flagged = map[string]struct{}{}
	next.duration = s.exam.DurationSeconds()
	next.remaining = next.duration
	next.startedAt = now
	return next, nil
}

// clone copies the mutable maps so the receiver stays unchanged.
func (s Session) clone() Session {
	next := s
	next.answers = make(map[string]int, len(s.answers))
	for k, v := range s.answers {
		next.answers[k] = v
	}
	next.flagged = make(map[string]struct{}, len(s.flagged))
	for k := range s.flagged {
		next.flagged[k] = struct{}{}
	}
	return next
}

func (s Session) requireInProgress() error {
	if s.state != model.SessionStateInProgress {
		return fmt.Errorf("%w: state is %s", ErrNotInProgress, s.state)
	}
	return nil
}

// SelectAnswer records or overwrites the answer for questionID. The current
// index does not move.
func (s Session) SelectAnswer(questionID string, optionIndex int) (Session, error) {
	if err := s.requireInProgress(); err != nil {
		return s, err
	}
	q, ok := s.exam.QuestionByID(questionID)
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownQuestion, questionID)
	}
	if !q.ValidOption(optionIndex) {
		return s, fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidOption, optionIndex, len(q.Options))
	}

	next := s.clone()
	next.answers[questionID] = optionIndex
	return next, nil
}

// SelectCurrent answers the current question.
func (s Session) SelectCurrent(optionIndex int) (Session, error) {
	if err := s.requireInProgress(); err != nil {
		return s, err
	}
	return s.SelectAnswer(s.exam.Questions[s.current].ID, optionIndex)
}

// GoToNext advances one question; it is a no-op on the last question.
func (s Session) GoToNext() (Session, error) {
	if err := s.requireInProgress(); err != nil {
		return s, err
	}
	if s.current >= len(s.exam.Questions)-1 {
		return s, nil
	}
	next := s
	next.current++
	return next, nil
}

// GoToPrevious steps back one question; it is a no-op on the first question.
func (s Session) GoToPrevious() (Session, error) {
	if err := s.requireInProgress(); err != nil {
		return s, err
	}
	if s.current == 0 {
		return s, nil
	}
	next := s
	next.current--
	return next, nil
}

// JumpTo sets the current index directly. Unlike GoToNext/GoToPrevious it
// rejects out-of-range indexes instead of clamping.
func (s Session) JumpTo(index int) (Session, error) {
	if err := s.requireInProgress(); err != nil {
		return s, err
	}
	if index < 0 || index >= len(s.exam.Questions) {
		return s, fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidIndex, index, len(s.exam.Questions))
	}
	next := s
	next.current = index
	return next, nil
}

// ToggleFlag adds questionID to the flagged set, or removes it if present.
// Flags never affect scoring.
func (s Session) ToggleFlag(questionID string) (Session, error) {
	if err := s.requireInProgress(); err != nil {
		return s, err
	}
	if _, ok := s.exam.QuestionByID(questionID); !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownQuestion, questionID)
	}

	next := s.clone()
	if _, on := next.flagged[questionID]; on {
		delete(next.flagged, questionID)
	} else {
		next.flagged[questionID] = struct{}{}
	}
	return next, nil
}

// ToggleFlagCurrent toggles the flag on the current question.
func (s Session) ToggleFlagCurrent() (Session, error) {
	if err := s.requireInProgress(); err != nil {
		return s, err
	}
	return s.ToggleFlag(s.exam.Questions[s.current].ID)
}

// WithRemaining records the countdown value reported by the timer.
func (s Session) WithRemaining(seconds int) (Session, error) {
	if err := s.requireInProgress(); err != nil {
		return s, err
	}
	if seconds < 0 {
		seconds = 0
	}
	if seconds > s.duration {
		seconds = s.duration
	}
	next := s
	next.remaining = seconds
	return next, nil
}

// Submit ends the session as SUBMITTED with remaining seconds left on the
// clock and returns the scored attempt. Unanswered questions are allowed.
func (s Session) Submit(now time.Time, remaining int) (Session, model.ExamAttempt, error) {
	return s.finish(now, remaining, model.SessionStateSubmitted, model.EndReasonSubmitted)
}

// Expire ends the session as TIMED_OUT. The attempt has the same shape as a
// manual submission, scored over whatever answers exist.
func (s Session) Expire(now time.Time) (Session, model.ExamAttempt, error) {
	return s.finish(now, 0, model.SessionStateTimedOut, model.EndReasonTimedOut)
}

func (s Session) finish(now time.Time, remaining int, state model.SessionState, reason model.EndReason) (Session, model.ExamAttempt, error) {
	if err := s.requireInProgress(); err != nil {
		return s, model.ExamAttempt{}, err
	}

	next, err := s.WithRemaining(remaining)
	if err != nil {
		return s, model.ExamAttempt{}, err
	}
	next = next.clone()
	next.state = state

	result := scoring.Score(next.exam, next.answers)
	spent := next.duration - next.remaining
	if spent < 0 {
		spent = 0
	}

	answers := make(map[string]int, len(next.answers))
	for k, v := range next.answers {
		answers[k] = v
	}

	attempt := model.ExamAttempt{
		ID:          next.newID(),
		ExamID:      next.exam.ID,
		StudentID:   next.studentID,
		StudentName: next.studentName,
		Answers:     answers,
		Score:       result.Score,
		Percentage:  result.Percentage,
		TimeSpent:   spent,
		StartTime:   model.FormatTimestamp(next.startedAt),
		EndTime:     model.FormatTimestamp(now),
		Passed:      result.Passed,
		EndReason:   reason,
	}
	return next, attempt, nil
}
