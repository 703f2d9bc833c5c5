package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-local/internal/model"
	"github.com/stemsi/exstem-local/internal/session"
	"github.com/stemsi/exstem-local/internal/timer"
)

// ErrNoActiveSession is returned for session intents when no exam is running.
var (
	ErrNoActiveSession = errors.New("no active exam session")
	// ErrAttemptNotSaved means the exam ended and was scored but the attempt
	// could not be persisted.
	ErrAttemptNotSaved = errors.New("attempt not saved")
)

// EventType identifies a session event pushed to subscribers.
type EventType string

const (
	EventTick      EventType = "tick"
	EventSubmitted EventType = "submitted"
	EventTimedOut  EventType = "timed_out"
)

// Event is a session change pushed to subscribers.
type Event struct {
	Type               EventType          `json:"type"`
	Remaining          int                `json:"remaining"`
	RemainingFormatted string             `json:"remainingFormatted"`
	Attempt            *model.ExamAttempt `json:"attempt,omitempty"`
}

const subscriberBuffer = 16

// ExamSessionService hosts the single active exam session and its countdown.
// Every intent and every timer callback runs under one mutex, so they apply
// strictly one after another.
type ExamSessionService struct {
	data         *DataService
	log          zerolog.Logger
	tickInterval time.Duration
	now          func() time.Time
	newID        session.IDFunc

	mu    sync.Mutex
	sess  *session.Session
	timer *timer.Timer
	// gen identifies the current session; timer callbacks from an older
	// session are dropped.
	gen uint64

	subMu   sync.Mutex
	subs    map[uint64]chan Event
	nextSub uint64
}

// SessionOption configures an ExamSessionService.
type SessionOption func(*ExamSessionService)

// WithClock overrides the time source used for attempt timestamps.
func WithClock(now func() time.Time) SessionOption {
	return func(s *ExamSessionService) { s.now = now }
}

// WithAttemptIDs overrides attempt id generation.
func WithAttemptIDs(fn session.IDFunc) SessionOption {
	return func(s *ExamSessionService) { s.newID = fn }
}

// NewExamSessionService creates a new ExamSessionService. tickInterval is the
// wall-clock length of one countdown second; values <= 0 mean one second.
func NewExamSessionService(data *DataService, tickInterval time.Duration, log zerolog.Logger, opts ...SessionOption) *ExamSessionService {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	s := &ExamSessionService{
		data:         data,
		log:          log.With().Str("component", "exam_session_service").Logger(),
		tickInterval: tickInterval,
		now:          time.Now,
		newID:        session.NewID,
		subs:         make(map[uint64]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartExam begins examID for the logged-in student. A session already in
// progress is abandoned without recording an attempt.
func (s *ExamSessionService) StartExam(ctx context.Context, examID string) (session.View, error) {
	student := s.data.CurrentStudent()
	if student == nil {
		return session.View{}, ErrNotLoggedIn
	}
	exam, ok := s.data.GetExamByID(examID)
	if !ok {
		return session.View{}, fmt.Errorf("%w: %s", ErrExamNotFound, examID)
	}
	if !exam.IsActive {
		return session.View{}, fmt.Errorf("%w: %s", ErrExamInactive, examID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess != nil && s.sess.State() == model.SessionStateInProgress {
		s.log.Info().Str("exam_id", s.sess.Exam().ID).Msg("Abandoning running session")
	}
	s.discardLocked()

	sess, err := session.New(&exam, student.ID, student.Name, session.WithIDFunc(s.newID)).Begin(s.now())
	if err != nil {
		return session.View{}, fmt.Errorf("begin session: %w", err)
	}

	gen := s.gen
	s.sess = &sess
	s.timer = timer.New(sess.DurationSeconds(),
		timer.WithTickInterval(s.tickInterval),
		timer.WithOnTick(func(remaining int) { s.onTick(gen, remaining) }),
		timer.WithOnExpire(func() { s.onExpire(gen) }),
		timer.WithLogger(s.log),
	)
	s.timer.Start()

	s.log.Info().
		Str("exam_id", exam.ID).
		Str("student_id", student.ID).
		Int("duration_seconds", sess.DurationSeconds()).
		Msg("Exam started")

	return sess.View(), nil
}

// SelectAnswer answers the current question.
func (s *ExamSessionService) SelectAnswer(optionIndex int) (session.View, error) {
	return s.apply(func(sess session.Session) (session.Session, error) {
		return sess.SelectCurrent(optionIndex)
	})
}

// SelectAnswerFor answers any question of the running exam.
func (s *ExamSessionService) SelectAnswerFor(questionID string, optionIndex int) (session.View, error) {
	return s.apply(func(sess session.Session) (session.Session, error) {
		return sess.SelectAnswer(questionID, optionIndex)
	})
}

func (s *ExamSessionService) Next() (session.View, error) {
	return s.apply(session.Session.GoToNext)
}

func (s *ExamSessionService) Previous() (session.View, error) {
	return s.apply(session.Session.GoToPrevious)
}

func (s *ExamSessionService) JumpTo(index int) (session.View, error) {
	return s.apply(func(sess session.Session) (session.Session, error) {
		return sess.JumpTo(index)
	})
}

// ToggleFlag toggles the flag on the current question.
func (s *ExamSessionService) ToggleFlag() (session.View, error) {
	return s.apply(session.Session.ToggleFlagCurrent)
}

// ToggleFlagFor toggles the flag on questionID.
func (s *ExamSessionService) ToggleFlagFor(questionID string) (session.View, error) {
	return s.apply(func(sess session.Session) (session.Session, error) {
		return sess.ToggleFlag(questionID)
	})
}

func (s *ExamSessionService) apply(fn func(session.Session) (session.Session, error)) (session.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		return session.View{}, ErrNoActiveSession
	}
	cur := s.syncedLocked()
	next, err := fn(cur)
	if err != nil {
		return session.View{}, err
	}
	s.sess = &next
	return next.View(), nil
}

// syncedLocked returns the current snapshot with the live countdown value.
func (s *ExamSessionService) syncedLocked() session.Session {
	cur := *s.sess
	if s.timer != nil && cur.State() == model.SessionStateInProgress {
		if synced, err := cur.WithRemaining(s.timer.Remaining()); err == nil {
			cur = synced
		}
	}
	return cur
}

// View returns the presentation projection of the current session.
func (s *ExamSessionService) View() (session.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		return session.View{}, ErrNoActiveSession
	}
	return s.syncedLocked().View(), nil
}

// Submit ends the running session and records its attempt. The timer is
// stopped before the attempt is built so expiry cannot produce a second one.
// If recording fails the session still ends and the attempt is returned with
// the error.
func (s *ExamSessionService) Submit(ctx context.Context) (model.ExamAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		return model.ExamAttempt{}, ErrNoActiveSession
	}

	remaining := s.sess.Remaining()
	if s.timer != nil {
		s.timer.Stop()
		remaining = s.timer.Remaining()
		s.timer = nil
	}

	done, attempt, err := s.sess.Submit(s.now(), remaining)
	if err != nil {
		return model.ExamAttempt{}, err
	}
	s.sess = &done

	s.log.Info().
		Str("attempt_id", attempt.ID).
		Int("time_spent", attempt.TimeSpent).
		Msg("Exam submitted")

	recordErr := s.data.RecordAttempt(ctx, attempt)
	s.publish(Event{Type: EventSubmitted, Remaining: done.Remaining(), RemainingFormatted: timer.Format(done.Remaining()), Attempt: &attempt})

	if recordErr != nil {
		return attempt, fmt.Errorf("%w: %w", ErrAttemptNotSaved, recordErr)
	}
	return attempt, nil
}

// Exit abandons the current session without recording anything.
func (s *ExamSessionService) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardLocked()
}

// Close stops the countdown and closes every subscriber channel.
func (s *ExamSessionService) Close() {
	s.Exit()

	s.subMu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subMu.Unlock()
}

func (s *ExamSessionService) discardLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.sess = nil
	s.gen++
}

func (s *ExamSessionService) onTick(gen uint64, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || s.sess == nil || s.sess.State() != model.SessionStateInProgress {
		return
	}
	next, err := s.sess.WithRemaining(remaining)
	if err != nil {
		return
	}
	s.sess = &next
	s.publish(Event{Type: EventTick, Remaining: remaining, RemainingFormatted: timer.Format(remaining)})
}

func (s *ExamSessionService) onExpire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A submit that won the lock already ended the session.
	if gen != s.gen || s.sess == nil || s.sess.State() != model.SessionStateInProgress {
		return
	}
	s.timer = nil

	done, attempt, err := s.sess.Expire(s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to expire session")
		return
	}
	s.sess = &done

	s.log.Info().Str("attempt_id", attempt.ID).Msg("Exam timed out")

	if err := s.data.RecordAttempt(context.Background(), attempt); err != nil {
		s.log.Error().Err(err).Str("attempt_id", attempt.ID).Msg("Failed to record timed-out attempt")
	}
	s.publish(Event{Type: EventTimedOut, RemainingFormatted: timer.Format(0), Attempt: &attempt})
}

// Subscribe returns a channel of session events and a function that ends the
// subscription. Slow subscribers miss events rather than block the session.
func (s *ExamSessionService) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			if c, ok := s.subs[id]; ok {
				close(c)
				delete(s.subs, id)
			}
			s.subMu.Unlock()
		})
	}
	return ch, cancel
}

func (s *ExamSessionService) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.Debug().Uint64("subscriber", id).Str("event", string(ev.Type)).Msg("Subscriber full, dropping event")
		}
	}
}
