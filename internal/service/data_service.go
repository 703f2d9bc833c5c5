package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-local/internal/model"
	"github.com/stemsi/exstem-local/internal/repository"
	"github.com/stemsi/exstem-local/internal/scoring"
)

// Domain Errors
var (
	ErrNotLoggedIn     = errors.New("no student is logged in")
	ErrExamNotFound    = errors.New("exam not found")
	ErrExamInactive    = errors.New("exam is not active")
	ErrAttemptNotFound = errors.New("attempt not found")
)

// DataService owns the catalog, the attempt history and the active student.
// Reads are served from in-memory mirrors; a mirror changes only after the
// corresponding write succeeded.
type DataService struct {
	catalogRepo *repository.CatalogRepository
	attemptRepo *repository.AttemptRepository
	studentRepo *repository.StudentRepository
	log         zerolog.Logger
	newID       func() string

	mu       sync.RWMutex
	exams    []model.Exam
	attempts []model.ExamAttempt
	student  *model.Student
}

// NewDataService creates a new DataService backed by kv. Call Load before use.
func NewDataService(kv repository.KV, log zerolog.Logger) *DataService {
	return &DataService{
		catalogRepo: repository.NewCatalogRepository(kv),
		attemptRepo: repository.NewAttemptRepository(kv),
		studentRepo: repository.NewStudentRepository(kv),
		log:         log.With().Str("component", "data_service").Logger(),
		newID:       uuid.NewString,
	}
}

// Load reads all three records into memory. Missing or corrupt records fall
// back to defaults (seeded catalog, empty history, logged out); only backend
// failures are returned.
func (s *DataService) Load(ctx context.Context) error {
	exams, err := s.loadCatalog(ctx)
	if err != nil {
		return err
	}

	attempts, err := s.attemptRepo.List(ctx)
	if errors.Is(err, repository.ErrCorrupt) {
		s.log.Warn().Err(err).Msg("Attempt history unreadable, starting empty")
		attempts, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("load attempts: %w", err)
	}

	student, err := s.studentRepo.GetCurrent(ctx)
	if errors.Is(err, repository.ErrCorrupt) {
		s.log.Warn().Err(err).Msg("Active student unreadable, treating as logged out")
		student, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("load student: %w", err)
	}

	if student != nil {
		s.reconcile(ctx, student, attempts)
	}

	s.mu.Lock()
	s.exams = exams
	s.attempts = attempts
	s.student = student
	s.mu.Unlock()

	s.log.Info().
		Int("exams", len(exams)).
		Int("attempts", len(attempts)).
		Bool("logged_in", student != nil).
		Msg("Local data loaded")

	return nil
}

func (s *DataService) loadCatalog(ctx context.Context) ([]model.Exam, error) {
	stored, found, err := s.catalogRepo.Get(ctx)
	switch {
	case errors.Is(err, repository.ErrCorrupt):
		s.log.Warn().Err(err).Msg("Catalog unreadable, reseeding defaults")
	case err != nil:
		return nil, fmt.Errorf("load catalog: %w", err)
	case found:
		if valid := s.validExams(stored); len(valid) > 0 {
			return valid, nil
		}
		// A null or empty record, or one with no usable exam, would leave
		// nothing to take.
		s.log.Warn().Int("stored", len(stored)).Msg("Catalog has no valid exams, reseeding defaults")
	}

	exams := DefaultCatalog()
	if err := s.catalogRepo.Save(ctx, exams); err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	s.log.Info().Int("count", len(exams)).Msg("Default catalog seeded")
	return exams, nil
}

// validExams drops exams that fail validation so one bad entry cannot hide
// the rest of the catalog.
func (s *DataService) validExams(exams []model.Exam) []model.Exam {
	out := make([]model.Exam, 0, len(exams))
	for i := range exams {
		if err := exams[i].Validate(); err != nil {
			s.log.Warn().
				Str("exam_id", exams[i].ID).
				Err(err).
				Msg("Skipping invalid exam")
			continue
		}
		out = append(out, exams[i])
	}
	return out
}

// reconcile rebuilds the student's embedded attempt list from the global
// history, which is written first and therefore authoritative.
func (s *DataService) reconcile(ctx context.Context, student *model.Student, attempts []model.ExamAttempt) {
	derived := filterByStudent(attempts, student.ID)
	if sameAttemptIDs(student.Attempts, derived) {
		return
	}

	s.log.Warn().
		Str("student_id", student.ID).
		Int("embedded", len(student.Attempts)).
		Int("global", len(derived)).
		Msg("Embedded attempt list out of sync, rebuilding")

	student.Attempts = derived
	if err := s.studentRepo.SaveCurrent(ctx, student); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist reconciled student")
	}
}

// LoginStudent replaces the active student with a fresh record.
func (s *DataService) LoginStudent(ctx context.Context, name, email string) (*model.Student, error) {
	student := &model.Student{
		ID:       s.newID(),
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Role:     model.RoleStudent,
		Attempts: []model.ExamAttempt{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.studentRepo.SaveCurrent(ctx, student); err != nil {
		return nil, fmt.Errorf("save student: %w", err)
	}
	s.student = student

	s.log.Info().Str("student_id", student.ID).Msg("Student logged in")
	return cloneStudent(student), nil
}

// Logout removes the active student. Attempt history is kept.
func (s *DataService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.studentRepo.ClearCurrent(ctx); err != nil {
		return fmt.Errorf("clear student: %w", err)
	}
	s.student = nil
	return nil
}

// RecordAttempt appends attempt to the global history and, if it belongs to
// the active student, to the student's embedded list. The global write comes
// first; the student write only happens after it succeeded.
func (s *DataService) RecordAttempt(ctx context.Context, attempt model.ExamAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempts := make([]model.ExamAttempt, len(s.attempts), len(s.attempts)+1)
	copy(attempts, s.attempts)
	attempts = append(attempts, attempt)

	if err := s.attemptRepo.Save(ctx, attempts); err != nil {
		return fmt.Errorf("save attempts: %w", err)
	}
	s.attempts = attempts

	if s.student == nil || s.student.ID != attempt.StudentID {
		return nil
	}

	updated := cloneStudent(s.student)
	updated.Attempts = append(updated.Attempts, attempt)
	if err := s.studentRepo.SaveCurrent(ctx, updated); err != nil {
		return fmt.Errorf("save student: %w", err)
	}
	s.student = updated

	s.log.Info().
		Str("attempt_id", attempt.ID).
		Str("exam_id", attempt.ExamID).
		Int("score", attempt.Score).
		Msg("Attempt recorded")
	return nil
}

// Catalog returns every loaded exam, active or not.
func (s *DataService) Catalog() []model.Exam {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Exam, len(s.exams))
	copy(out, s.exams)
	return out
}

// ActiveExams returns the exams a student may start, in catalog order.
func (s *DataService) ActiveExams() []model.Exam {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Exam, 0, len(s.exams))
	for _, e := range s.exams {
		if e.IsActive {
			out = append(out, e)
		}
	}
	return out
}

// GetExamByID looks up an exam in the catalog. The returned value shares its
// question slice with the catalog and must be treated as read-only.
func (s *DataService) GetExamByID(id string) (model.Exam, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.exams {
		if e.ID == id {
			return e, true
		}
	}
	return model.Exam{}, false
}

// GetAttemptsByStudent returns the student's attempts, newest first.
func (s *DataService) GetAttemptsByStudent(studentID string) []model.ExamAttempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scoring.SortByEndTimeDesc(filterByStudent(s.attempts, studentID))
}

// GetAttemptByID looks up one attempt in the global history.
func (s *DataService) GetAttemptByID(id string) (model.ExamAttempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.attempts {
		if a.ID == id {
			return a, true
		}
	}
	return model.ExamAttempt{}, false
}

// CurrentStudent returns a copy of the active student, or nil when logged out.
func (s *DataService) CurrentStudent() *model.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.student == nil {
		return nil
	}
	return cloneStudent(s.student)
}

func filterByStudent(attempts []model.ExamAttempt, studentID string) []model.ExamAttempt {
	out := []model.ExamAttempt{}
	for _, a := range attempts {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	return out
}

func sameAttemptIDs(a, b []model.ExamAttempt) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

func cloneStudent(s *model.Student) *model.Student {
	c := *s
	c.Attempts = make([]model.ExamAttempt, len(s.Attempts))
	copy(c.Attempts, s.Attempts)
	return &c
}
