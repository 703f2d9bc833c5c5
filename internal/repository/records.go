package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stemsi/exstem-local/internal/config"
	"github.com/stemsi/exstem-local/internal/model"
)

// getJSON decodes the record at key into dst. found is false on a miss;
// malformed JSON is reported as ErrCorrupt.
func getJSON(ctx context.Context, kv KV, key string, dst any) (found bool, err error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, raw)
}

// CatalogRepository handles the exam catalog record.
type CatalogRepository struct {
	kv KV
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(kv KV) *CatalogRepository {
	return &CatalogRepository{kv: kv}
}

// Get returns the stored catalog. found is false when nothing was stored yet.
func (r *CatalogRepository) Get(ctx context.Context) (exams []model.Exam, found bool, err error) {
	found, err = getJSON(ctx, r.kv, config.StorageKey.Catalog, &exams)
	return exams, found, err
}

// Save replaces the stored catalog.
func (r *CatalogRepository) Save(ctx context.Context, exams []model.Exam) error {
	if exams == nil {
		exams = []model.Exam{}
	}
	return setJSON(ctx, r.kv, config.StorageKey.Catalog, exams)
}

// AttemptRepository handles the global attempt history record.
type AttemptRepository struct {
	kv KV
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(kv KV) *AttemptRepository {
	return &AttemptRepository{kv: kv}
}

// List returns every stored attempt; a missing record is an empty history.
func (r *AttemptRepository) List(ctx context.Context) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	if _, err := getJSON(ctx, r.kv, config.StorageKey.Attempts, &attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}

// Save replaces the whole attempt history.
func (r *AttemptRepository) Save(ctx context.Context, attempts []model.ExamAttempt) error {
	if attempts == nil {
		attempts = []model.ExamAttempt{}
	}
	return setJSON(ctx, r.kv, config.StorageKey.Attempts, attempts)
}

// StudentRepository handles the active student record. An absent record means
// nobody is logged in.
type StudentRepository struct {
	kv KV
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(kv KV) *StudentRepository {
	return &StudentRepository{kv: kv}
}

// GetCurrent returns the active student or nil.
func (r *StudentRepository) GetCurrent(ctx context.Context) (*model.Student, error) {
	var s model.Student
	found, err := getJSON(ctx, r.kv, config.StorageKey.ActiveStudent, &s)
	if err != nil || !found {
		return nil, err
	}
	if s.ID == "" {
		return nil, fmt.Errorf("%w: %s: missing id", ErrCorrupt, config.StorageKey.ActiveStudent)
	}
	return &s, nil
}

// SaveCurrent stores s as the active student.
func (r *StudentRepository) SaveCurrent(ctx context.Context, s *model.Student) error {
	return setJSON(ctx, r.kv, config.StorageKey.ActiveStudent, s)
}

// ClearCurrent removes the active student record.
func (r *StudentRepository) ClearCurrent(ctx context.Context) error {
	return r.kv.Delete(ctx, config.StorageKey.ActiveStudent)
}
