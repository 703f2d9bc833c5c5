package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stemsi/exstem-local/internal/config"
	"github.com/stemsi/exstem-local/internal/model"
)

func TestCatalogRepository(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	repo := NewCatalogRepository(kv)

	exams, found, err := repo.Get(ctx)
	if err != nil || found || exams != nil {
		t.Fatalf("empty store: exams=%v found=%v err=%v", exams, found, err)
	}

	in := []model.Exam{{ID: "e1", Title: "One", Duration: 1, IsActive: true}}
	if err := repo.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	exams, found, err = repo.Get(ctx)
	if err != nil || !found || len(exams) != 1 || exams[0].ID != "e1" {
		t.Fatalf("round trip: %v %v %v", exams, found, err)
	}

	_ = kv.Set(ctx, config.StorageKey.Catalog, []byte("{not json"))
	if _, found, err := repo.Get(ctx); !errors.Is(err, ErrCorrupt) || !found {
		t.Errorf("expected ErrCorrupt, got found=%v err=%v", found, err)
	}
}

func TestAttemptRepository(t *testing.T) {
	ctx := context.Background()
	kv := newSQLiteKV(t)
	repo := NewAttemptRepository(kv)

	list, err := repo.List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty history, got %v %v", list, err)
	}

	a := model.ExamAttempt{ID: "a1", ExamID: "e1", StudentID: "s1", Answers: map[string]int{"q1": 2}, EndReason: model.EndReasonTimedOut}
	if err := repo.Save(ctx, []model.ExamAttempt{a}); err != nil {
		t.Fatalf("save: %v", err)
	}
	list, err = repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
	if list[0].Answers["q1"] != 2 || list[0].EndReason != model.EndReasonTimedOut {
		t.Errorf("attempt not preserved: %+v", list[0])
	}

	if err := repo.Save(ctx, nil); err != nil {
		t.Fatalf("save nil: %v", err)
	}
	raw, _ := kv.Get(ctx, config.StorageKey.Attempts)
	if string(raw) != "[]" {
		t.Errorf("nil history should persist as [], got %s", raw)
	}

	_ = kv.Set(ctx, config.StorageKey.Attempts, []byte(`{"id":1}`))
	if _, err := repo.List(ctx); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestAttemptWithoutEndReasonDecodes(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	legacy := `[{"id":"a1","examId":"1","studentId":"s","studentName":"n","answers":{"q1":0},"score":10,"percentage":10,"timeSpent":30,"startTime":"2024-01-01T00:00:00.000Z","endTime":"2024-01-01T00:00:30.000Z","passed":false}]`
	_ = kv.Set(ctx, config.StorageKey.Attempts, []byte(legacy))

	list, err := NewAttemptRepository(kv).List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("legacy record: %v %v", list, err)
	}
	if list[0].EndReason != "" || list[0].TimeSpent != 30 {
		t.Errorf("unexpected decode %+v", list[0])
	}
}

func TestStudentRepository(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	repo := NewStudentRepository(kv)

	s, err := repo.GetCurrent(ctx)
	if err != nil || s != nil {
		t.Fatalf("expected logged out, got %v %v", s, err)
	}

	in := &model.Student{ID: "s1", Name: "Ada", Email: "ada@example.com", Role: model.RoleStudent}
	if err := repo.SaveCurrent(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	s, err = repo.GetCurrent(ctx)
	if err != nil || s == nil || s.Email != "ada@example.com" {
		t.Fatalf("round trip: %v %v", s, err)
	}

	if err := repo.ClearCurrent(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s, _ := repo.GetCurrent(ctx); s != nil {
		t.Errorf("expected nil after clear, got %+v", s)
	}

	for _, bad := range []string{"garbage", "null", "{}"} {
		_ = kv.Set(ctx, config.StorageKey.ActiveStudent, []byte(bad))
		if _, err := repo.GetCurrent(ctx); !errors.Is(err, ErrCorrupt) {
			t.Errorf("%q: expected ErrCorrupt, got %v", bad, err)
		}
	}
}
