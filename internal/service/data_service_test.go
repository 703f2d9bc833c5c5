package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-local/internal/config"
	"github.com/stemsi/exstem-local/internal/model"
	"github.com/stemsi/exstem-local/internal/repository"
)

// flakyKV fails writes to the keys listed in failSet.
type flakyKV struct {
	*repository.MemoryKV
	failSet map[string]bool
}

var errDiskFull = errors.New("disk full")

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet[key] {
		return errDiskFull
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func loadedService(t *testing.T, kv repository.KV) *DataService {
	t.Helper()
	svc := NewDataService(kv, zerolog.Nop())
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return svc
}

func putRaw(t *testing.T, kv repository.KV, key, raw string) {
	t.Helper()
	if err := kv.Set(context.Background(), key, []byte(raw)); err != nil {
		t.Fatalf("set %s: %v", key, err)
	}
}

func attemptFor(id, studentID, endTime string) model.ExamAttempt {
	return model.ExamAttempt{
		ID:        id,
		ExamID:    "1",
		StudentID: studentID,
		Answers:   map[string]int{},
		StartTime: "2024-01-15T09:00:00Z",
		EndTime:   endTime,
	}
}

func TestLoadSeedsDefaultCatalog(t *testing.T) {
	kv := repository.NewMemoryKV()
	svc := loadedService(t, kv)

	exams := svc.Catalog()
	if len(exams) != 2 || exams[0].Title != "JavaScript Fundamentals" || exams[1].Title != "React Concepts" {
		t.Fatalf("unexpected seed catalog: %+v", exams)
	}
	if svc.CurrentStudent() != nil {
		t.Error("fresh store must be logged out")
	}

	raw, err := kv.Get(context.Background(), config.StorageKey.Catalog)
	if err != nil {
		t.Fatalf("seed was not persisted: %v", err)
	}
	var persisted []model.Exam
	if err := json.Unmarshal(raw, &persisted); err != nil || len(persisted) != 2 {
		t.Fatalf("persisted seed unreadable: %v", err)
	}
}

func TestDefaultCatalogIsValid(t *testing.T) {
	for _, e := range DefaultCatalog() {
		if err := e.Validate(); err != nil {
			t.Errorf("exam %s: %v", e.ID, err)
		}
	}
}

func TestLoadRecoversFromCorruption(t *testing.T) {
	kv := repository.NewMemoryKV()
	putRaw(t, kv, config.StorageKey.Catalog, "<html>")
	putRaw(t, kv, config.StorageKey.Attempts, `{"oops":`)
	putRaw(t, kv, config.StorageKey.ActiveStudent, `[1,2,3]`)

	svc := loadedService(t, kv)

	if n := len(svc.Catalog()); n != 2 {
		t.Errorf("corrupt catalog should be reseeded, got %d exams", n)
	}
	if svc.CurrentStudent() != nil {
		t.Error("corrupt student should mean logged out")
	}
	if got := svc.GetAttemptsByStudent("anyone"); len(got) != 0 {
		t.Errorf("corrupt history should be empty, got %v", got)
	}

	// The reseeded catalog replaces the corrupt record.
	raw, _ := kv.Get(context.Background(), config.StorageKey.Catalog)
	if !json.Valid(raw) {
		t.Error("catalog was not re-persisted")
	}
}

func TestLoadReseedsEmptyCatalog(t *testing.T) {
	allInvalid := DefaultCatalog()
	for i := range allInvalid {
		allInvalid[i].Questions = nil
	}
	invalidRaw, _ := json.Marshal(allInvalid)

	tests := []struct {
		name string
		raw  string
	}{
		{"null record", "null"},
		{"empty list", "[]"},
		{"no valid exam", string(invalidRaw)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kv := repository.NewMemoryKV()
			putRaw(t, kv, config.StorageKey.Catalog, tc.raw)

			svc := loadedService(t, kv)
			if n := len(svc.ActiveExams()); n != 2 {
				t.Fatalf("expected the default catalog, got %d active exams", n)
			}

			var stored []model.Exam
			raw, _ := kv.Get(context.Background(), config.StorageKey.Catalog)
			if err := json.Unmarshal(raw, &stored); err != nil || len(stored) != 2 {
				t.Errorf("default catalog was not re-persisted: %s", raw)
			}
		})
	}
}

func TestLoadSkipsInvalidExams(t *testing.T) {
	kv := repository.NewMemoryKV()
	exams := DefaultCatalog()
	exams[0].Questions[0].CorrectAnswer = 9
	raw, _ := json.Marshal(exams)
	putRaw(t, kv, config.StorageKey.Catalog, string(raw))

	svc := loadedService(t, kv)

	got := svc.Catalog()
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("expected only the valid exam, got %+v", got)
	}
	if _, ok := svc.GetExamByID("1"); ok {
		t.Error("invalid exam must not be reachable")
	}
}

func TestLoadReturnsSeedWriteFailure(t *testing.T) {
	kv := &flakyKV{MemoryKV: repository.NewMemoryKV(), failSet: map[string]bool{config.StorageKey.Catalog: true}}
	svc := NewDataService(kv, zerolog.Nop())
	if err := svc.Load(context.Background()); !errors.Is(err, errDiskFull) {
		t.Fatalf("expected seed failure, got %v", err)
	}
}

func TestActiveExams(t *testing.T) {
	kv := repository.NewMemoryKV()
	exams := DefaultCatalog()
	exams[1].IsActive = false
	raw, _ := json.Marshal(exams)
	putRaw(t, kv, config.StorageKey.Catalog, string(raw))

	svc := loadedService(t, kv)
	active := svc.ActiveExams()
	if len(active) != 1 || active[0].ID != "1" {
		t.Fatalf("expected only exam 1, got %+v", active)
	}
	if len(svc.Catalog()) != 2 {
		t.Error("catalog should still hold the inactive exam")
	}
}

func TestLoginAndLogout(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	svc := loadedService(t, kv)

	first, err := svc.LoginStudent(ctx, "  Ada ", "ada@example.com")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if first.Name != "Ada" || first.Role != model.RoleStudent || first.ID == "" || len(first.Attempts) != 0 {
		t.Errorf("unexpected student %+v", first)
	}

	second, _ := svc.LoginStudent(ctx, "Grace", "grace@example.com")
	if second.ID == first.ID {
		t.Error("each login must mint a new id")
	}
	if cur := svc.CurrentStudent(); cur == nil || cur.ID != second.ID {
		t.Errorf("login must replace the active student, got %+v", cur)
	}

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if svc.CurrentStudent() != nil {
		t.Error("expected logged out")
	}
	if reloaded := loadedService(t, kv); reloaded.CurrentStudent() != nil {
		t.Error("logout must persist")
	}
}

func TestRecordAttemptForLoggedInStudent(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	svc := loadedService(t, kv)
	student, _ := svc.LoginStudent(ctx, "Ada", "ada@example.com")

	if err := svc.RecordAttempt(ctx, attemptFor("a1", student.ID, "2024-01-15T09:05:00Z")); err != nil {
		t.Fatalf("record: %v", err)
	}

	cur := svc.CurrentStudent()
	byStudent := svc.GetAttemptsByStudent(student.ID)
	if len(cur.Attempts) != 1 || len(byStudent) != 1 {
		t.Fatalf("embedded=%d global=%d, want 1/1", len(cur.Attempts), len(byStudent))
	}

	// Round trip through a fresh service over the same store.
	reloaded := loadedService(t, kv)
	if got := reloaded.GetAttemptsByStudent(student.ID); len(got) != 1 || got[0].ID != "a1" {
		t.Errorf("attempt lost on reload: %+v", got)
	}
	if rs := reloaded.CurrentStudent(); rs == nil || len(rs.Attempts) != 1 {
		t.Errorf("student lost on reload: %+v", rs)
	}
	if a, ok := reloaded.GetAttemptByID("a1"); !ok || a.EndTime != "2024-01-15T09:05:00Z" {
		t.Errorf("GetAttemptByID: %+v %v", a, ok)
	}
}

func TestRecordAttemptForOtherStudentSkipsEmbeddedList(t *testing.T) {
	ctx := context.Background()
	svc := loadedService(t, repository.NewMemoryKV())
	_, _ = svc.LoginStudent(ctx, "Ada", "ada@example.com")

	if err := svc.RecordAttempt(ctx, attemptFor("a1", "someone-else", "2024-01-15T09:05:00Z")); err != nil {
		t.Fatalf("record: %v", err)
	}
	if n := len(svc.CurrentStudent().Attempts); n != 0 {
		t.Errorf("foreign attempt leaked into active student: %d", n)
	}
	if n := len(svc.GetAttemptsByStudent("someone-else")); n != 1 {
		t.Errorf("expected the attempt in the global history, got %d", n)
	}
}

func TestRecordAttemptGlobalWriteFailure(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{MemoryKV: repository.NewMemoryKV(), failSet: map[string]bool{}}
	svc := loadedService(t, kv)
	student, _ := svc.LoginStudent(ctx, "Ada", "ada@example.com")

	kv.failSet[config.StorageKey.Attempts] = true
	if err := svc.RecordAttempt(ctx, attemptFor("a1", student.ID, "2024-01-15T09:05:00Z")); !errors.Is(err, errDiskFull) {
		t.Fatalf("expected write failure, got %v", err)
	}
	if len(svc.GetAttemptsByStudent(student.ID)) != 0 || len(svc.CurrentStudent().Attempts) != 0 {
		t.Error("mirrors must not change when the global write fails")
	}
}

func TestReconcileAfterPartialWrite(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{MemoryKV: repository.NewMemoryKV(), failSet: map[string]bool{}}
	svc := loadedService(t, kv)
	student, _ := svc.LoginStudent(ctx, "Ada", "ada@example.com")

	// The global write lands, the student write does not.
	kv.failSet[config.StorageKey.ActiveStudent] = true
	if err := svc.RecordAttempt(ctx, attemptFor("a1", student.ID, "2024-01-15T09:05:00Z")); !errors.Is(err, errDiskFull) {
		t.Fatalf("expected student write failure, got %v", err)
	}
	delete(kv.failSet, config.StorageKey.ActiveStudent)

	reloaded := loadedService(t, kv)
	cur := reloaded.CurrentStudent()
	if cur == nil || len(cur.Attempts) != 1 || cur.Attempts[0].ID != "a1" {
		t.Fatalf("embedded list not rebuilt: %+v", cur)
	}

	// The rebuilt list was written back.
	var stored model.Student
	raw, _ := kv.Get(ctx, config.StorageKey.ActiveStudent)
	if err := json.Unmarshal(raw, &stored); err != nil || len(stored.Attempts) != 1 {
		t.Errorf("reconciled student not persisted: %s", raw)
	}
}

func TestGetAttemptsByStudentNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := loadedService(t, repository.NewMemoryKV())

	for _, a := range []model.ExamAttempt{
		attemptFor("old", "s1", "2024-01-15T09:00:00Z"),
		attemptFor("new", "s1", "2024-03-01T09:00:00Z"),
		attemptFor("mid", "s1", "2024-02-01T09:00:00Z"),
		attemptFor("other", "s2", "2025-01-01T09:00:00Z"),
	} {
		if err := svc.RecordAttempt(ctx, a); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got := svc.GetAttemptsByStudent("s1")
	want := []string{"new", "mid", "old"}
	if len(got) != len(want) {
		t.Fatalf("got %d attempts", len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: got %s want %s", i, got[i].ID, id)
		}
	}
}

func TestCurrentStudentReturnsCopy(t *testing.T) {
	ctx := context.Background()
	svc := loadedService(t, repository.NewMemoryKV())
	_, _ = svc.LoginStudent(ctx, "Ada", "ada@example.com")

	cp := svc.CurrentStudent()
	cp.Name = "Mallory"
	cp.Attempts = append(cp.Attempts, model.ExamAttempt{ID: "x"})

	if cur := svc.CurrentStudent(); cur.Name != "Ada" || len(cur.Attempts) != 0 {
		t.Errorf("mirror mutated through returned copy: %+v", cur)
	}
}

func TestResultAndHistory(t *testing.T) {
	ctx := context.Background()
	svc := loadedService(t, repository.NewMemoryKV())

	a := attemptFor("a1", "s1", "2024-01-15T09:05:00Z")
	a.ExamID = "2"
	a.Answers = map[string]int{"q6": 0, "q7": 0}
	a.Score, a.Percentage = 15, 10
	_ = svc.RecordAttempt(ctx, a)

	orphan := attemptFor("a2", "s1", "2024-01-16T09:05:00Z")
	orphan.ExamID = "gone"
	orphan.Percentage, orphan.Passed = 90, true
	_ = svc.RecordAttempt(ctx, orphan)

	res, err := svc.Result("a1")
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.Exam == nil || res.Exam.Title != "React Concepts" || res.CorrectCount != 1 || len(res.Review) != 3 {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Grade != "F" {
		t.Errorf("expected F, got %s", res.Grade)
	}

	res, err = svc.Result("a2")
	if err != nil || res.Exam != nil || res.Review != nil || res.Grade != "A+" {
		t.Errorf("orphan attempt should still render without review: %+v %v", res, err)
	}

	if _, err := svc.Result("nope"); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("expected ErrAttemptNotFound, got %v", err)
	}

	h := svc.History("s1")
	if len(h.Attempts) != 2 || h.Attempts[0].Attempt.ID != "a2" {
		t.Fatalf("unexpected history order %+v", h.Attempts)
	}
	if h.Stats.TotalAttempts != 2 || h.Stats.PassedAttempts != 1 || h.Stats.BestScore != 90 || h.Stats.AverageScore != 50 {
		t.Errorf("unexpected stats %+v", h.Stats)
	}
	if h.Attempts[1].Review != nil {
		t.Error("history entries should not carry reviews")
	}
}
