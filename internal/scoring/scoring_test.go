package scoring

import (
	"math"
	"testing"

	"github.com/stemsi/exstem-local/internal/model"
)

func twoQuestionExam() *model.Exam {
	return &model.Exam{
		ID:           "e1",
		Title:        "Two questions",
		Duration:     1,
		TotalPoints:  20,
		PassingScore: 50,
		Questions: []model.Question{
			{ID: "q1", Question: "first", Options: []string{"a", "b"}, CorrectAnswer: 0, Points: 10},
			{ID: "q2", Question: "second", Options: []string{"a", "b"}, CorrectAnswer: 1, Points: 10},
		},
	}
}

func TestScoreScenarios(t *testing.T) {
	tests := []struct {
		name    string
		answers map[string]int
		want    Result
	}{
		{
			name:    "both correct",
			answers: map[string]int{"q1": 0, "q2": 1},
			want:    Result{Score: 20, Percentage: 100, Passed: true, Grade: GradeAPlus},
		},
		{
			name:    "first correct only",
			answers: map[string]int{"q1": 0},
			want:    Result{Score: 10, Percentage: 50, Passed: true, Grade: GradeD},
		},
		{
			name:    "none answered",
			answers: map[string]int{},
			want:    Result{Score: 0, Percentage: 0, Passed: false, Grade: GradeF},
		},
		{
			name:    "both wrong",
			answers: map[string]int{"q1": 1, "q2": 0},
			want:    Result{Score: 0, Percentage: 0, Passed: false, Grade: GradeF},
		},
		{
			name:    "unknown ids ignored",
			answers: map[string]int{"q1": 0, "ghost": 0},
			want:    Result{Score: 10, Percentage: 50, Passed: true, Grade: GradeD},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(twoQuestionExam(), tc.answers)
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestScoreZeroTotalPoints(t *testing.T) {
	exam := twoQuestionExam()
	exam.TotalPoints = 0
	exam.PassingScore = 0

	got := Score(exam, map[string]int{"q1": 0, "q2": 1})

	if got.Percentage != 0 {
		t.Errorf("expected 0%% for zero total points, got %v", got.Percentage)
	}
	if got.Score != 20 {
		t.Errorf("score should still sum points, got %d", got.Score)
	}
	if !got.Passed {
		t.Error("0 >= 0 passing score should pass")
	}
}

func TestScoreNilAnswers(t *testing.T) {
	got := Score(twoQuestionExam(), nil)
	if got.Score != 0 || got.Passed {
		t.Errorf("unexpected result for nil answers: %+v", got)
	}
}

func TestPercentageBounds(t *testing.T) {
	exam := twoQuestionExam()
	sets := []map[string]int{
		{}, {"q1": 0}, {"q2": 1}, {"q1": 0, "q2": 1}, {"q1": 1, "q2": 1},
	}
	for _, answers := range sets {
		pct := Score(exam, answers).Percentage
		if pct < 0 || pct > 100 || math.IsNaN(pct) {
			t.Errorf("percentage %v out of bounds for %v", pct, answers)
		}
	}
}

func TestGradeFor(t *testing.T) {
	tests := []struct {
		pct  float64
		want Grade
	}{
		{100, GradeAPlus},
		{90, GradeAPlus},
		{89.99, GradeA},
		{80, GradeA},
		{79.9, GradeB},
		{70, GradeB},
		{60, GradeC},
		{50, GradeD},
		{49.99, GradeF},
		{0, GradeF},
	}
	for _, tc := range tests {
		if got := GradeFor(tc.pct); got != tc.want {
			t.Errorf("GradeFor(%v) = %s, want %s", tc.pct, got, tc.want)
		}
	}
}

func TestCorrectCountAndReview(t *testing.T) {
	exam := twoQuestionExam()
	answers := map[string]int{"q1": 0, "q2": 0}

	if n := CorrectCount(exam, answers); n != 1 {
		t.Errorf("expected 1 correct, got %d", n)
	}

	review := Review(exam, map[string]int{"q2": 1})
	if len(review) != 2 {
		t.Fatalf("expected 2 review rows, got %d", len(review))
	}
	if review[0].Selected != nil || review[0].Correct {
		t.Errorf("unanswered question reviewed as %+v", review[0])
	}
	if review[1].Selected == nil || *review[1].Selected != 1 || !review[1].Correct || review[1].PointsEarned != 10 {
		t.Errorf("answered question reviewed as %+v", review[1])
	}
}

func TestSummarize(t *testing.T) {
	if got := Summarize(nil); got != (HistoryStats{}) {
		t.Errorf("expected zero stats, got %+v", got)
	}

	got := Summarize([]model.ExamAttempt{
		{Percentage: 40},
		{Percentage: 100, Passed: true},
		{Percentage: 70, Passed: true},
	})
	if got.TotalAttempts != 3 || got.PassedAttempts != 2 || got.BestScore != 100 || got.AverageScore != 70 {
		t.Errorf("unexpected stats %+v", got)
	}
}

func TestSortByEndTimeDesc(t *testing.T) {
	in := []model.ExamAttempt{
		{ID: "old", EndTime: "2024-01-01T10:00:00Z"},
		{ID: "bad", EndTime: "not a time"},
		{ID: "new", EndTime: "2024-03-01T10:00:00Z"},
		{ID: "mid", EndTime: "2024-02-01T10:00:00.5Z"},
	}

	out := SortByEndTimeDesc(in)

	want := []string{"new", "mid", "old", "bad"}
	for i, id := range want {
		if out[i].ID != id {
			t.Fatalf("position %d: got %s, want %s (full: %v)", i, out[i].ID, id, out)
		}
	}
	if in[0].ID != "old" {
		t.Error("input slice must not be reordered")
	}
}
