// Package scoring computes exam results from a final answer set.
package scoring

import (
	"sort"

	"github.com/stemsi/exstem-local/internal/model"
)

// Grade is a cosmetic letter band, independent of pass/fail.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// gradeBands are evaluated top-down; lower bounds are inclusive.
var gradeBands = []struct {
	min   float64
	grade Grade
}{
	{90, GradeAPlus},
	{80, GradeA},
	{70, GradeB},
	{60, GradeC},
	{50, GradeD},
}

// Result is the outcome of scoring one answer set.
type Result struct {
	Score      int     `json:"score"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
	Grade      Grade   `json:"grade"`
}

// Score sums the points of correctly answered questions. The percentage is
// taken against exam.TotalPoints and is 0 when TotalPoints is not positive.
func Score(exam *model.Exam, answers map[string]int) Result {
	score := 0
	for i := range exam.Questions {
		q := &exam.Questions[i]
		if sel, ok := answers[q.ID]; ok && q.IsCorrect(sel) {
			score += q.Points
		}
	}

	var pct float64
	if exam.TotalPoints > 0 {
		pct = float64(score) / float64(exam.TotalPoints) * 100
	}

	return Result{
		Score:      score,
		Percentage: pct,
		Passed:     pct >= exam.PassingScore,
		Grade:      GradeFor(pct),
	}
}

// GradeFor maps a percentage onto its grade band.
func GradeFor(percentage float64) Grade {
	for _, b := range gradeBands {
		if percentage >= b.min {
			return b.grade
		}
	}
	return GradeF
}

// CorrectCount returns how many answered questions were answered correctly.
// Answers for ids outside the exam are ignored.
func CorrectCount(exam *model.Exam, answers map[string]int) int {
	n := 0
	for id, sel := range answers {
		if q, ok := exam.QuestionByID(id); ok && q.IsCorrect(sel) {
			n++
		}
	}
	return n
}

// QuestionReview is the per-question breakdown shown on the results screen.
type QuestionReview struct {
	Index         int      `json:"index"`
	QuestionID    string   `json:"questionId"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	Category      string   `json:"category,omitempty"`
	Selected      *int     `json:"selected"`
	CorrectAnswer int      `json:"correctAnswer"`
	Correct       bool     `json:"correct"`
	PointsEarned  int      `json:"pointsEarned"`
	Points        int      `json:"points"`
}

// Review lists every question of the exam in order with the student's answer.
func Review(exam *model.Exam, answers map[string]int) []QuestionReview {
	out := make([]QuestionReview, 0, len(exam.Questions))
	for i := range exam.Questions {
		q := &exam.Questions[i]
		r := QuestionReview{
			Index:         i,
			QuestionID:    q.ID,
			Question:      q.Question,
			Options:       q.Options,
			Category:      q.Category,
			CorrectAnswer: q.CorrectAnswer,
			Points:        q.Points,
		}
		if sel, ok := answers[q.ID]; ok {
			r.Selected = &sel
			if q.IsCorrect(sel) {
				r.Correct = true
				r.PointsEarned = q.Points
			}
		}
		out = append(out, r)
	}
	return out
}

// HistoryStats aggregates a student's attempt history.
type HistoryStats struct {
	TotalAttempts  int     `json:"totalAttempts"`
	PassedAttempts int     `json:"passedAttempts"`
	AverageScore   float64 `json:"averageScore"`
	BestScore      float64 `json:"bestScore"`
}

// Summarize computes history stats over attempt percentages. All fields are
// zero for an empty history.
func Summarize(attempts []model.ExamAttempt) HistoryStats {
	stats := HistoryStats{TotalAttempts: len(attempts)}
	if len(attempts) == 0 {
		return stats
	}

	var sum float64
	stats.BestScore = attempts[0].Percentage
	for _, a := range attempts {
		if a.Passed {
			stats.PassedAttempts++
		}
		sum += a.Percentage
		if a.Percentage > stats.BestScore {
			stats.BestScore = a.Percentage
		}
	}
	stats.AverageScore = sum / float64(len(attempts))
	return stats
}

// SortByEndTimeDesc returns a copy of attempts ordered newest first.
// Attempts with an unparsable end time sort last, keeping their order.
func SortByEndTimeDesc(attempts []model.ExamAttempt) []model.ExamAttempt {
	out := make([]model.ExamAttempt, len(attempts))
	copy(out, attempts)

	sort.SliceStable(out, func(i, j int) bool {
		ti, okI := out[i].EndedAt()
		tj, okJ := out[j].EndedAt()
		switch {
		case okI && okJ:
			return ti.After(tj)
		case okI:
			return true
		default:
			return false
		}
	})
	return out
}
