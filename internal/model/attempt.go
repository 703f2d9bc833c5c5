package model

import "time"

// EndReason records how an exam session ended.
type EndReason string

const (
	EndReasonSubmitted EndReason = "submitted"
	EndReasonTimedOut  EndReason = "timed_out"
)

// TimestampLayout is the ISO-8601 layout used for attempt timestamps.
const TimestampLayout = time.RFC3339Nano

// ExamAttempt is the immutable record of one completed or timed-out session.
type ExamAttempt struct {
	ID          string         `json:"id"`
	ExamID      string         `json:"examId"`
	StudentID   string         `json:"studentId"`
	StudentName string         `json:"studentName"`
	Answers     map[string]int `json:"answers"`
	Score       int            `json:"score"`
	Percentage  float64        `json:"percentage"`
	// TimeSpent is in seconds.
	TimeSpent int    `json:"timeSpent"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Passed    bool   `json:"passed"`
	// EndReason is empty for records written before it existed.
	EndReason EndReason `json:"endReason,omitempty"`
}

// EndedAt parses EndTime. ok is false if the timestamp is missing or malformed.
func (a *ExamAttempt) EndedAt() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, a.EndTime)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatTimestamp renders t in the attempt timestamp layout (UTC).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
