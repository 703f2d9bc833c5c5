package model

// SessionState enumerates exam session states.
type SessionState string

const (
	SessionStateNotStarted SessionState = "NOT_STARTED"
	SessionStateInProgress SessionState = "IN_PROGRESS"
	SessionStateSubmitted  SessionState = "SUBMITTED"
	SessionStateTimedOut   SessionState = "TIMED_OUT"
)

// Terminal reports whether no further mutation is allowed.
func (s SessionState) Terminal() bool {
	return s == SessionStateSubmitted || s == SessionStateTimedOut
}

// QuestionStatus is the navigator status of a single question.
type QuestionStatus string

const (
	QuestionStatusCurrent    QuestionStatus = "current"
	QuestionStatusAnswered   QuestionStatus = "answered"
	QuestionStatusFlagged    QuestionStatus = "flagged"
	QuestionStatusUnanswered QuestionStatus = "unanswered"
)

// Direction is a relative navigation step.
type Direction string

const (
	DirectionNext     Direction = "next"
	DirectionPrevious Direction = "previous"
)

// SelectAnswerRequest answers the current question, or QuestionID if set.
type SelectAnswerRequest struct {
	QuestionID  string `json:"question_id" binding:"omitempty,max=100"`
	OptionIndex *int   `json:"option_index" binding:"required,min=0"`
}

// NavigateRequest moves by Direction or jumps to Index. Exactly one is set.
type NavigateRequest struct {
	Direction Direction `json:"direction" binding:"required_without=Index,omitempty,oneof=next previous"`
	Index     *int      `json:"index" binding:"required_without=Direction,omitempty,min=0"`
}

// FlagRequest toggles the flag on the current question, or QuestionID if set.
type FlagRequest struct {
	QuestionID string `json:"question_id" binding:"omitempty,max=100"`
}
