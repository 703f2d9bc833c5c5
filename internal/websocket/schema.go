package websocket

import (
	"github.com/stemsi/exstem-local/internal/model"
	"github.com/stemsi/exstem-local/internal/scoring"
	"github.com/stemsi/exstem-local/internal/session"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionState    Action = "state"
	ActionAnswer   Action = "answer"
	ActionNavigate Action = "navigate"
	ActionFlag     Action = "flag"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// Request is any client message. Only the fields relevant to Action are read.
type Request struct {
	Action      Action          `json:"action"`
	QuestionID  string          `json:"question_id,omitempty"`
	OptionIndex *int            `json:"option_index,omitempty"`
	Direction   model.Direction `json:"direction,omitempty"`
	Index       *int            `json:"index,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState     Event = "state"
	EventTick      Event = "tick"
	EventSubmitted Event = "submitted"
	EventTimedOut  Event = "timed_out"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// StateResponse carries the full session view after an intent.
type StateResponse struct {
	Event   Event        `json:"event"`
	Session session.View `json:"session"`
}

// TickResponse is pushed once per countdown second.
type TickResponse struct {
	Event              Event  `json:"event"`
	Remaining          int    `json:"remaining"`
	RemainingFormatted string `json:"remainingFormatted"`
}

// FinishedResponse is pushed when the session ends by submit or timeout.
type FinishedResponse struct {
	Event   Event             `json:"event"`
	Attempt model.ExamAttempt `json:"attempt"`
	Grade   scoring.Grade     `json:"grade"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
