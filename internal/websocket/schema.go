package websocket

import "github.com/google/uuid"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionQuestion Action = "question"
	ActionAnswer   Action = "answer"
	ActionSkip     Action = "skip"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// QuestionRequest asks the server to display a question.
type QuestionRequest struct {
	Action Action `json:"action"`
	QID    string `json:"q_id"`
}

// AnswerRequest records the answer for the displayed question.
type AnswerRequest struct {
	Action Action `json:"action"`
	Answer string `json:"ans"`
}

// SkipRequest records an explicit skip of the displayed question.
type SkipRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick      Event = "tick"
	EventQuestion  Event = "question"
	EventNext      Event = "next"
	EventFinalized Event = "finalized"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// TickResponse streams the module clock once per second.
type TickResponse struct {
	Event       Event `json:"event"`
	SecondsLeft int   `json:"seconds_left"`
	Running     bool  `json:"running"`
}

// QuestionResponse carries the display-ready question payload.
type QuestionResponse struct {
	Event    Event       `json:"event"`
	Question interface{} `json:"question"`
}

// NextResponse answers a submission with the next question to show.
type NextResponse struct {
	Event      Event     `json:"event"`
	QuestionID uuid.UUID `json:"question_id"`
}

// FinalizedResponse tells the client where to navigate after the module
// is finished.
type FinalizedResponse struct {
	Event Event  `json:"event"`
	Route string `json:"route"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
