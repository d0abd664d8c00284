package websocket

import (
	"github.com/stemsi/examportal-backend/internal/examsession"
	"github.com/stemsi/examportal-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionStart    Action = "start"
	ActionAnswer   Action = "answer"
	ActionNavigate Action = "navigate"
	ActionSubmit   Action = "submit"
	ActionRetry    Action = "retry"
	ActionPing     Action = "ping"
)

// RequestPayload carries every action; fields unused by an action are empty.
type RequestPayload struct {
	Action Action      `json:"action"`
	QID    string      `json:"q_id,omitempty"`
	Answer model.Label `json:"ans,omitempty"`
	Index  *int        `json:"index,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState     Event = "state"
	EventTick      Event = "tick"
	EventCompleted Event = "completed"
	EventBlocked   Event = "blocked"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// StateResponse is the full attempt view. Paper is only sent while the
// attempt can be answered.
type StateResponse struct {
	Event    Event                `json:"event"`
	Snapshot examsession.Snapshot `json:"snapshot"`
	Paper    *model.ExamPaper     `json:"paper,omitempty"`
}

type TickResponse struct {
	Event     Event `json:"event"`
	Remaining int   `json:"remaining"`
}

type CompletedResponse struct {
	Event   Event               `json:"event"`
	Trigger examsession.Trigger `json:"trigger,omitempty"`
	Result  *model.Result       `json:"result"`
	Review  []model.ReviewItem  `json:"review"`
}

type BlockedResponse struct {
	Event  Event              `json:"event"`
	Reason examsession.Reason `json:"reason"`
	Error  string             `json:"error,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// EventFor picks the event that describes a snapshot: completed and blocked
// attempts get their own events, a running countdown is a tick, everything
// else is a plain state update.
func EventFor(snap examsession.Snapshot) interface{} {
	switch snap.State {
	case examsession.StateCompleted:
		return CompletedResponse{Event: EventCompleted, Trigger: snap.Trigger, Result: snap.Result, Review: snap.Review}
	case examsession.StateBlocked:
		return BlockedResponse{Event: EventBlocked, Reason: snap.Reason, Error: snap.Error}
	case examsession.StateInProgress:
		return TickResponse{Event: EventTick, Remaining: snap.RemainingSeconds}
	}
	return StateResponse{Event: EventState, Snapshot: snap}
}
