package state

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

// Flow identifies an active multi-step conversation kind.
type Flow string

// Step identifies a single position inside a flow.
type Step string

const (
	// FlowNone indicates there is no active conversation with the user.
	FlowNone Flow = ""
	// StepNone is the zero step used together with FlowNone.
	StepNone Step = ""
)

// Session stores the conversation position and the draft collected so far.
// Draft is owned by the flow that started the session; flows store their own
// typed draft struct there and assert it back on dispatch.
type Session struct {
	Flow      Flow
	Step      Step
	Draft     any
	StartedAt time.Time
}

// Manager orchestrates user sessions and dispatches inputs to step handlers.
// Handlers are bound per manager instance; there is no package-level registry.
type Manager interface {
	// Get returns a copy of the user's session and whether one exists.
	Get(userID int64) (Session, bool)
	// Begin starts a new session, replacing any previous one.
	Begin(userID int64, flow Flow, step Step, draft any)
	// Advance moves the session to the given step, keeping the draft.
	Advance(userID int64, step Step)
	// Update applies fn to the live session under the manager lock.
	Update(userID int64, fn func(*Session))
	// Clear removes the session entirely.
	Clear(userID int64)

	InProgress(userID int64) bool

	// Bind associates a flow step with its input handler.
	Bind(flow Flow, step Step, h tele.HandlerFunc)
	// Dispatch routes the update to the handler bound to the sender's
	// current flow and step. Unknown positions are ignored.
	Dispatch(c tele.Context) error
}
