package state

import (
	"sync"
	"time"

	"log/slog"

	"github.com/hardwaylabs/partnerbot/core/logger"
	tghelpers "github.com/hardwaylabs/partnerbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

type stepKey struct {
	flow Flow
	step Step
}

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	handlers map[stepKey]tele.HandlerFunc
}

// NewMemoryManager constructs an in-memory Manager implementation.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
		handlers: make(map[stepKey]tele.HandlerFunc),
	}
}

func (m *memoryManager) Get(userID int64) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok {
		return *sess, true
	}
	return Session{}, false
}

func (m *memoryManager) Begin(userID int64, flow Flow, step Step, draft any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = &Session{
		Flow:      flow,
		Step:      step,
		Draft:     draft,
		StartedAt: time.Now(),
	}
}

func (m *memoryManager) Advance(userID int64, step Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok {
		sess.Step = step
	}
}

func (m *memoryManager) Update(userID int64, fn func(*Session)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok {
		fn(sess)
	}
}

func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *memoryManager) InProgress(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	return ok && sess.Flow != FlowNone
}

func (m *memoryManager) Bind(flow Flow, step Step, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[stepKey{flow: flow, step: step}] = h
}

// Dispatch executes the handler bound to the sender's current flow step, if any.
func (m *memoryManager) Dispatch(c tele.Context) error {
	userID := c.Sender().ID

	m.mu.RLock()
	sess, ok := m.sessions[userID]
	var handler tele.HandlerFunc
	var flow Flow
	var step Step
	if ok {
		flow, step = sess.Flow, sess.Step
		handler = m.handlers[stepKey{flow: flow, step: step}]
	}
	m.mu.RUnlock()

	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "tg", "fsm.dispatch",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("flow", string(flow)),
		slog.String("step", string(step)),
	)

	if handler != nil {
		return handler(c)
	}
	return nil
}
