package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryManagerLifecycle(t *testing.T) {
	m := NewMemoryManager()

	_, ok := m.Get(1)
	assert.False(t, ok)
	assert.False(t, m.InProgress(1))

	m.Begin(1, Flow("apply"), Step("name"), map[string]string{})
	sess, ok := m.Get(1)
	require.True(t, ok)
	assert.Equal(t, Flow("apply"), sess.Flow)
	assert.Equal(t, Step("name"), sess.Step)
	assert.False(t, sess.StartedAt.IsZero())
	assert.True(t, m.InProgress(1))

	m.Advance(1, Step("confirm"))
	sess, _ = m.Get(1)
	assert.Equal(t, Step("confirm"), sess.Step)

	m.Update(1, func(s *Session) { s.Draft = "done" })
	sess, _ = m.Get(1)
	assert.Equal(t, "done", sess.Draft)

	m.Clear(1)
	_, ok = m.Get(1)
	assert.False(t, ok)
	assert.False(t, m.InProgress(1))
}

func TestMemoryManagerIsolatesUsers(t *testing.T) {
	m := NewMemoryManager()
	m.Begin(1, Flow("apply"), Step("name"), nil)
	m.Begin(2, Flow("submit"), Step("link"), nil)

	m.Advance(1, Step("confirm"))
	sess, ok := m.Get(2)
	require.True(t, ok)
	assert.Equal(t, Step("link"), sess.Step)

	m.Clear(1)
	assert.True(t, m.InProgress(2))
}

func TestMemoryManagerBeginReplacesSession(t *testing.T) {
	m := NewMemoryManager()
	m.Begin(1, Flow("apply"), Step("name"), "old")
	m.Begin(1, Flow("submit"), Step("link"), "new")

	sess, ok := m.Get(1)
	require.True(t, ok)
	assert.Equal(t, Flow("submit"), sess.Flow)
	assert.Equal(t, "new", sess.Draft)
}
