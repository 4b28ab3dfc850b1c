package browser

import (
	"context"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addSession registers a session without launching a browser.
func addSession(m *SessionManager, name string, lastUsed time.Time) *Session {
	s := &Session{Name: name, CurrentURL: "about:blank", CreatedAt: lastUsed, LastUsedAt: lastUsed}
	m.sessions[name] = s
	return s
}

func TestNewSessionManager(t *testing.T) {
	m := NewSessionManager()
	assert.Equal(t, DefaultMaxSessions, m.maxSessions)
	assert.Equal(t, 5*time.Minute, m.idleTimeout)
	assert.False(t, m.HasSessions())
	assert.Empty(t, m.ListSessions())
}

func TestSessionManager_StartSession(t *testing.T) {
	t.Run("not initialized", func(t *testing.T) {
		_, err := NewSessionManager().StartSession("main", SessionOptions{})
		assert.EqualError(t, err, "session manager not initialized")
	})

	t.Run("duplicate name", func(t *testing.T) {
		m := NewSessionManager()
		addSession(m, "main", time.Now())
		_, err := m.StartSession("main", SessionOptions{})
		assert.EqualError(t, err, `session "main" already exists`)
	})

	t.Run("session limit", func(t *testing.T) {
		m := NewSessionManager()
		m.SetMaxSessions(1)
		addSession(m, "a", time.Now())
		_, err := m.StartSession("b", SessionOptions{})
		assert.EqualError(t, err, "maximum number of sessions (1) reached")
	})
}

func TestSessionManager_Lookup(t *testing.T) {
	m := NewSessionManager()
	now := time.Now()
	addSession(m, "zeta", now)
	addSession(m, "alpha", now)

	s, err := m.GetSession("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", s.Name)

	_, err = m.GetSession("missing")
	assert.EqualError(t, err, `session "missing" not found`)

	infos := m.ListSessions()
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, "zeta", infos[1].Name)
	assert.True(t, m.HasSessions())
}

func TestSessionManager_Close(t *testing.T) {
	m := NewSessionManager()
	addSession(m, "a", time.Now())
	addSession(m, "b", time.Now())

	require.NoError(t, m.CloseSession("a"))
	assert.EqualError(t, m.CloseSession("a"), `session "a" not found`)

	require.NoError(t, m.CloseAll())
	assert.False(t, m.HasSessions())

	addSession(m, "c", time.Now())
	require.NoError(t, m.Shutdown())
	assert.False(t, m.HasSessions())
}

func TestSessionManager_CleanupIdleSessions(t *testing.T) {
	m := NewSessionManager()
	m.SetIdleTimeout(time.Minute)
	addSession(m, "fresh", time.Now())
	addSession(m, "stale", time.Now().Add(-2*time.Minute))
	addSession(m, "older", time.Now().Add(-time.Hour))

	closed, err := m.CleanupIdleSessions()
	require.NoError(t, err)
	assert.Equal(t, []string{"older", "stale"}, closed)

	_, err = m.GetSession("fresh")
	assert.NoError(t, err)
}

func TestSessionOptions_Defaults(t *testing.T) {
	got := SessionOptions{Headless: true}.withDefaults()
	assert.Equal(t, &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}, got.Viewport)
	assert.Equal(t, DefaultTimeout, got.Timeout)

	custom := SessionOptions{Viewport: &Viewport{Width: 400, Height: 300}, Timeout: 5}.withDefaults()
	assert.Equal(t, 400, custom.Viewport.Width)
	assert.Equal(t, 5.0, custom.Timeout)
}

func TestSession_Driver(t *testing.T) {
	before := time.Now().Add(-time.Hour)
	s := &Session{Name: "main", CurrentURL: "https://example.com/", LastUsedAt: before}

	assert.Equal(t, "https://example.com/", s.URL())

	_, err := proto.PageGetLayoutMetrics{}.Call(s.Client(context.Background()))
	assert.ErrorIs(t, err, ErrNoCDPSession)
	assert.True(t, s.LastUsedAt.After(before))

	info := s.Info()
	assert.Equal(t, "main", info.Name)
	assert.Equal(t, "https://example.com/", info.CurrentURL)
}
