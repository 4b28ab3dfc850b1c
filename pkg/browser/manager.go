package browser

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// SessionManager owns the Playwright driver and every named session started
// through it.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	playwright  *playwright.Playwright
	maxSessions int
	idleTimeout time.Duration
	initialized bool
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		maxSessions: DefaultMaxSessions,
		idleTimeout: time.Duration(DefaultIdleTimeout) * time.Second,
	}
}

// Initialize installs and starts the Playwright driver.
// This must be called before creating any sessions.
func (m *SessionManager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	// Keep driver output off the terminal the map is rendered to
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.playwright = pw
	m.initialized = true
	return nil
}

// StartSession launches Chromium and opens a page with a DevTools session
// attached to it.
func (m *SessionManager) StartSession(name string, opts SessionOptions) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[name]; exists {
		return nil, fmt.Errorf("session %q already exists", name)
	}
	if len(m.sessions) >= m.maxSessions {
		return nil, fmt.Errorf("maximum number of sessions (%d) reached", m.maxSessions)
	}
	if !m.initialized {
		return nil, fmt.Errorf("session manager not initialized")
	}

	opts = opts.withDefaults()

	browser, err := m.playwright.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	session := &Session{Name: name, Browser: browser, Headless: opts.Headless}

	session.Context, err = browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	})
	if err != nil {
		_ = session.close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	session.Page, err = session.Context.NewPage()
	if err != nil {
		_ = session.close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	session.Page.SetDefaultTimeout(opts.Timeout)

	session.CDP, err = session.Context.NewCDPSession(session.Page)
	if err != nil {
		_ = session.close()
		return nil, fmt.Errorf("failed to open devtools session: %w", err)
	}

	now := time.Now()
	session.CreatedAt = now
	session.LastUsedAt = now
	session.CurrentURL = "about:blank"

	m.sessions[name] = session
	return session, nil
}

// CloseSession closes and removes a browser session.
func (m *SessionManager) CloseSession(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[name]
	if !exists {
		return fmt.Errorf("session %q not found", name)
	}

	// Ignore errors, the session is gone either way
	_ = session.close()
	delete(m.sessions, name)
	return nil
}

// GetSession retrieves an active session by name.
func (m *SessionManager) GetSession(name string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[name]
	if !exists {
		return nil, fmt.Errorf("session %q not found", name)
	}
	return session, nil
}

// ListSessions returns information about all active sessions, ordered by
// name.
func (m *SessionManager) ListSessions() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, session := range m.sessions {
		infos = append(infos, session.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// HasSessions returns true if there are any active sessions.
func (m *SessionManager) HasSessions() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions) > 0
}

// CloseAll closes all active sessions.
func (m *SessionManager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, session := range m.sessions {
		if err := session.close(); err != nil {
			errs = append(errs, fmt.Errorf("session %q: %w", name, err))
		}
		delete(m.sessions, name)
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing sessions: %w", errors.Join(errs...))
	}
	return nil
}

// Shutdown closes all sessions and stops Playwright.
func (m *SessionManager) Shutdown() error {
	_ = m.CloseAll()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
	}
	m.initialized = false
	return nil
}

// CleanupIdleSessions closes sessions that have been idle for longer than the
// timeout and returns their names.
func (m *SessionManager) CleanupIdleSessions() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var closed []string
	var errs []error

	for name, session := range m.sessions {
		if now.Sub(session.LastUsedAt) <= m.idleTimeout {
			continue
		}
		if err := session.close(); err != nil {
			errs = append(errs, fmt.Errorf("session %q: %w", name, err))
		}
		delete(m.sessions, name)
		closed = append(closed, name)
	}
	sort.Strings(closed)

	if len(errs) > 0 {
		return closed, fmt.Errorf("errors during cleanup: %w", errors.Join(errs...))
	}
	return closed, nil
}

// SetMaxSessions sets the maximum number of concurrent sessions.
func (m *SessionManager) SetMaxSessions(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSessions = max
}

// SetIdleTimeout sets the idle timeout duration.
func (m *SessionManager) SetIdleTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idleTimeout = timeout
}

func (o SessionOptions) withDefaults() SessionOptions {
	if o.Viewport == nil {
		o.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}
