// Package logging provides the component loggers used by pagemap.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level filters what a Logger writes.
type Level int

const (
	// LevelQuiet writes errors only
	LevelQuiet Level = iota
	// LevelNormal adds warnings
	LevelNormal
	// LevelVerbose adds informational messages
	LevelVerbose
	// LevelDebug writes everything
	LevelDebug
)

var levelNames = map[string]Level{
	"quiet":   LevelQuiet,
	"normal":  LevelNormal,
	"verbose": LevelVerbose,
	"debug":   LevelDebug,
}

// ParseLevel maps a config verbosity to a Level. Empty means normal.
func ParseLevel(s string) (Level, error) {
	if s == "" {
		return LevelNormal, nil
	}
	l, ok := levelNames[s]
	if !ok {
		return LevelNormal, fmt.Errorf("unknown verbosity %q", s)
	}
	return l, nil
}

func (l Level) String() string {
	for name, v := range levelNames {
		if v == l {
			return name
		}
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Logger writes leveled, component-tagged lines. Loggers made with NewLogger
// share one file per process under ~/.pagemap/logs/.
type Logger struct {
	sessionID string
	component string
	level     Level
	file      *os.File
	logger    *log.Logger
	mu        *sync.Mutex
	logPath   string
	closeOnce *sync.Once
}

var (
	// sessionID identifies the current process in log file names
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir   string
	initOnce sync.Once
	initErr  error
)

func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

func initLogDirectory() error {
	initOnce.Do(func() {
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(homeDir, ".pagemap", "logs")
		}
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
		}
	})
	return initErr
}

// NewLogger creates a logger for a component writing to
// ~/.pagemap/logs/<session-id>-pagemap.log at LevelNormal.
//
// If the log file cannot be opened it returns a logger writing to stderr
// together with the error.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	sessID := getSessionID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-pagemap.log", sessID))

	// Several components append to the same file
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, err), err
	}

	return &Logger{
		sessionID: sessID,
		component: component,
		level:     LevelNormal,
		file:      file,
		logger:    log.New(file, "", 0),
		mu:        &sync.Mutex{},
		logPath:   logPath,
		closeOnce: &sync.Once{},
	}, nil
}

// New returns a logger writing to w.
func New(component string, w io.Writer, level Level) *Logger {
	return &Logger{
		sessionID: getSessionID(),
		component: component,
		level:     level,
		logger:    log.New(w, "", 0),
		mu:        &sync.Mutex{},
		closeOnce: &sync.Once{},
	}
}

func newFallbackLogger(component string, err error) *Logger {
	l := New(component, os.Stderr, LevelNormal)
	l.Warnf("failed to initialize file logging: %v", err)
	return l
}

// With returns a logger for another component sharing this one's output
// and level.
func (l *Logger) With(component string) *Logger {
	c := *l
	c.component = component
	return &c
}

// SetLevel changes the level of l. Loggers derived with With keep their own.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the current level.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *Logger) write(min Level, tag, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level < min {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	l.logger.Printf("[%s] [%s] [%s] %s", timestamp, l.component, tag, fmt.Sprintf(format, v...))
}

// Debugf logs at LevelDebug. It satisfies domtree.Logger.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write(LevelDebug, "DEBUG", format, v...)
}

// Infof logs at LevelVerbose.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write(LevelVerbose, "INFO", format, v...)
}

// Warnf logs at LevelNormal.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write(LevelNormal, "WARN", format, v...)
}

// Errorf always logs.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write(LevelQuiet, "ERROR", format, v...)
}

// SessionID returns the process-wide session ID.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the path to the log file, empty for writer loggers.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetSessionID returns the current global session ID
func GetSessionID() string {
	return getSessionID()
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}
