package testutil

import "sync"

// SpyLogger records every message, prefixed with its level, so tests can
// assert what the service reported. Safe for concurrent use.
type SpyLogger struct {
	mu       sync.Mutex
	messages []string
}

// NewSpyLogger creates an empty SpyLogger.
func NewSpyLogger() *SpyLogger { return &SpyLogger{} }

func (l *SpyLogger) log(level, msg string) {
	l.mu.Lock()
	l.messages = append(l.messages, level+" "+msg)
	l.mu.Unlock()
}

func (l *SpyLogger) Debug(msg string, _ ...any) { l.log("DEBUG", msg) }
func (l *SpyLogger) Info(msg string, _ ...any)  { l.log("INFO", msg) }
func (l *SpyLogger) Warn(msg string, _ ...any)  { l.log("WARN", msg) }
func (l *SpyLogger) Error(msg string, _ ...any) { l.log("ERROR", msg) }

// Messages returns a copy of everything logged so far.
func (l *SpyLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.messages))
	copy(out, l.messages)
	return out
}
