package model

import (
	"sync"
	"time"
)

// Level is the severity of a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Notice is a transient line shown in the notice bar until it expires.
type Notice struct {
	Text    string
	Level   Level
	Expires time.Time
}

// Notices holds the most recent notice. The zero value is not usable; call
// NewNotices.
type Notices struct {
	mu      sync.RWMutex
	current Notice
	now     func() time.Time
}

// NewNotices creates an empty notice holder.
func NewNotices() *Notices {
	return &Notices{now: time.Now}
}

// Info shows msg for five seconds.
func (n *Notices) Info(msg string) {
	n.Set(msg, LevelInfo, 5*time.Second)
}

// Warn shows msg for eight seconds.
func (n *Notices) Warn(msg string) {
	n.Set(msg, LevelWarn, 8*time.Second)
}

// Error shows msg for ten seconds.
func (n *Notices) Error(msg string) {
	n.Set(msg, LevelError, 10*time.Second)
}

// Set replaces the current notice.
func (n *Notices) Set(msg string, level Level, d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = Notice{Text: msg, Level: level, Expires: n.now().Add(d)}
}

// Current returns the live notice, or nil once it has expired.
func (n *Notices) Current() *Notice {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.current.Text == "" || !n.now().Before(n.current.Expires) {
		return nil
	}
	c := n.current
	return &c
}
