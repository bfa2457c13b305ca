// Package navigation provides the navigator used by the session-expiry
// interceptor: something that knows the current path and can move to
// another one.
package navigation

import (
	"sync"

	"github.com/consultdesk/apiclient/logger"
)

// Navigator reports the current path and redirects. It matches
// httpclient.Navigator.
type Navigator interface {
	CurrentPath() string
	RedirectTo(path string)
}

// History is an in-memory navigator that records every redirect.
type History struct {
	mu        sync.RWMutex
	current   string
	redirects []string
}

// NewHistory starts at the given path.
func NewHistory(start string) *History {
	if start == "" {
		start = "/"
	}
	return &History{current: start}
}

// CurrentPath returns the path the history is at.
func (h *History) CurrentPath() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// RedirectTo moves to path and records the redirect.
func (h *History) RedirectTo(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = path
	h.redirects = append(h.redirects, path)
}

// Navigate moves to path without recording it as a redirect.
func (h *History) Navigate(path string) {
	h.mu.Lock()
	h.current = path
	h.mu.Unlock()
}

// Redirects returns a copy of the redirect log.
func (h *History) Redirects() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.redirects))
	copy(out, h.redirects)
	return out
}

// Logging wraps a navigator and logs each redirect.
type Logging struct {
	next Navigator
	log  *logger.Logger
}

// NewLogging wraps next.
func NewLogging(next Navigator, log *logger.Logger) *Logging {
	if log == nil {
		log = logger.WithComponent("navigation")
	}
	return &Logging{next: next, log: log}
}

func (l *Logging) CurrentPath() string { return l.next.CurrentPath() }

func (l *Logging) RedirectTo(path string) {
	l.log.Info("redirect", logger.Fields(
		"from", l.next.CurrentPath(),
		logger.FieldPath, path,
	))
	l.next.RedirectTo(path)
}
