// Package notify defines the user-facing alert surface consumed by the
// API client's error handler, with logging and recording implementations.
package notify

import (
	"sync"

	"github.com/consultdesk/apiclient/logger"
)

// Kind is the severity of an alert.
type Kind string

const (
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
)

// Notifier shows a message to the user.
type Notifier interface {
	Show(kind Kind, message string)
}

// Func adapts a plain function to Notifier.
type Func func(kind Kind, message string)

// Show calls f.
func (f Func) Show(kind Kind, message string) { f(kind, message) }

// LogNotifier renders alerts as log lines. Used by the CLI, where there is
// no toast renderer.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a notifier writing to log.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Show logs the alert at a level matching its kind.
func (n *LogNotifier) Show(kind Kind, message string) {
	fields := logger.Fields(logger.FieldAlertKind, string(kind))
	switch kind {
	case KindError:
		n.log.Error(message, fields)
	case KindWarning:
		n.log.Warn(message, fields)
	default:
		n.log.Info(message, fields)
	}
}

// Alert is one recorded notification.
type Alert struct {
	Kind    Kind
	Message string
}

// Recorder keeps every alert in memory.
type Recorder struct {
	mu     sync.Mutex
	alerts []Alert
}

// Show records the alert.
func (r *Recorder) Show(kind Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, Alert{Kind: kind, Message: message})
}

// Alerts returns a copy of the recorded alerts.
func (r *Recorder) Alerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Alert, len(r.alerts))
	copy(out, r.alerts)
	return out
}
