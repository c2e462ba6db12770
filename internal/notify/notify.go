// Package notify delivers user-facing cart messages.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Logger writes every message as a warning on the given logger.
type Logger struct {
	Log *slog.Logger
}

func (n Logger) ReportError(message string) {
	l := n.Log
	if l == nil {
		l = slog.Default()
	}
	l.Warn("cart_notification", "message", message)
}

// Writer prints one line per message, e.g. to a terminal.
type Writer struct {
	W      io.Writer
	Prefix string
}

func (n Writer) ReportError(message string) {
	fmt.Fprintf(n.W, "%s%s\n", n.Prefix, message)
}

// Recorder keeps reported messages in memory until drained.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *Recorder) ReportError(message string) {
	r.mu.Lock()
	r.messages = append(r.messages, message)
	r.mu.Unlock()
}

func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}

// Drain returns the recorded messages and forgets them.
func (r *Recorder) Drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.messages
	r.messages = nil
	return out
}

type Reporter interface {
	ReportError(message string)
}

// Multi fans a message out to several notifiers.
type Multi []Reporter

func (m Multi) ReportError(message string) {
	for _, n := range m {
		n.ReportError(message)
	}
}
