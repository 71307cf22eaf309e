// Package notify delivers short user-visible messages, the terminal
// equivalent of a toast.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// Variant selects how a notification is presented.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is a single message for the user.
type Notification struct {
	Title       string
	Description string
	Variant     Variant
}

// Notifier receives notifications.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to Notifier.
type Func func(n Notification)

// Notify calls f(n).
func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// Info builds a default notification.
func Info(title, description string) Notification {
	return Notification{Title: title, Description: description, Variant: VariantDefault}
}

// Failure builds a destructive notification.
func Failure(title, description string) Notification {
	return Notification{Title: title, Description: description, Variant: VariantDestructive}
}

// UserMessager is implemented by errors that carry text meant for the user.
type UserMessager interface {
	UserMessage() string
}

// Message returns the user-facing text carried by err, or fallback.
func Message(err error, fallback string) string {
	var um UserMessager
	if errors.As(err, &um) {
		if m := um.UserMessage(); m != "" {
			return m
		}
	}
	return fallback
}

// Writer prints notifications as lines to w. Safe for concurrent use.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a Writer notifier over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Notify writes n to the underlying writer.
func (w *Writer) Notify(n Notification) {
	w.mu.Lock()
	defer w.mu.Unlock()

	prefix := "•"
	if n.Variant == VariantDestructive {
		prefix = "✗"
	}
	if n.Description == "" {
		_, _ = fmt.Fprintf(w.w, "%s %s\n", prefix, n.Title)
		return
	}
	_, _ = fmt.Fprintf(w.w, "%s %s: %s\n", prefix, n.Title, n.Description)
}

// Log records notifications on lg, at warn level for destructive ones.
func Log(lg *zap.Logger) Notifier {
	return Func(func(n Notification) {
		fields := []zap.Field{
			zap.String("title", n.Title),
			zap.String("description", n.Description),
		}
		if n.Variant == VariantDestructive {
			lg.Warn("Notification", fields...)
			return
		}
		lg.Info("Notification", fields...)
	})
}

// Multi fans a notification out to every notifier.
func Multi(notifiers ...Notifier) Notifier {
	return Func(func(n Notification) {
		for _, nt := range notifiers {
			nt.Notify(n)
		}
	})
}

// Recorder keeps every notification it receives. Intended for tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

// Notify appends n.
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// Last returns the most recent notification and whether there was one.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Notification{}, false
	}
	return r.sent[len(r.sent)-1], true
}
